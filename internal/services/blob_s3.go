package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3BlobStore stores photos in an S3-compatible backend (AWS S3 or MinIO).
// Single bucket; blob keys map to object keys directly.
type S3BlobStore struct {
	client *s3.Client
	bucket string
}

// S3Config holds explicit construction parameters
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional; set for MinIO or other custom endpoints
	PathStyle bool
}

// NewS3BlobStore creates an S3-backed blob store. Credentials come from the
// default AWS credentials chain.
func NewS3BlobStore(ctx context.Context, cfg S3Config) (*S3BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3BlobStore{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads the blob, overwriting any existing object at the key
func (s *S3BlobStore) Put(ctx context.Context, key string, data []byte) error {
	contentType := "image/jpeg"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	return err
}

// Get downloads a blob by key
func (s *S3BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// Exists checks whether an object exists at the key
func (s *S3BlobStore) Exists(ctx context.Context, key string) bool {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	return err == nil
}
