package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore accepts compressed image bytes at a deterministic key. Put
// overwrites an existing object so a retried upload lands on the same key
// instead of duplicating. No retry policy is imposed here.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) bool
}

// LocalBlobStore stores blobs as files under a base directory. Keys use
// forward slashes and must resolve inside the base path.
type LocalBlobStore struct {
	basePath string
}

// NewLocalBlobStore creates a LocalBlobStore rooted at basePath
func NewLocalBlobStore(basePath string) (*LocalBlobStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, err
	}

	return &LocalBlobStore{basePath: absPath}, nil
}

// Put writes the blob, creating parent directories as needed
func (s *LocalBlobStore) Put(ctx context.Context, key string, data []byte) error {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(fullPath, data, 0644)
}

// Get reads a blob by key
func (s *LocalBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(fullPath)
}

// Exists checks whether a blob exists at the given key
func (s *LocalBlobStore) Exists(ctx context.Context, key string) bool {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return false
	}

	_, err = os.Stat(fullPath)
	return err == nil
}

// fullPath resolves a key to an absolute path inside the base directory
func (s *LocalBlobStore) fullPath(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("blob key cannot be empty")
	}

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(absPath, s.basePath) {
		return "", fmt.Errorf("invalid blob key: path traversal detected")
	}

	return absPath, nil
}
