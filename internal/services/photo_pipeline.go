package services

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/jdeng/goheif"
	"github.com/rwcarlsen/goexif/exif"
)

// PhotoUploadError wraps a failed compression or upload. Recoverable: it
// blocks only the photo attachment, never the rest of the form.
type PhotoUploadError struct {
	Err error
}

func (e *PhotoUploadError) Error() string {
	return fmt.Sprintf("photo upload failed: %v", e.Err)
}

func (e *PhotoUploadError) Unwrap() error {
	return e.Err
}

// PhotoPipeline compresses captured images before upload. Deterministic
// except for the codec itself: the same input yields the same storage path,
// so a retried upload overwrites rather than duplicates.
type PhotoPipeline struct {
	maxDim  int
	quality int
}

// NewPhotoPipeline creates a pipeline. maxDim bounds the longest edge of the
// compressed output; quality is JPEG quality 1-100.
func NewPhotoPipeline(maxDim, quality int) *PhotoPipeline {
	if maxDim <= 0 {
		maxDim = 1600
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &PhotoPipeline{maxDim: maxDim, quality: quality}
}

// Compress decodes a captured image (standard formats plus HEIC from iOS
// devices), corrects EXIF orientation, bounds it to maxDim and re-encodes as
// JPEG.
func (p *PhotoPipeline) Compress(data []byte) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, &PhotoUploadError{Err: err}
	}

	img = applyOrientation(img, exifOrientation(data))

	bounds := img.Bounds()
	if bounds.Dx() > p.maxDim || bounds.Dy() > p.maxDim {
		img = imaging.Fit(img, p.maxDim, p.maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	opts := &jpeg.Options{Quality: p.quality}
	if err := jpeg.Encode(&buf, img, opts); err != nil {
		return nil, &PhotoUploadError{Err: fmt.Errorf("failed to encode photo: %w", err)}
	}

	return buf.Bytes(), nil
}

// PathFor returns the deterministic storage path for one photo attachment.
// Collision-free per (inspectionID, itemID, index); retries land on the same
// key and overwrite.
func PathFor(orgID, buildingID, inspectionID, itemID string, index int) string {
	return fmt.Sprintf("%s/%s/inspections/%s/%s_%02d.jpg", orgID, buildingID, inspectionID, itemID, index)
}

// decodeImage tries the standard decoders first, then HEIC
func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}

	heic, heicErr := goheif.Decode(bytes.NewReader(data))
	if heicErr != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return heic, nil
}

// exifOrientation reads the EXIF orientation tag, defaulting to 1 (normal)
func exifOrientation(data []byte) int {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}

	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation corrects image orientation based on EXIF data
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Rotate270(imaging.FlipH(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Rotate90(imaging.FlipH(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
