package services

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TestPhotoPipelineCompress(t *testing.T) {
	pipeline := NewPhotoPipeline(1600, 85)

	t.Run("bounds oversized images to max dimension", func(t *testing.T) {
		data := encodeTestJPEG(t, 3200, 2400)

		out, err := pipeline.Compress(data)
		require.NoError(t, err)

		decoded, format, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.LessOrEqual(t, decoded.Bounds().Dx(), 1600)
		assert.LessOrEqual(t, decoded.Bounds().Dy(), 1600)
	})

	t.Run("preserves aspect ratio", func(t *testing.T) {
		data := encodeTestJPEG(t, 3200, 1600)

		out, err := pipeline.Compress(data)
		require.NoError(t, err)

		decoded, _, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 1600, decoded.Bounds().Dx())
		assert.Equal(t, 800, decoded.Bounds().Dy())
	})

	t.Run("leaves small images unscaled", func(t *testing.T) {
		data := encodeTestJPEG(t, 640, 480)

		out, err := pipeline.Compress(data)
		require.NoError(t, err)

		decoded, _, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 640, decoded.Bounds().Dx())
		assert.Equal(t, 480, decoded.Bounds().Dy())
	})

	t.Run("rejects undecodable data", func(t *testing.T) {
		_, err := pipeline.Compress([]byte("definitely not an image"))

		var uploadErr *PhotoUploadError
		require.ErrorAs(t, err, &uploadErr)
	})
}

func TestPathFor(t *testing.T) {
	t.Run("deterministic per attachment slot", func(t *testing.T) {
		a := PathFor("org-1", "bld-1", "insp-1", "item-1", 0)
		b := PathFor("org-1", "bld-1", "insp-1", "item-1", 0)
		assert.Equal(t, a, b)
		assert.Equal(t, "org-1/bld-1/inspections/insp-1/item-1_00.jpg", a)
	})

	t.Run("distinct per index", func(t *testing.T) {
		a := PathFor("org-1", "bld-1", "insp-1", "item-1", 0)
		b := PathFor("org-1", "bld-1", "insp-1", "item-1", 1)
		assert.NotEqual(t, a, b)
	})
}
