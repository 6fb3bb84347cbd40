package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfig tests the default configuration
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "tesseract", config.TesseractPath)
	assert.Equal(t, "", config.DataPath)
	assert.Equal(t, "ron+eng", config.Languages)
	assert.True(t, config.Preprocess)
}

// TestNewClient tests client creation
func TestNewClient(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		client := NewClient(nil)
		assert.NotNil(t, client)
		assert.Equal(t, "ron+eng", client.config.Languages)
	})

	t.Run("with custom config", func(t *testing.T) {
		config := &Config{
			TesseractPath: "/usr/bin/tesseract",
			Languages:     "ron",
			DataPath:      "/opt/tessdata",
		}
		client := NewClient(config)
		assert.Equal(t, "ron", client.config.Languages)
		assert.Equal(t, []string{"in.png", "out", "-l", "ron", "--tessdata-dir", "/opt/tessdata"}, client.args("in.png", "out"))
	})
}

// TestIsSupported tests MIME type support checking
func TestIsSupported(t *testing.T) {
	client := NewClient(nil)

	for _, mimeType := range []string{"image/png", "image/jpeg", "IMAGE/JPG", "image/gif", "image/bmp"} {
		t.Run(mimeType, func(t *testing.T) {
			assert.True(t, client.IsSupported(mimeType))
		})
	}
	for _, mimeType := range []string{"application/pdf", "text/plain", "image/tiff", ""} {
		t.Run("unsupported "+mimeType, func(t *testing.T) {
			assert.False(t, client.IsSupported(mimeType))
		})
	}
}

func TestExtractText_UnsupportedType(t *testing.T) {
	client := NewClient(nil)
	_, err := client.ExtractText(context.Background(), []byte("%PDF"), "application/pdf")
	assert.Error(t, err)
}

func TestIsAvailable_MissingBinary(t *testing.T) {
	client := NewClient(&Config{TesseractPath: "/nonexistent/tesseract"})
	assert.False(t, client.IsAvailable(context.Background()))
}

func TestPreprocess(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 250))
	for x := 0; x < 400; x++ {
		src.Set(x, 125, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, err := Preprocess(buf.Bytes())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, minOCRWidth, img.Bounds().Dx())
	assert.Equal(t, 1000, img.Bounds().Dy())
}

func TestPreprocess_InvalidImage(t *testing.T) {
	_, err := Preprocess([]byte("not an image"))
	assert.Error(t, err)
}
