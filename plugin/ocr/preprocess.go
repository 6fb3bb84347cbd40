package ocr

import (
	"bytes"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// minOCRWidth is the width below which scans are upscaled; phone photos of
// ID cards are often too small for Tesseract to read diacritics.
const minOCRWidth = 1600

// Preprocess converts an image to a high-contrast grayscale PNG sized for OCR.
func Preprocess(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	if img.Bounds().Dx() < minOCRWidth {
		img = imaging.Resize(img, minOCRWidth, 0, imaging.Lanczos)
	}
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 20)
	gray = imaging.Sharpen(gray, 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, errors.Wrap(err, "failed to encode image")
	}
	return buf.Bytes(), nil
}
