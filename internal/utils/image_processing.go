package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}

// DefaultJPEGQuality is used when re-encoding resized images.
const DefaultJPEGQuality = 90

// ScaleByPercent resizes img by percent in both dimensions with Lanczos
// resampling. Each side is at least one pixel.
func ScaleByPercent(img image.Image, percent int) (image.Image, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("input image is nil")}
	}
	if percent <= 0 {
		return nil, &ImageProcessingError{Operation: "resize", Err: fmt.Errorf("invalid resize percent %d", percent)}
	}
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*float64(percent)/100)))
	h := max(1, int(math.Round(float64(b.Dy())*float64(percent)/100)))
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

// EncodeJPEG encodes img as JPEG with the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, &ImageProcessingError{Operation: "encode", Err: err}
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, &ImageProcessingError{Operation: "encode", Err: err}
	}
	return buf.Bytes(), nil
}

// CropImageRect crops an image to the given rectangle, clipped to its
// bounds. An empty intersection is an error.
func CropImageRect(img image.Image, rect image.Rectangle) (image.Image, error) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return nil, &ImageProcessingError{Operation: "crop", Err: fmt.Errorf("region outside image bounds %v", img.Bounds())}
	}
	return imaging.Crop(img, rect), nil
}
