package engine

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/tessnode/internal/utils"
)

// CropRegion cuts the region out of an encoded image and returns it as PNG
// together with the offset of the crop inside the original image. A nil
// region returns the input unchanged.
func CropRegion(data []byte, region *Rectangle) ([]byte, image.Point, error) {
	if region == nil {
		return data, image.Point{}, nil
	}
	if region.Width <= 0 || region.Height <= 0 {
		return nil, image.Point{}, fmt.Errorf("invalid region %dx%d", region.Width, region.Height)
	}
	img, _, err := utils.DecodeImage(data)
	if err != nil {
		return nil, image.Point{}, err
	}
	b := img.Bounds()
	rect := image.Rect(region.Left, region.Top, region.Left+region.Width, region.Top+region.Height).
		Add(b.Min).
		Intersect(b)
	cropped, err := utils.CropImageRect(img, rect)
	if err != nil {
		return nil, image.Point{}, err
	}
	out, err := utils.EncodePNG(cropped)
	if err != nil {
		return nil, image.Point{}, err
	}
	return out, rect.Min.Sub(b.Min), nil
}
