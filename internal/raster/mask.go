package raster

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ApplySoftMask returns a copy of base whose alpha is scaled by the mask's
// luminance (mean of its RGB channels). A mask of a different size is
// resampled to the base dimensions first.
func ApplySoftMask(base *image.NRGBA, mask image.Image) *image.NRGBA {
	b := base.Bounds()
	if mb := mask.Bounds(); mb.Dx() != b.Dx() || mb.Dy() != b.Dy() {
		mask = imaging.Resize(mask, b.Dx(), b.Dy(), imaging.NearestNeighbor)
	}
	mb := mask.Bounds()

	out := image.NewNRGBA(b)
	copy(out.Pix, base.Pix)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(mask.At(mb.Min.X+x, mb.Min.Y+y)).(color.NRGBA)
			lum := (int(c.R) + int(c.G) + int(c.B)) / 3
			i := out.PixOffset(b.Min.X+x, b.Min.Y+y) + 3
			out.Pix[i] = uint8(int(out.Pix[i]) * lum / 255)
		}
	}
	return out
}
