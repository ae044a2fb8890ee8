package raster

import (
	"fmt"
	"image"
	"image/color"
)

// UnpackSamples splits packed samples of bpc bits (1, 2, 4 or 8) into one
// value per pixel in row-major order. Each row starts on a byte boundary;
// within a byte the first pixel sits in the most significant bits. Padding
// bits at the end of a row are skipped, so when w*bpc is not a multiple of 8
// the result differs from reading one continuous bit stream across rows.
func UnpackSamples(raw []byte, w, h, bpc int) ([]uint8, error) {
	if bpc != 1 && bpc != 2 && bpc != 4 && bpc != 8 {
		return nil, fmt.Errorf("unsupported bit depth %d", bpc)
	}
	pixelsPerByte := 8 / bpc
	rowBytes := (w*bpc + 7) / 8
	if len(raw) < rowBytes*h {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", errTruncated, len(raw), rowBytes*h)
	}

	maxVal := (1 << bpc) - 1
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := raw[y*rowBytes : (y+1)*rowBytes]
		for x := 0; x < w; x++ {
			offset := x % pixelsPerByte
			shift := (pixelsPerByte - offset - 1) * bpc
			mask := byte(maxVal << shift)
			out[x+y*w] = (row[x/pixelsPerByte] & mask) >> shift
		}
	}
	return out, nil
}

// DecodeGray expands grayscale samples into opaque RGBA. One-bit images map
// set bits to white.
func DecodeGray(raw []byte, w, h, bpc int) (*image.NRGBA, error) {
	samples, err := UnpackSamples(raw, w, h, bpc)
	if err != nil {
		return nil, err
	}
	maxVal := (1 << bpc) - 1
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, s := range samples {
		v := uint8(int(s) * 255 / maxVal)
		p := img.Pix[i*4 : i*4+4]
		p[0], p[1], p[2], p[3] = v, v, v, 255
	}
	return img, nil
}

// DecodeRGB8 copies 8-bit RGB triplets into opaque RGBA.
func DecodeRGB8(raw []byte, w, h int) (*image.NRGBA, error) {
	if len(raw) < w*h*3 {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", errTruncated, len(raw), w*h*3)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		p := img.Pix[i*4 : i*4+4]
		p[0], p[1], p[2], p[3] = raw[i*3], raw[i*3+1], raw[i*3+2], 255
	}
	return img, nil
}

// DecodePalette converts an Indexed lookup table into hival+1 colors. Entries
// missing from a short table are left out.
func DecodePalette(lookup []byte, base ColorKind, hival int) []color.NRGBA {
	comps := 3
	if base == KindDeviceGray {
		comps = 1
	}
	n := hival + 1
	if avail := len(lookup) / comps; avail < n {
		n = avail
	}
	palette := make([]color.NRGBA, n)
	for i := range palette {
		if comps == 1 {
			v := lookup[i]
			palette[i] = color.NRGBA{R: v, G: v, B: v, A: 255}
			continue
		}
		palette[i] = color.NRGBA{R: lookup[i*3], G: lookup[i*3+1], B: lookup[i*3+2], A: 255}
	}
	return palette
}

// DecodeIndexed maps palette indices to colors. Indices past the end of the
// palette use its last entry.
func DecodeIndexed(raw []byte, w, h, bpc int, palette []color.NRGBA) (*image.NRGBA, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	indices, err := UnpackSamples(raw, w, h, bpc)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	last := len(palette) - 1
	for i, idx := range indices {
		c := palette[min(int(idx), last)]
		p := img.Pix[i*4 : i*4+4]
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
	}
	return img, nil
}
