package testutil

import (
	"bytes"
	"compress/zlib"
)

// Deflate zlib-compresses data the way a PDF FlateDecode stream stores it.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

// PackSamples packs one value per pixel into rows of bpc-bit samples, most
// significant bits first, each row padded to a byte boundary.
func PackSamples(values []uint8, width, height, bpc int) []byte {
	rowBytes := (width*bpc + 7) / 8
	out := make([]byte, rowBytes*height)
	mask := uint8((1 << bpc) - 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			bit := x * bpc
			shift := 8 - bpc - bit%8
			out[y*rowBytes+bit/8] |= (values[x+y*width] & mask) << shift
		}
	}
	return out
}
