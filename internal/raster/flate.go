package raster

import (
	"bytes"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/filter"
)

// Inflate decompresses a Flate stream, undoing any PNG or TIFF predictor
// declared in parms.
func Inflate(data []byte, parms map[string]int) ([]byte, error) {
	f, err := filter.NewFilter(filter.Flate, parms)
	if err != nil {
		return nil, err
	}
	r, err := f.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
