// Package raster turns raw PDF image streams into encoded images an OCR
// engine can read.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/MeKo-Tech/tessnode/internal/nodeerr"
	"github.com/disintegration/imaging"
)

// Stream filters understood by the normalizer.
const (
	FilterNone  = ""
	FilterDCT   = "DCTDecode"
	FilterFlate = "FlateDecode"
)

// Mime types of normalized output.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
)

// ColorKind is the family of a colorspace.
type ColorKind int

const (
	KindUnknown ColorKind = iota
	KindDeviceGray
	KindDeviceRGB
	KindIndexed
)

func (k ColorKind) String() string {
	switch k {
	case KindDeviceGray:
		return "DeviceGray"
	case KindDeviceRGB:
		return "DeviceRGB"
	case KindIndexed:
		return "Indexed"
	default:
		return "Unknown"
	}
}

// ColorSpace is a resolved image colorspace. Base, HiVal and Lookup are only
// set for KindIndexed; Lookup holds the decoded palette bytes.
type ColorSpace struct {
	Kind   ColorKind
	Name   string
	Base   ColorKind
	HiVal  int
	Lookup []byte
}

// Source is one raw image stream with everything needed to decode it.
type Source struct {
	Name             string
	Width            int
	Height           int
	BitsPerComponent int
	ColorSpace       ColorSpace
	Filter           string
	DecodeParms      map[string]int
	Data             []byte
	SoftMask         *Source
}

// Image is a normalized, encoded image. MaskErr is set when the declared soft
// mask could not be decoded and the image was kept opaque.
type Image struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
	MaskErr  error
}

var errTruncated = errors.New("truncated image data")

func unsupported(src *Source) error {
	cs := src.ColorSpace.Name
	if cs == "" {
		cs = src.ColorSpace.Kind.String()
	}
	return nodeerr.NewUnsupportedImageEncoding(src.Name, cs, src.BitsPerComponent, src.Filter)
}

// Normalize converts src into an encoded image. JPEG streams pass through
// unchanged; Flate and unfiltered bitmaps are rebuilt pixel by pixel, composited with their
// soft mask, and encoded as PNG. Combinations that cannot be decoded return
// an UNSUPPORTED_IMAGE_ENCODING error.
func Normalize(src *Source) (Image, error) {
	if src == nil {
		return Image{}, errors.New("nil source")
	}
	switch src.Filter {
	case FilterDCT:
		return Image{Data: src.Data, MimeType: MimeJPEG, Width: src.Width, Height: src.Height}, nil
	case FilterFlate, FilterNone:
		base, err := decodeFlate(src)
		if err != nil {
			return Image{}, err
		}
		out := Image{MimeType: MimePNG, Width: src.Width, Height: src.Height}
		if src.SoftMask != nil {
			mask, err := Decode(src.SoftMask)
			if err != nil {
				out.MaskErr = fmt.Errorf("soft mask %s: %w", src.SoftMask.Name, err)
			} else {
				base = ApplySoftMask(base, mask)
			}
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, base, imaging.PNG); err != nil {
			return Image{}, fmt.Errorf("encode %s: %w", src.Name, err)
		}
		out.Data = buf.Bytes()
		return out, nil
	default:
		return Image{}, unsupported(src)
	}
}

// Decode returns the pixels of src without its soft mask. It also accepts
// JPEG streams, which is how DCT-encoded soft masks are read.
func Decode(src *Source) (*image.NRGBA, error) {
	switch src.Filter {
	case FilterDCT:
		img, err := jpeg.Decode(bytes.NewReader(src.Data))
		if err != nil {
			return nil, fmt.Errorf("decode jpeg %s: %w", src.Name, err)
		}
		return imaging.Clone(img), nil
	case FilterFlate, FilterNone:
		return decodeFlate(src)
	default:
		return nil, unsupported(src)
	}
}

func decodeFlate(src *Source) (*image.NRGBA, error) {
	if src.Width <= 0 || src.Height <= 0 {
		return nil, fmt.Errorf("image %s: invalid dimensions %dx%d", src.Name, src.Width, src.Height)
	}
	if !supported(src) {
		return nil, unsupported(src)
	}
	raw := src.Data
	if src.Filter == FilterFlate {
		var err error
		if raw, err = Inflate(src.Data, src.DecodeParms); err != nil {
			return nil, fmt.Errorf("inflate %s: %w", src.Name, err)
		}
	}
	return DecodePixels(src, raw)
}

func supported(src *Source) bool {
	bpc := src.BitsPerComponent
	switch src.ColorSpace.Kind {
	case KindDeviceGray:
		return bpc == 1 || bpc == 2 || bpc == 4 || bpc == 8
	case KindDeviceRGB:
		return bpc == 8
	case KindIndexed:
		base := src.ColorSpace.Base
		return (base == KindDeviceRGB || base == KindDeviceGray) &&
			(bpc == 1 || bpc == 2 || bpc == 4 || bpc == 8)
	default:
		return false
	}
}

// DecodePixels interprets already inflated samples according to the
// colorspace and bit depth of src.
func DecodePixels(src *Source, raw []byte) (*image.NRGBA, error) {
	w, h, bpc := src.Width, src.Height, src.BitsPerComponent
	switch {
	case src.ColorSpace.Kind == KindDeviceGray:
		return DecodeGray(raw, w, h, bpc)
	case src.ColorSpace.Kind == KindDeviceRGB && bpc == 8:
		return DecodeRGB8(raw, w, h)
	case src.ColorSpace.Kind == KindIndexed:
		palette := DecodePalette(src.ColorSpace.Lookup, src.ColorSpace.Base, src.ColorSpace.HiVal)
		return DecodeIndexed(raw, w, h, bpc, palette)
	default:
		return nil, unsupported(src)
	}
}
