// Package source resolves the images to recognize for one input item.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/tessnode/internal/items"
	"github.com/MeKo-Tech/tessnode/internal/nodeerr"
	"github.com/MeKo-Tech/tessnode/internal/pdf"
	"github.com/MeKo-Tech/tessnode/internal/utils"
)

// Kind tells where an image came from.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
)

// Image is one OCR-ready image.
type Image struct {
	Data     []byte
	Name     string
	MimeType string
	Kind     Kind
}

// Resolver turns an item's binary field into the ordered list of images to
// recognize.
type Resolver struct {
	store         items.BinaryStore
	extractor     *pdf.Extractor
	resizePercent int
	logger        *slog.Logger
}

// NewResolver creates a resolver. resizePercent applies to image inputs
// only; 100 (or 0) leaves them untouched.
func NewResolver(store items.BinaryStore, extractor *pdf.Extractor, resizePercent int, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if resizePercent == 0 {
		resizePercent = 100
	}
	return &Resolver{store: store, extractor: extractor, resizePercent: resizePercent, logger: logger}
}

// Resolve returns the images of item itemIndex's field, in discovery order.
// Unsupported mime types fail with UNSUPPORTED_INPUT_TYPE.
func (r *Resolver) Resolve(ctx context.Context, itemIndex int, field string) ([]Image, error) {
	meta, err := r.store.Metadata(itemIndex, field)
	if err != nil {
		return nil, r.missing(field, err)
	}

	switch {
	case items.IsImage(meta.MimeType):
		data, err := r.store.Buffer(ctx, itemIndex, field)
		if err != nil {
			return nil, r.missing(field, err)
		}
		img, err := r.single(data, meta)
		if err != nil {
			return nil, err
		}
		return []Image{img}, nil

	case items.IsPDF(meta.MimeType):
		data, err := r.store.Buffer(ctx, itemIndex, field)
		if err != nil {
			return nil, r.missing(field, err)
		}
		name := meta.FileName
		if name == "" {
			name = field
		}
		extracted, err := r.extractor.Extract(ctx, data, name)
		if err != nil {
			return nil, err
		}
		out := make([]Image, len(extracted))
		for i, e := range extracted {
			out[i] = Image{Data: e.Data, Name: e.Name, MimeType: e.MimeType, Kind: KindPDF}
		}
		r.logger.Debug("Resolved PDF images", "item", itemIndex, "field", field, "images", len(out))
		return out, nil

	default:
		return nil, nodeerr.NewUnsupportedInputType(field, meta.MimeType)
	}
}

func (r *Resolver) missing(field string, err error) error {
	if errors.Is(err, items.ErrNoBinary) {
		return nodeerr.NewMissingBinary(field, err)
	}
	return err
}

// single returns an image attachment, scaled and re-encoded as JPEG when a
// resize factor other than 100% is configured.
func (r *Resolver) single(data []byte, meta items.Metadata) (Image, error) {
	img := Image{Data: data, Name: meta.FileName, MimeType: meta.MimeType, Kind: KindImage}
	if r.resizePercent == 100 {
		return img, nil
	}

	decoded, info, err := utils.DecodeImage(data)
	if err != nil {
		return Image{}, fmt.Errorf("resize %s: %w", meta.FileName, err)
	}
	scaled, err := utils.ScaleByPercent(decoded, r.resizePercent)
	if err != nil {
		return Image{}, err
	}
	encoded, err := utils.EncodeJPEG(scaled, utils.DefaultJPEGQuality)
	if err != nil {
		return Image{}, err
	}
	r.logger.Debug("Resized image",
		"name", meta.FileName,
		"from", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"to", fmt.Sprintf("%dx%d", scaled.Bounds().Dx(), scaled.Bounds().Dy()),
		"percent", r.resizePercent)

	img.Data = encoded
	img.MimeType = "image/jpeg"
	return img, nil
}
