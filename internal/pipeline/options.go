package pipeline

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/tessnode/internal/engine"
	"github.com/MeKo-Tech/tessnode/internal/items"
	"github.com/MeKo-Tech/tessnode/internal/nodeerr"
	"github.com/MeKo-Tech/tessnode/internal/pdf"
	"github.com/MeKo-Tech/tessnode/internal/recognizer"
)

// Options is the invocation-wide configuration, resolved once before any
// item is processed.
type Options struct {
	// Language and Parameters configure the shared engine worker.
	Language   string
	Parameters engine.Parameters

	// Field is the binary field holding the image or PDF.
	Field       string
	Recognition recognizer.Options
	// ResizePercent scales image inputs; 100 leaves them untouched.
	ResizePercent int
	// KeepBinary attaches the recognized image as binary field "ocr".
	KeepBinary     bool
	ContinueOnFail bool
	// MaxConcurrency bounds concurrent recognitions per item; 0 is unbounded.
	MaxConcurrency int

	PDF pdf.Options
}

// DefaultOptions mirrors the defaults of the configuration layer.
func DefaultOptions() Options {
	return Options{
		Language:   "eng",
		Parameters: engine.Parameters{engine.ParamPageSegMode: "6"},
		Field:      items.DefaultField,
		Recognition: recognizer.Options{
			Granularity: recognizer.GranularityText,
		},
		ResizePercent: 100,
		KeepBinary:    true,
		PDF:           pdf.Options{Strategy: pdf.StrategyObjects},
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	var errs []error
	if o.Language == "" {
		errs = append(errs, nodeerr.NewInvalidConfiguration("language", errors.New("must not be empty")))
	}
	if o.Field == "" {
		errs = append(errs, nodeerr.NewInvalidConfiguration("field", errors.New("must not be empty")))
	}
	if _, err := recognizer.ParseGranularity(string(o.Recognition.Granularity)); err != nil {
		errs = append(errs, nodeerr.NewInvalidConfiguration("granularity", err))
	}
	if o.Recognition.Timeout < 0 {
		errs = append(errs, nodeerr.NewInvalidConfiguration("timeout", fmt.Errorf("must be >= 0, got %v", o.Recognition.Timeout)))
	}
	if c := o.Recognition.MinConfidence; c < 0 || c > 100 {
		errs = append(errs, nodeerr.NewInvalidConfiguration("min_confidence", fmt.Errorf("must be within 0..100, got %v", c)))
	}
	if r := o.Recognition.Region; r != nil && (r.Width <= 0 || r.Height <= 0 || r.Top < 0 || r.Left < 0) {
		errs = append(errs, nodeerr.NewInvalidConfiguration("bbox", fmt.Errorf("invalid region %+v", *r)))
	}
	if o.ResizePercent <= 0 {
		errs = append(errs, nodeerr.NewInvalidConfiguration("resize_percent", fmt.Errorf("must be > 0, got %d", o.ResizePercent)))
	}
	if o.MaxConcurrency < 0 {
		errs = append(errs, nodeerr.NewInvalidConfiguration("max_concurrency", fmt.Errorf("must be >= 0, got %d", o.MaxConcurrency)))
	}
	if o.PDF.Strategy != "" && !o.PDF.Strategy.Valid() {
		errs = append(errs, nodeerr.NewInvalidConfiguration("pdf.strategy", fmt.Errorf("unknown strategy %q", o.PDF.Strategy)))
	}
	if err := pdf.ValidatePageRange(o.PDF.PageRange); err != nil {
		errs = append(errs, nodeerr.NewInvalidConfiguration("pdf.pages", err))
	}
	return errors.Join(errs...)
}
