// Package pdf enumerates the raster images embedded in a PDF document and
// normalizes them for recognition.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"github.com/MeKo-Tech/tessnode/internal/metrics"
	"github.com/MeKo-Tech/tessnode/internal/nodeerr"
	"github.com/MeKo-Tech/tessnode/internal/raster"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
)

// Strategy selects how images are discovered.
type Strategy string

const (
	// StrategyObjects walks every indirect object of the document.
	StrategyObjects Strategy = "objects"
	// StrategyPages follows the paint operators of each page's content.
	StrategyPages Strategy = "pages"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyObjects || s == StrategyPages
}

// Options configures an Extractor.
type Options struct {
	Strategy    Strategy
	PageRange   string
	Credentials *PasswordCredentials
	// Workers bounds concurrent normalization; 0 uses GOMAXPROCS.
	Workers int
}

// SourceObject is one raw image object discovered in a document.
type SourceObject struct {
	ObjectNumber int
	Generation   int
	// Page is the 1-indexed page the image was first painted on, or 0 when
	// found by walking the object graph.
	Page     int
	SoftMask int
	Source   *raster.Source
}

// Image is a normalized image extracted from a document.
type Image struct {
	raster.Image
	Name         string
	ObjectNumber int
	Page         int
}

// Extractor enumerates and normalizes the images of PDF documents.
type Extractor struct {
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewExtractor creates an extractor. A nil logger uses slog.Default().
func NewExtractor(opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyObjects
	}
	return &Extractor{opts: opts, logger: logger}
}

// WithMetrics records skipped images on m.
func (e *Extractor) WithMetrics(m *metrics.Metrics) *Extractor {
	e.metrics = m
	return e
}

// Enumerate parses data and returns every top-level image object in
// discovery order. Objects referenced as another image's soft mask are
// excluded; they are attached to their owner's Source instead.
func (e *Extractor) Enumerate(ctx context.Context, data []byte, name string) ([]SourceObject, error) {
	pdfCtx, err := e.open(data, name)
	if err != nil {
		return nil, err
	}
	w := &walker{ctx: pdfCtx, name: name, logger: e.logger}

	var objs []SourceObject
	switch e.opts.Strategy {
	case StrategyPages:
		pages, perr := parsePageRange(e.opts.PageRange)
		if perr != nil {
			return nil, nodeerr.NewInvalidConfiguration("pdf.pages", perr)
		}
		objs, err = w.byPages(ctx, pages)
	case StrategyObjects:
		objs, err = w.byObjects(ctx)
	default:
		return nil, nodeerr.NewInvalidConfiguration("pdf.strategy", fmt.Errorf("unknown strategy %q", e.opts.Strategy))
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Enumerated PDF images",
		"document", name,
		"strategy", e.opts.Strategy,
		"images", len(objs))
	return objs, nil
}

// Extract enumerates the images of data and normalizes each one. Images
// that cannot be normalized are skipped with a warning.
func (e *Extractor) Extract(ctx context.Context, data []byte, name string) ([]Image, error) {
	objs, err := e.Enumerate(ctx, data, name)
	if err != nil {
		return nil, err
	}

	results := make([]*Image, len(objs))
	g, gctx := errgroup.WithContext(ctx)
	workers := e.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for i, obj := range objs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, nerr := raster.Normalize(obj.Source)
			if nerr != nil {
				e.skip(obj, nerr)
				return nil
			}
			if img.MaskErr != nil {
				e.logger.Warn("Soft mask ignored", "image", obj.Source.Name, "error", img.MaskErr)
			}
			results[i] = &Image{Image: img, Name: obj.Source.Name, ObjectNumber: obj.ObjectNumber, Page: obj.Page}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Image, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (e *Extractor) skip(obj SourceObject, err error) {
	reason := string(nodeerr.CodeOf(err))
	if reason == "" {
		reason = "decode_error"
	}
	e.logger.Warn("Skipping PDF image",
		"image", obj.Source.Name,
		"object", obj.ObjectNumber,
		"reason", reason,
		"error", err)
	e.metrics.ImageSkipped(reason)
}

func (e *Extractor) open(data []byte, name string) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), readConfiguration(e.opts.Credentials))
	if err != nil {
		if isEncryptionError(err) && e.opts.Credentials.Empty() {
			err = fmt.Errorf("document is encrypted, set pdf.user_password: %w", err)
		}
		return nil, nodeerr.NewInvalidPDF(name, err)
	}
	return ctx, nil
}

// byObjects keeps every image stream in ascending object order, minus those
// used as soft masks.
func (w *walker) byObjects(ctx context.Context) ([]SourceObject, error) {
	nums := make([]int, 0, len(w.ctx.Table))
	for n := range w.ctx.Table {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	masks := map[int]bool{}
	var candidates []objectRef
	for _, n := range nums {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := w.ctx.Table[n]
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		d, ok := streamDict(entry.Object)
		if !ok || !isImage(d) {
			continue
		}
		gen := 0
		if entry.Generation != nil {
			gen = *entry.Generation
		}
		candidates = append(candidates, objectRef{number: n, generation: gen})
		if ref := indirectRef(d["SMask"]); ref != nil {
			masks[ref.ObjectNumber.Value()] = true
		}
	}

	out := make([]SourceObject, 0, len(candidates))
	for _, c := range candidates {
		if masks[c.number] {
			continue
		}
		obj, err := w.sourceObject(c, 0, fmt.Sprintf("%s#obj%d", w.name, c.number))
		if err != nil {
			w.logger.Warn("Skipping PDF image", "document", w.name, "object", c.number, "error", err)
			continue
		}
		out = append(out, obj)
	}
	return out, nil
}

var errNotImage = errors.New("not an image XObject")
