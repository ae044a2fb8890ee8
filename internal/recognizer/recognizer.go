// Package recognizer runs normalized images through the shared OCR engine
// under a deadline and turns engine pages into granularity-specific results.
package recognizer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/tessnode/internal/engine"
	"github.com/MeKo-Tech/tessnode/internal/metrics"
	"github.com/MeKo-Tech/tessnode/internal/nodeerr"
	"github.com/MeKo-Tech/tessnode/internal/source"
)

// A recognition that lost its worker to a sibling's timeout is retried on
// the replacement worker this many times.
const maxAttempts = 2

// Recognizer recognizes images on a shared Handle.
type Recognizer struct {
	handle  *Handle
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New returns a Recognizer using handle.
func New(handle *Handle, logger *slog.Logger, m *metrics.Metrics) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{handle: handle, logger: logger, metrics: m}
}

type outcome struct {
	page *engine.Page
	err  error
}

// Recognize runs one image. When opts.Timeout elapses first, the worker is
// terminated and a Timeout result is returned without error. Cancellation
// of ctx itself is returned as ctx.Err().
func (r *Recognizer) Recognize(ctx context.Context, img source.Image, opts Options) (Result, error) {
	if opts.Granularity == "" {
		opts.Granularity = GranularityWords
	}
	rctx, cancel := ctx, context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		rctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	defer cancel()

	start := time.Now()
	page, err := r.run(ctx, rctx, img, opts)
	r.metrics.ObserveRecognition(string(opts.Granularity), time.Since(start))

	switch {
	case err == nil:
	case ctx.Err() != nil:
		return Result{}, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		r.logger.Warn("Recognition timed out", "image", img.Name, "timeout", opts.Timeout)
		return Result{Timeout: true, Granularity: opts.Granularity}, nil
	default:
		return Result{}, nodeerr.NewRecognitionFailed(img.Name, err)
	}

	return Build(page, opts), nil
}

// run races the engine call against rctx. On expiry the worker is
// terminated while the call may still be running.
func (r *Recognizer) run(ctx, rctx context.Context, img source.Image, opts Options) (*engine.Page, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lease, err := r.handle.Acquire(ctx)
		if err != nil {
			return nil, err
		}

		done := make(chan outcome, 1)
		go func() {
			page, err := lease.Worker.Recognize(rctx, img.Data, engine.RecognizeOptions{
				Region: opts.Region,
				Output: opts.output(),
			})
			done <- outcome{page: page, err: err}
		}()

		select {
		case <-rctx.Done():
			if errors.Is(rctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				r.handle.Terminate(lease, "recognition of "+img.Name+" exceeded "+opts.Timeout.String())
			}
			return nil, rctx.Err()
		case res := <-done:
			if res.err == nil {
				return res.page, nil
			}
			if errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
				r.handle.Terminate(lease, "engine reported deadline for "+img.Name)
				return nil, res.err
			}
			if !errors.Is(res.err, engine.ErrTerminated) {
				return nil, res.err
			}
			r.logger.Debug("Worker terminated during recognition, retrying", "image", img.Name, "attempt", attempt+1)
			lastErr = res.err
		}
	}
	return nil, lastErr
}

// Build turns an engine page into a Result for opts. It is pure: page is
// not modified.
func Build(page *engine.Page, opts Options) Result {
	if page == nil {
		page = &engine.Page{}
	}
	res := Result{Granularity: opts.Granularity}
	if opts.Granularity == GranularityText {
		res.Text = CleanText(page.Text)
		res.Confidence = page.Confidence
		res.Dropped = !Retain(res, opts.MinConfidence)
		return res
	}
	res.Blocks = FilterEntries(Flatten(page).Select(opts.Granularity), opts.MinConfidence)
	return res
}
