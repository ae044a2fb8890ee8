package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/tessnode/internal/items"
	"github.com/MeKo-Tech/tessnode/internal/metrics"
	"github.com/MeKo-Tech/tessnode/internal/nodeerr"
	"github.com/MeKo-Tech/tessnode/internal/pdf"
	"github.com/MeKo-Tech/tessnode/internal/recognizer"
	"github.com/MeKo-Tech/tessnode/internal/source"
)

// ItemError reports the input item that stopped an invocation.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string { return fmt.Sprintf("item %d: %v", e.Index, e.Err) }

func (e *ItemError) Unwrap() error { return e.Err }

// Invocation is one run over a set of input items with its own engine
// worker. It is not safe for concurrent use.
type Invocation struct {
	ID string

	opts       Options
	inputs     []items.Item
	resolver   *source.Resolver
	handle     *recognizer.Handle
	recognizer *recognizer.Recognizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	progress   ProgressCallback
	summary    Summary
}

// Execute processes inputs sequentially and returns all outputs in input
// order. With ContinueOnFail a failed item contributes its partial outputs
// plus an error output; otherwise the first failure aborts with *ItemError.
func (p *Pipeline) Execute(ctx context.Context, inputs []items.Item) ([]items.Output, error) {
	inv, err := p.Start(ctx, inputs)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := inv.Close(); err != nil {
			inv.logger.Warn("Closing engine worker failed", "error", err)
		}
	}()
	return inv.Run(ctx)
}

// Start prepares an invocation and creates its engine worker.
func (p *Pipeline) Start(ctx context.Context, inputs []items.Item) (*Invocation, error) {
	id := uuid.NewString()
	logger := p.logger.With("execution_id", id)

	extractor := pdf.NewExtractor(p.opts.PDF, logger).WithMetrics(p.metrics)
	handle := recognizer.NewHandle(p.factory, p.opts.Language, p.opts.Parameters, logger, p.metrics)
	if err := handle.Open(ctx); err != nil {
		return nil, err
	}

	return &Invocation{
		ID:         id,
		opts:       p.opts,
		inputs:     inputs,
		resolver:   source.NewResolver(items.NewMemoryStore(inputs), extractor, p.opts.ResizePercent, logger),
		handle:     handle,
		recognizer: recognizer.New(handle, logger, p.metrics),
		logger:     logger,
		metrics:    p.metrics,
		progress:   p.progress,
		summary:    Summary{ExecutionID: id, Items: len(inputs)},
	}, nil
}

// Close releases the engine worker.
func (inv *Invocation) Close() error { return inv.handle.Close() }

// Summary returns the counters of the run so far.
func (inv *Invocation) Summary() Summary { return inv.summary }

// Run processes every input item.
func (inv *Invocation) Run(ctx context.Context) ([]items.Output, error) {
	start := time.Now()
	total := len(inv.inputs)
	inv.progress.OnStart(total)
	defer func() {
		inv.summary.Elapsed = time.Since(start)
		inv.progress.OnComplete(inv.summary)
	}()

	var out []items.Output
	for i := range inv.inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outputs, err := inv.ProcessItem(ctx, i)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		out = append(out, outputs...)
		inv.summary.Outputs += len(outputs)

		if err != nil {
			inv.summary.Failed++
			inv.progress.OnError(i, err)
			if !inv.opts.ContinueOnFail {
				inv.metrics.ItemProcessed("failed")
				return nil, &ItemError{Index: i, Err: err}
			}
			inv.metrics.ItemProcessed("continued")
			inv.logger.Warn("Item failed, continuing", "item", i, "error", err)
			out = append(out, inv.errorOutput(i, err))
			inv.summary.Outputs++
		} else {
			inv.metrics.ItemProcessed("ok")
		}
		inv.progress.OnProgress(i+1, total)
	}
	return out, nil
}

func (inv *Invocation) errorOutput(index int, err error) items.Output {
	item := inv.inputs[index]
	return items.Output{
		JSON:       items.CloneJSON(item.JSON),
		Binary:     items.CloneBinaries(item.Binary),
		PairedItem: items.PairedItem{Item: index},
		Error:      nodeerr.From(err).WithItemIndex(index).ToMap(),
	}
}

type slot struct {
	image  source.Image
	result recognizer.Result
	err    error
}

// ProcessItem recognizes every image of item index concurrently and
// returns the outputs in discovery order. Outputs of successful images are
// returned even when the item fails: a TIMEOUT error if any image timed
// out, or the first recognition error.
func (inv *Invocation) ProcessItem(ctx context.Context, index int) ([]items.Output, error) {
	images, err := inv.resolver.Resolve(ctx, index, inv.opts.Field)
	if err != nil {
		return nil, bindIndex(err, index)
	}
	inv.logger.Debug("Recognizing item", "item", index, "images", len(images))

	slots := make([]slot, len(images))
	var g errgroup.Group
	if inv.opts.MaxConcurrency > 0 {
		g.SetLimit(inv.opts.MaxConcurrency)
	}
	for i, img := range images {
		slots[i].image = img
		g.Go(func() error {
			slots[i].result, slots[i].err = inv.recognizer.Recognize(ctx, img, inv.opts.Recognition)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	item := inv.inputs[index]
	outputs := make([]items.Output, 0, len(slots))
	var firstErr error
	timedOut := 0
	for _, s := range slots {
		kind := string(s.image.Kind)
		switch {
		case s.err != nil:
			inv.metrics.ImageProcessed(kind, "error")
			inv.logger.Warn("Recognition failed", "item", index, "image", s.image.Name, "error", s.err)
			if firstErr == nil {
				firstErr = s.err
			}
			continue
		case s.result.Dropped:
			inv.metrics.ImageProcessed(kind, "dropped")
			inv.logger.Debug("Dropping low-confidence result", "item", index, "image", s.image.Name,
				"confidence", s.result.Confidence, "min_confidence", inv.opts.Recognition.MinConfidence)
			continue
		case s.result.Timeout:
			inv.metrics.ImageProcessed(kind, "timeout")
			timedOut++
		default:
			inv.metrics.ImageProcessed(kind, "ok")
		}
		outputs = append(outputs, inv.output(index, item, s))
	}

	if firstErr != nil {
		return outputs, bindIndex(firstErr, index)
	}
	if timedOut > 0 {
		return outputs, nodeerr.NewTimeout(timedOut, len(images)).WithItemIndex(index)
	}
	return outputs, nil
}

func (inv *Invocation) output(index int, item items.Item, s slot) items.Output {
	binary := items.CloneBinaries(item.Binary)
	if inv.opts.KeepBinary {
		if binary == nil {
			binary = make(map[string]items.Binary, 1)
		}
		binary[items.OCRField] = items.Binary{Data: s.image.Data, MimeType: s.image.MimeType, FileName: s.image.Name}
	}
	return items.Output{
		JSON:       s.result.JSON(),
		Binary:     binary,
		PairedItem: items.PairedItem{Item: index},
	}
}

func bindIndex(err error, index int) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nodeerr.From(err).WithItemIndex(index)
}
