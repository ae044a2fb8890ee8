// Package pipeline fans input items out to their images, recognizes them on
// one shared engine worker and fans the results back into a flat output
// sequence paired with the originating items.
package pipeline

import (
	"errors"
	"log/slog"

	"github.com/MeKo-Tech/tessnode/internal/engine"
	"github.com/MeKo-Tech/tessnode/internal/metrics"
)

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	opts     Options
	factory  engine.Factory
	logger   *slog.Logger
	metrics  *metrics.Metrics
	progress ProgressCallback
}

// NewBuilder creates a builder with DefaultOptions.
func NewBuilder() *Builder {
	return &Builder{opts: DefaultOptions()}
}

// WithOptions replaces all options.
func (b *Builder) WithOptions(opts Options) *Builder {
	b.opts = opts
	return b
}

// WithEngine sets the factory for engine workers.
func (b *Builder) WithEngine(factory engine.Factory) *Builder {
	b.factory = factory
	return b
}

// WithLogger sets the logger; nil keeps slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetrics records invocation metrics on m.
func (b *Builder) WithMetrics(m *metrics.Metrics) *Builder {
	b.metrics = m
	return b
}

// WithProgress reports item progress to cb.
func (b *Builder) WithProgress(cb ProgressCallback) *Builder {
	b.progress = cb
	return b
}

// Options returns the options collected so far.
func (b *Builder) Options() Options { return b.opts }

// Build validates the configuration and returns the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.factory == nil {
		return nil, errors.New("pipeline: no engine factory configured")
	}
	if err := b.opts.Validate(); err != nil {
		return nil, err
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := b.progress
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	return &Pipeline{
		opts:     b.opts,
		factory:  b.factory,
		logger:   logger,
		metrics:  b.metrics,
		progress: progress,
	}, nil
}

// Pipeline runs invocations. It holds no per-invocation state and may be
// reused.
type Pipeline struct {
	opts     Options
	factory  engine.Factory
	logger   *slog.Logger
	metrics  *metrics.Metrics
	progress ProgressCallback
}

// Options returns the pipeline's options.
func (p *Pipeline) Options() Options { return p.opts }
