package recognizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/tessnode/internal/engine"
	"github.com/MeKo-Tech/tessnode/internal/metrics"
)

var errHandleClosed = errors.New("recognizer: engine handle closed")

// Handle owns the single engine worker shared by one invocation. The worker
// is created lazily and configured once per creation.
//
// Terminate is the degraded-recovery path for timeouts: the engine has no
// finer cancellation primitive, so the whole worker is killed and the next
// Acquire builds a new one.
type Handle struct {
	factory  engine.Factory
	language string
	params   engine.Parameters
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu         sync.Mutex
	worker     engine.Worker
	generation uint64
	closed     bool
}

// Lease is a worker handed out by Acquire, tagged with the generation it
// belongs to.
type Lease struct {
	Worker     engine.Worker
	generation uint64
}

// NewHandle returns a handle that creates workers for language and applies
// params to each of them.
func NewHandle(factory engine.Factory, language string, params engine.Parameters, logger *slog.Logger, m *metrics.Metrics) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		factory:  factory,
		language: language,
		params:   params,
		logger:   logger,
		metrics:  m,
	}
}

// Open creates the worker eagerly so configuration errors surface before
// any concurrent work starts.
func (h *Handle) Open(ctx context.Context) error {
	_, err := h.Acquire(ctx)
	return err
}

// Acquire returns the current worker, creating it if needed.
func (h *Handle) Acquire(ctx context.Context) (Lease, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return Lease{}, errHandleClosed
	}
	if h.worker != nil {
		return Lease{Worker: h.worker, generation: h.generation}, nil
	}

	w, err := h.factory(ctx, h.language)
	if err != nil {
		return Lease{}, fmt.Errorf("create engine worker for %q: %w", h.language, err)
	}
	if err := w.SetParameters(h.params); err != nil {
		_ = w.Terminate()
		return Lease{}, fmt.Errorf("configure engine worker: %w", err)
	}
	h.worker = w
	h.generation++
	h.metrics.EngineCreated()
	h.logger.Debug("Engine worker created", "language", h.language, "generation", h.generation)
	return Lease{Worker: w, generation: h.generation}, nil
}

// Terminate kills the leased worker unless it has already been replaced.
// It reports whether this call terminated it.
func (h *Handle) Terminate(lease Lease, reason string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.worker == nil || lease.generation != h.generation {
		return false
	}
	h.worker = nil
	h.metrics.EngineTerminated()
	h.logger.Warn("Terminating engine worker", "reason", reason, "generation", lease.generation)
	if err := lease.Worker.Terminate(); err != nil {
		h.logger.Warn("Engine worker termination failed", "error", err)
	}
	return true
}

// Close releases the current worker. The handle cannot be used afterwards.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.worker == nil {
		return nil
	}
	w := h.worker
	h.worker = nil
	return w.Terminate()
}
