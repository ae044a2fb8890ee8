// Package enginetest provides an in-memory engine.Worker for tests that must
// not depend on a Tesseract installation.
package enginetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/tessnode/internal/engine"
)

// Respond computes the page for one recognition.
type Respond func(image []byte, opts engine.RecognizeOptions) (*engine.Page, error)

// Engine is a fake OCR engine. Workers created by its Factory share its
// counters and response.
type Engine struct {
	// IgnoreContext makes recognitions sleep the whole delay.
	IgnoreContext bool
	Respond       Respond

	mu        sync.Mutex
	language  string
	params    []engine.Parameters
	createErr error

	delay      atomic.Int64
	created    atomic.Int32
	terminated atomic.Int32
	calls      atomic.Int32
}

// New returns an engine answering every recognition with a copy of page.
func New(page *engine.Page) *Engine {
	return &Engine{Respond: func([]byte, engine.RecognizeOptions) (*engine.Page, error) {
		return ClonePage(page), nil
	}}
}

// NewSlow returns an engine that takes delay per recognition.
func NewSlow(page *engine.Page, delay time.Duration) *Engine {
	e := New(page)
	e.SetDelay(delay)
	return e
}

// SetDelay sets how long every recognition takes. A cancelled context
// interrupts the wait unless IgnoreContext is set.
func (e *Engine) SetDelay(d time.Duration) { e.delay.Store(int64(d)) }

// FailCreate makes the factory fail with err.
func (e *Engine) FailCreate(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.createErr = err
}

// Factory returns an engine.Factory producing workers backed by e.
func (e *Engine) Factory() engine.Factory {
	return func(ctx context.Context, language string) (engine.Worker, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.createErr != nil {
			return nil, e.createErr
		}
		e.language = language
		e.created.Add(1)
		return &worker{engine: e}, nil
	}
}

// Created reports how many workers were created.
func (e *Engine) Created() int { return int(e.created.Load()) }

// Terminations reports how many workers were terminated.
func (e *Engine) Terminations() int { return int(e.terminated.Load()) }

// Calls reports how many recognitions were started.
func (e *Engine) Calls() int { return int(e.calls.Load()) }

// Language is the language the last worker was created with.
func (e *Engine) Language() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.language
}

// Parameters returns every SetParameters call in order.
func (e *Engine) Parameters() []engine.Parameters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.Parameters(nil), e.params...)
}

type worker struct {
	engine     *Engine
	terminated atomic.Bool
}

func (w *worker) SetParameters(params engine.Parameters) error {
	if w.terminated.Load() {
		return engine.ErrTerminated
	}
	cp := make(engine.Parameters, len(params))
	for k, v := range params {
		cp[k] = v
	}
	w.engine.mu.Lock()
	w.engine.params = append(w.engine.params, cp)
	w.engine.mu.Unlock()
	return nil
}

func (w *worker) Recognize(ctx context.Context, image []byte, opts engine.RecognizeOptions) (*engine.Page, error) {
	if w.terminated.Load() {
		return nil, engine.ErrTerminated
	}
	e := w.engine
	e.calls.Add(1)

	if delay := time.Duration(e.delay.Load()); delay > 0 {
		if e.IgnoreContext {
			time.Sleep(delay)
		} else {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}
	if w.terminated.Load() {
		return nil, engine.ErrTerminated
	}
	if e.Respond == nil {
		return nil, fmt.Errorf("enginetest: no response configured")
	}
	return e.Respond(image, opts)
}

func (w *worker) Terminate() error {
	if w.terminated.CompareAndSwap(false, true) {
		w.engine.terminated.Add(1)
	}
	return nil
}
