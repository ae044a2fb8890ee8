//go:build !notesseract

package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/MeKo-Tech/tessnode/internal/engine"
)

// NewFactory returns a factory creating gosseract-backed workers.
func NewFactory(opts Options) engine.Factory {
	return func(ctx context.Context, language string) (engine.Worker, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		client := gosseract.NewClient()
		if opts.TessdataPrefix != "" {
			if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("set tessdata prefix: %w", err)
			}
		}
		if err := client.SetLanguage(splitLanguages(language)...); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set language %q: %w", language, err)
		}
		// Character boxes are needed for symbol granularity.
		if err := client.SetVariable("hocr_char_boxes", "1"); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("enable hOCR char boxes: %w", err)
		}
		return &Worker{client: client, logger: opts.logger().With("component", "tesseract", "language", language)}, nil
	}
}

func splitLanguages(language string) []string {
	var langs []string
	for _, l := range strings.Split(language, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return langs
}

// Worker wraps one gosseract client. The client is not safe for concurrent
// use, so recognitions are serialized. cgo calls cannot be interrupted: a
// worker terminated while busy closes its client once the running call
// returns.
type Worker struct {
	runMu  sync.Mutex
	client *gosseract.Client
	logger *slog.Logger

	stateMu    sync.Mutex
	busy       bool
	terminated bool
	closed     bool
}

// SetParameters applies engine variables. Page segmentation mode and
// character lists go through their dedicated setters.
func (w *Worker) SetParameters(params engine.Parameters) error {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if w.isTerminated() {
		return engine.ErrTerminated
	}

	for key, value := range params {
		var err error
		switch key {
		case engine.ParamPageSegMode:
			var mode int
			mode, err = strconv.Atoi(value)
			if err == nil {
				err = w.client.SetPageSegMode(gosseract.PageSegMode(mode))
			}
		case engine.ParamCharWhitelist:
			err = w.client.SetWhitelist(value)
		case engine.ParamCharBlacklist:
			err = w.client.SetBlacklist(value)
		default:
			err = w.client.SetVariable(gosseract.SettableVariable(key), value)
		}
		if err != nil {
			return fmt.Errorf("set %s=%q: %w", key, value, err)
		}
	}
	return nil
}

// Recognize runs Tesseract on image. ctx is checked before the engine is
// entered; an in-flight call runs to completion.
func (w *Worker) Recognize(ctx context.Context, image []byte, opts engine.RecognizeOptions) (*engine.Page, error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if err := w.begin(); err != nil {
		return nil, err
	}
	defer w.end()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, offset, err := engine.CropRegion(image, opts.Region)
	if err != nil {
		return nil, fmt.Errorf("restrict to region: %w", err)
	}
	if err := w.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	var page *engine.Page
	switch opts.Output {
	case engine.OutputBlocks:
		page, err = w.blocks()
	default:
		page, err = w.text()
	}
	if err != nil {
		return nil, err
	}
	page.Offset(offset.X, offset.Y)
	return page, nil
}

func (w *Worker) text() (*engine.Page, error) {
	text, err := w.client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	boxes, err := w.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("word confidences: %w", err)
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	page := &engine.Page{Text: text}
	if len(boxes) > 0 {
		page.Confidence = sum / float64(len(boxes))
	}
	return page, nil
}

func (w *Worker) blocks() (*engine.Page, error) {
	hocr, err := w.client.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("recognize hOCR: %w", err)
	}
	return engine.ParseHOCR(strings.NewReader(hocr))
}

// Terminate marks the worker dead and releases the client, immediately or
// after the in-flight recognition.
func (w *Worker) Terminate() error {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	if w.terminated {
		return nil
	}
	w.terminated = true
	if w.busy {
		w.logger.Debug("Deferring client close until recognition returns")
		return nil
	}
	w.closed = true
	return w.client.Close()
}

func (w *Worker) isTerminated() bool {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return w.terminated
}

func (w *Worker) begin() error {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	if w.terminated {
		return engine.ErrTerminated
	}
	w.busy = true
	return nil
}

func (w *Worker) end() {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	w.busy = false
	if w.terminated && !w.closed {
		w.closed = true
		if err := w.client.Close(); err != nil {
			w.logger.Warn("Failed to close terminated client", "error", err)
		}
	}
}
