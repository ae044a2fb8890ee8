package engine

import (
	"context"
	"errors"
)

var (
	// ErrTerminated is returned by a worker that has been terminated.
	ErrTerminated = errors.New("engine: worker terminated")
	// ErrNoEngine is returned when no OCR engine is linked into the binary.
	ErrNoEngine = errors.New("engine: no OCR engine linked; build without -tags=notesseract")
)

// Engine parameter keys understood by SetParameters.
const (
	ParamPageSegMode   = "tessedit_pageseg_mode"
	ParamCharWhitelist = "tessedit_char_whitelist"
	ParamCharBlacklist = "tessedit_char_blacklist"
	ParamUserDPI       = "user_defined_dpi"
)

// Parameters are engine options keyed by engine variable name.
type Parameters map[string]string

// Output selects what Recognize produces.
type Output int

const (
	// OutputText produces page text and mean confidence only.
	OutputText Output = iota
	// OutputBlocks additionally produces the block tree.
	OutputBlocks
)

// Rectangle restricts recognition to a region of the image, in pixels.
type Rectangle struct {
	Top    int `json:"top" yaml:"top"`
	Left   int `json:"left" yaml:"left"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// RecognizeOptions configures a single recognition.
type RecognizeOptions struct {
	Region *Rectangle
	Output Output
}

// Worker is one OCR engine instance.
//
// SetParameters is called before any concurrent use. Recognize must honour
// ctx where the engine allows it. Terminate aborts the worker: later calls
// fail with ErrTerminated and a new worker has to be created.
type Worker interface {
	SetParameters(params Parameters) error
	Recognize(ctx context.Context, image []byte, opts RecognizeOptions) (*Page, error)
	Terminate() error
}

// Factory creates a worker for the given language, e.g. "eng" or "eng+deu".
type Factory func(ctx context.Context, language string) (Worker, error)
