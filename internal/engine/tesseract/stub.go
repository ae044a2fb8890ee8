//go:build notesseract

package tesseract

import (
	"context"

	"github.com/MeKo-Tech/tessnode/internal/engine"
)

// NewFactory returns a factory that always fails with engine.ErrNoEngine.
func NewFactory(_ Options) engine.Factory {
	return func(context.Context, string) (engine.Worker, error) {
		return nil, engine.ErrNoEngine
	}
}
