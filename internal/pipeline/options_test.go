package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tessnode/internal/engine"
	"github.com/MeKo-Tech/tessnode/internal/engine/enginetest"
	"github.com/MeKo-Tech/tessnode/internal/nodeerr"
	"github.com/MeKo-Tech/tessnode/internal/pdf"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantKey string
	}{
		{"defaults", func(*Options) {}, ""},
		{"empty language", func(o *Options) { o.Language = "" }, "language"},
		{"empty field", func(o *Options) { o.Field = "" }, "field"},
		{"bad granularity", func(o *Options) { o.Recognition.Granularity = "pages" }, "granularity"},
		{"negative timeout", func(o *Options) { o.Recognition.Timeout = -time.Second }, "timeout"},
		{"confidence too high", func(o *Options) { o.Recognition.MinConfidence = 101 }, "min_confidence"},
		{"empty region", func(o *Options) { o.Recognition.Region = &engine.Rectangle{Width: 0, Height: 5} }, "bbox"},
		{"zero resize", func(o *Options) { o.ResizePercent = 0 }, "resize_percent"},
		{"negative concurrency", func(o *Options) { o.MaxConcurrency = -1 }, "max_concurrency"},
		{"bad strategy", func(o *Options) { o.PDF.Strategy = "render" }, "pdf.strategy"},
		{"bad page range", func(o *Options) { o.PDF.PageRange = "3-1" }, "pdf.pages"},
		{"pages strategy", func(o *Options) { o.PDF.Strategy = pdf.StrategyPages; o.PDF.PageRange = "1-2" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, nodeerr.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}

func TestBuilderRequiresEngine(t *testing.T) {
	_, err := NewBuilder().Build()
	assert.Error(t, err)

	opts := DefaultOptions()
	opts.Language = ""
	_, err = NewBuilder().WithOptions(opts).WithEngine(enginetest.New(nil).Factory()).Build()
	assert.ErrorIs(t, err, nodeerr.ErrInvalidConfiguration)
}

func TestBuilderDefaults(t *testing.T) {
	p, err := NewBuilder().WithEngine(enginetest.New(nil).Factory()).Build()
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), p.Options())
}
