package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/MeKo-Tech/tessnode/internal/engine"
	"github.com/MeKo-Tech/tessnode/internal/nodeerr"
	"github.com/MeKo-Tech/tessnode/internal/pdf"
	"github.com/MeKo-Tech/tessnode/internal/recognizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "eng", cfg.Engine.Language)
	assert.Equal(t, "SINGLE_BLOCK", cfg.Engine.PSM)
	assert.Equal(t, ModeOCR, cfg.Operation.Mode)
	assert.Equal(t, "words", cfg.Operation.Granularity)
	assert.Equal(t, "data", cfg.Operation.Field)
	assert.Equal(t, BBoxConfig{Width: 100, Height: 100}, cfg.Operation.BBox)
	assert.Equal(t, 100, cfg.Operation.ResizePercent)
	assert.True(t, cfg.Operation.KeepBinary)
	assert.Equal(t, "objects", cfg.PDF.Strategy)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.True(t, cfg.Output.Pretty)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "boxes mode", modify: func(c *Config) { c.Operation.Mode = ModeBoxes; c.Operation.Granularity = "lines" }},
		{name: "numeric psm", modify: func(c *Config) { c.Engine.PSM = "11" }},
		{name: "upper case log level", modify: func(c *Config) { c.LogLevel = "DEBUG" }},
		{name: "bad log level", modify: func(c *Config) { c.LogLevel = "trace" }, wantErr: "log_level"},
		{name: "bad psm", modify: func(c *Config) { c.Engine.PSM = "COLUMNS" }, wantErr: "engine.psm"},
		{name: "negative dpi", modify: func(c *Config) { c.Engine.DPI = -1 }, wantErr: "engine.dpi"},
		{name: "bad mode", modify: func(c *Config) { c.Operation.Mode = "scan" }, wantErr: "operation.mode"},
		{name: "bad format", modify: func(c *Config) { c.Output.Format = "xml" }, wantErr: "output.format"},
		{
			name:    "bad granularity in boxes mode",
			modify:  func(c *Config) { c.Operation.Mode = ModeBoxes; c.Operation.Granularity = "glyphs" },
			wantErr: "operation.granularity",
		},
		{name: "empty language", modify: func(c *Config) { c.Engine.Language = " " }, wantErr: "language"},
		{name: "empty field", modify: func(c *Config) { c.Operation.Field = "" }, wantErr: "field"},
		{name: "negative timeout", modify: func(c *Config) { c.Operation.TimeoutMS = -5 }, wantErr: "timeout"},
		{name: "confidence above 100", modify: func(c *Config) { c.Operation.MinConfidence = 101 }, wantErr: "min_confidence"},
		{name: "zero resize", modify: func(c *Config) { c.Operation.ResizePercent = 0 }, wantErr: "resize_percent"},
		{
			name:    "empty bbox",
			modify:  func(c *Config) { c.Operation.BBox = BBoxConfig{Enabled: true} },
			wantErr: "bbox",
		},
		{name: "disabled empty bbox", modify: func(c *Config) { c.Operation.BBox = BBoxConfig{} }},
		{name: "bad strategy", modify: func(c *Config) { c.PDF.Strategy = "scan" }, wantErr: "pdf.strategy"},
		{name: "bad pages", modify: func(c *Config) { c.PDF.Pages = "3-1" }, wantErr: "pdf.pages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, nodeerr.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToPipelineOptions(t *testing.T) {
	t.Run("ocr mode", func(t *testing.T) {
		opts, err := DefaultConfig().ToPipelineOptions()
		require.NoError(t, err)

		assert.Equal(t, "eng", opts.Language)
		assert.Equal(t, engine.Parameters{engine.ParamPageSegMode: "6"}, opts.Parameters)
		assert.Equal(t, recognizer.GranularityText, opts.Recognition.Granularity)
		assert.Nil(t, opts.Recognition.Region)
		assert.Zero(t, opts.Recognition.Timeout)
		assert.Nil(t, opts.PDF.Credentials)
		assert.Equal(t, pdf.StrategyObjects, opts.PDF.Strategy)
		assert.True(t, opts.KeepBinary)
	})

	t.Run("boxes mode with everything set", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Engine = EngineConfig{
			Language:  "eng+deu",
			PSM:       "sparse_text",
			DPI:       300,
			Whitelist: "0123456789",
			Blacklist: "|",
		}
		cfg.Operation.Mode = ModeBoxes
		cfg.Operation.Granularity = "Lines"
		cfg.Operation.BBox = BBoxConfig{Enabled: true, Top: 1, Left: 2, Width: 30, Height: 40}
		cfg.Operation.TimeoutMS = 250
		cfg.Operation.MinConfidence = 60
		cfg.Operation.ContinueOnFail = true
		cfg.Operation.MaxConcurrency = 3
		cfg.PDF = PDFConfig{Strategy: "PAGES", Pages: "1-2", UserPassword: "secret"}

		opts, err := cfg.ToPipelineOptions()
		require.NoError(t, err)
		require.NoError(t, opts.Validate())

		assert.Equal(t, "eng+deu", opts.Language)
		assert.Equal(t, engine.Parameters{
			engine.ParamPageSegMode:   "11",
			engine.ParamUserDPI:       "300",
			engine.ParamCharWhitelist: "0123456789",
			engine.ParamCharBlacklist: "|",
		}, opts.Parameters)
		assert.Equal(t, recognizer.GranularityLines, opts.Recognition.Granularity)
		assert.Equal(t, &engine.Rectangle{Top: 1, Left: 2, Width: 30, Height: 40}, opts.Recognition.Region)
		assert.Equal(t, 250*time.Millisecond, opts.Recognition.Timeout)
		assert.InDelta(t, 60, opts.Recognition.MinConfidence, 1e-9)
		assert.True(t, opts.ContinueOnFail)
		assert.Equal(t, 3, opts.MaxConcurrency)
		assert.Equal(t, pdf.StrategyPages, opts.PDF.Strategy)
		assert.Equal(t, "1-2", opts.PDF.PageRange)
		assert.Equal(t, &pdf.PasswordCredentials{UserPassword: "secret"}, opts.PDF.Credentials)
	})

	t.Run("granularity is ignored in ocr mode", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Operation.Granularity = "glyphs"
		opts, err := cfg.ToPipelineOptions()
		require.NoError(t, err)
		assert.Equal(t, recognizer.GranularityText, opts.Recognition.Granularity)
	})
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level   string
		verbose bool
		want    slog.Level
	}{
		{"info", false, slog.LevelInfo},
		{"debug", false, slog.LevelDebug},
		{"WARN", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"error", true, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.level, Verbose: tt.verbose}
			assert.Equal(t, tt.want, cfg.SlogLevel())
		})
	}
}
