package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/tessnode/internal/engine"
	"github.com/MeKo-Tech/tessnode/internal/items"
	"github.com/MeKo-Tech/tessnode/internal/nodeerr"
	"github.com/MeKo-Tech/tessnode/internal/pdf"
	"github.com/MeKo-Tech/tessnode/internal/pipeline"
	"github.com/MeKo-Tech/tessnode/internal/recognizer"
)

// Operation modes.
const (
	ModeOCR   = "ocr"
	ModeBoxes = "boxes"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validModes     = []string{ModeOCR, ModeBoxes}
	validFormats   = []string{FormatJSON, FormatYAML}
)

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Verbose:  false,
		Engine: EngineConfig{
			Language: "eng",
			PSM:      engine.DefaultPageSegMode,
		},
		Operation: OperationConfig{
			Mode:          ModeOCR,
			Granularity:   string(recognizer.GranularityWords),
			Field:         items.DefaultField,
			BBox:          BBoxConfig{Width: 100, Height: 100},
			ResizePercent: 100,
			KeepBinary:    true,
		},
		PDF: PDFConfig{
			Strategy: string(pdf.StrategyObjects),
		},
		Output: OutputConfig{
			Format: FormatJSON,
			Pretty: true,
		},
	}
}

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(key string, err error) {
		errs = append(errs, nodeerr.NewInvalidConfiguration(key, err))
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		invalid("log_level", fmt.Errorf("must be one of %v, got %q", validLogLevels, c.LogLevel))
	}
	if _, err := engine.ParsePageSegMode(c.Engine.PSM); err != nil {
		invalid("engine.psm", err)
	}
	if c.Engine.DPI < 0 {
		invalid("engine.dpi", fmt.Errorf("must be >= 0, got %d", c.Engine.DPI))
	}
	if !slices.Contains(validModes, strings.ToLower(c.Operation.Mode)) {
		invalid("operation.mode", fmt.Errorf("must be one of %v, got %q", validModes, c.Operation.Mode))
	}
	if !slices.Contains(validFormats, strings.ToLower(c.Output.Format)) {
		invalid("output.format", fmt.Errorf("must be one of %v, got %q", validFormats, c.Output.Format))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	opts, err := c.ToPipelineOptions()
	if err != nil {
		return err
	}
	return opts.Validate()
}

// ToPipelineOptions converts the configuration into pipeline options.
func (c *Config) ToPipelineOptions() (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()

	psm, err := engine.ParsePageSegMode(c.Engine.PSM)
	if err != nil {
		return opts, nodeerr.NewInvalidConfiguration("engine.psm", err)
	}
	opts.Language = strings.TrimSpace(c.Engine.Language)
	opts.Parameters = engine.Parameters{engine.ParamPageSegMode: strconv.Itoa(psm)}
	if c.Engine.DPI > 0 {
		opts.Parameters[engine.ParamUserDPI] = strconv.Itoa(c.Engine.DPI)
	}
	if c.Engine.Whitelist != "" {
		opts.Parameters[engine.ParamCharWhitelist] = c.Engine.Whitelist
	}
	if c.Engine.Blacklist != "" {
		opts.Parameters[engine.ParamCharBlacklist] = c.Engine.Blacklist
	}

	op := c.Operation
	opts.Field = op.Field
	opts.ResizePercent = op.ResizePercent
	opts.KeepBinary = op.KeepBinary
	opts.ContinueOnFail = op.ContinueOnFail
	opts.MaxConcurrency = op.MaxConcurrency

	if strings.EqualFold(op.Mode, ModeOCR) {
		opts.Recognition.Granularity = recognizer.GranularityText
	} else {
		g, err := recognizer.ParseGranularity(op.Granularity)
		if err != nil {
			return opts, nodeerr.NewInvalidConfiguration("operation.granularity", err)
		}
		opts.Recognition.Granularity = g
	}
	if op.BBox.Enabled {
		opts.Recognition.Region = &engine.Rectangle{
			Top:    op.BBox.Top,
			Left:   op.BBox.Left,
			Width:  op.BBox.Width,
			Height: op.BBox.Height,
		}
	}
	opts.Recognition.Timeout = time.Duration(op.TimeoutMS) * time.Millisecond
	opts.Recognition.MinConfidence = op.MinConfidence

	opts.PDF = pdf.Options{
		Strategy:  pdf.Strategy(strings.ToLower(c.PDF.Strategy)),
		PageRange: c.PDF.Pages,
	}
	if c.PDF.UserPassword != "" || c.PDF.OwnerPassword != "" {
		opts.PDF.Credentials = &pdf.PasswordCredentials{
			UserPassword:  c.PDF.UserPassword,
			OwnerPassword: c.PDF.OwnerPassword,
		}
	}
	return opts, nil
}

// SlogLevel maps LogLevel to a slog level. Verbose forces debug.
func (c *Config) SlogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
