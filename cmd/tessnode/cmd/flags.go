package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/tessnode/internal/engine"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"verbose":   "verbose",
	"log-level": "log_level",

	"language":        "engine.language",
	"psm":             "engine.psm",
	"dpi":             "engine.dpi",
	"whitelist":       "engine.whitelist",
	"blacklist":       "engine.blacklist",
	"tessdata-prefix": "engine.tessdata_prefix",

	"mode":             "operation.mode",
	"granularity":      "operation.granularity",
	"field":            "operation.field",
	"timeout-ms":       "operation.timeout_ms",
	"resize-percent":   "operation.resize_percent",
	"keep-binary":      "operation.keep_binary",
	"min-confidence":   "operation.min_confidence",
	"continue-on-fail": "operation.continue_on_fail",
	"max-concurrency":  "operation.max_concurrency",

	"pdf-strategy":       "pdf.strategy",
	"pages":              "pdf.pages",
	"pdf-password":       "pdf.user_password",
	"pdf-owner-password": "pdf.owner_password",

	"format":       "output.format",
	"output":       "output.file",
	"pretty":       "output.pretty",
	"metrics-file": "output.metrics_file",
}

// bindFlags binds the flags present on cmd to their configuration keys and
// expands --bbox into the operation.bbox keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("bind flag --%s: %w", f.Name, err)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	if f := cmd.Flags().Lookup("bbox"); f != nil && f.Changed {
		rect, err := parseBBox(f.Value.String())
		if err != nil {
			return fmt.Errorf("invalid --bbox: %w", err)
		}
		v.Set("operation.bbox.enabled", true)
		v.Set("operation.bbox.top", rect.Top)
		v.Set("operation.bbox.left", rect.Left)
		v.Set("operation.bbox.width", rect.Width)
		v.Set("operation.bbox.height", rect.Height)
	}
	return nil
}

// parseBBox parses "top,left,width,height".
func parseBBox(s string) (engine.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return engine.Rectangle{}, fmt.Errorf("expected top,left,width,height, got %q", s)
	}
	var vals [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return engine.Rectangle{}, fmt.Errorf("parse %q: %w", p, err)
		}
		vals[i] = n
	}
	return engine.Rectangle{Top: vals[0], Left: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// addEngineFlags registers the engine and operation flags shared by the
// recognition commands.
func addEngineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("language", "l", "eng", "engine languages joined by '+', e.g. eng+deu")
	f.String("psm", engine.DefaultPageSegMode, "page segmentation mode: "+strings.Join(engine.PageSegModeNames(), ", "))
	f.Int("dpi", 0, "resolution hint for the engine (0 lets the engine guess)")
	f.String("whitelist", "", "only recognize these characters")
	f.String("blacklist", "", "never recognize these characters")
	f.String("tessdata-prefix", "", "directory holding *.traineddata files")

	f.String("mode", "ocr", "ocr for plain text or boxes for structured entries")
	f.String("granularity", "words", "box level in boxes mode: paragraphs, lines, words, symbols")
	f.String("field", "data", "binary field holding the image or PDF")
	f.String("bbox", "", "restrict recognition to top,left,width,height")
	f.Int("timeout-ms", 0, "per-image recognition timeout in milliseconds (0 disables)")
	f.Int("resize-percent", 100, "scale image inputs by this percentage")
	f.Bool("keep-binary", true, "attach the recognized image as binary field 'ocr'")
	f.Float64("min-confidence", 0, "drop text results below this confidence (0-100)")
	f.Bool("continue-on-fail", false, "emit an error output and continue when an item fails")
	f.Int("max-concurrency", 0, "concurrent recognitions per item (0 is unbounded)")

	f.String("pdf-strategy", "objects", "PDF image discovery: objects or pages")
	f.String("pages", "", "PDF page range for the pages strategy, e.g. 1-3,5")
	f.String("pdf-password", "", "PDF user password")
	f.String("pdf-owner-password", "", "PDF owner password")
}

// addOutputFlags registers the flags controlling result rendering.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("format", "f", "json", "output format: json or yaml")
	f.StringP("output", "o", "", "write results to this file instead of stdout")
	f.Bool("pretty", true, "indent JSON output")
	f.String("metrics-file", "", "write Prometheus metrics in textfile format to this path")
}
