package recognizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/MeKo-Tech/tessnode/internal/engine"
)

// Granularity selects plain text or one level of the box tree.
type Granularity string

const (
	GranularityText       Granularity = "text"
	GranularityParagraphs Granularity = "paragraphs"
	GranularityLines      Granularity = "lines"
	GranularityWords      Granularity = "words"
	GranularitySymbols    Granularity = "symbols"
)

// ParseGranularity accepts the level names case-insensitively. An empty
// string means words.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GranularityWords, nil
	case GranularityText, GranularityParagraphs, GranularityLines, GranularityWords, GranularitySymbols:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (valid: text, paragraphs, lines, words, symbols)", s)
	}
}

// Options configures the recognition of one image.
type Options struct {
	Region        *engine.Rectangle
	Timeout       time.Duration
	Granularity   Granularity
	MinConfidence float64
}

func (o Options) output() engine.Output {
	if o.Granularity == GranularityText {
		return engine.OutputText
	}
	return engine.OutputBlocks
}

// Entry is one recognized element at the selected granularity.
type Entry struct {
	Text       string      `json:"text" yaml:"text"`
	Confidence float64     `json:"confidence" yaml:"confidence"`
	BBox       engine.BBox `json:"bbox" yaml:"bbox"`
	Language   string      `json:"language,omitempty" yaml:"language,omitempty"`
}

// Result is the outcome of one recognition.
type Result struct {
	// Timeout is set when the deadline fired before the engine answered.
	Timeout bool
	// Dropped is set in text mode when the confidence is below the minimum.
	Dropped bool

	Granularity Granularity
	Text        string
	Confidence  float64
	Blocks      []Entry
}

// JSON renders the result as output item fields.
func (r Result) JSON() map[string]any {
	switch {
	case r.Timeout:
		return map[string]any{"timeout": true}
	case r.Granularity == GranularityText:
		return map[string]any{"text": r.Text, "confidence": r.Confidence}
	default:
		blocks := r.Blocks
		if blocks == nil {
			blocks = []Entry{}
		}
		return map[string]any{"blocks": blocks}
	}
}
