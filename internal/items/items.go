// Package items models the host's unit of work: JSON rows carrying named
// binary attachments, and the output records produced from them.
package items

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultField is the binary field read when none is configured.
const DefaultField = "data"

// OCRField is the binary field carrying the processed image on outputs.
const OCRField = "ocr"

// ErrNoBinary is returned when an item has no attachment under a field.
var ErrNoBinary = errors.New("no binary data")

// Binary is one named attachment. Data is base64 encoded on the wire.
type Binary struct {
	Data     []byte `json:"data" yaml:"data"`
	MimeType string `json:"mimeType" yaml:"mimeType"`
	FileName string `json:"fileName,omitempty" yaml:"fileName,omitempty"`
}

// Metadata describes an attachment without its payload.
type Metadata struct {
	MimeType string
	FileName string
	Size     int
}

// Item is one input row from the host.
type Item struct {
	JSON   map[string]any    `json:"json" yaml:"json"`
	Binary map[string]Binary `json:"binary,omitempty" yaml:"binary,omitempty"`
}

// PairedItem links an output back to its input index.
type PairedItem struct {
	Item int `json:"item" yaml:"item"`
}

// Output is one record emitted for an input item.
type Output struct {
	JSON       map[string]any    `json:"json" yaml:"json"`
	Binary     map[string]Binary `json:"binary,omitempty" yaml:"binary,omitempty"`
	PairedItem PairedItem        `json:"pairedItem" yaml:"pairedItem"`
	Error      map[string]any    `json:"error,omitempty" yaml:"error,omitempty"`
}

// IsImage reports whether a declared mime type is an image type.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

// IsPDF reports whether a declared mime type is a PDF.
func IsPDF(mimeType string) bool {
	return strings.EqualFold(baseMime(mimeType), "application/pdf")
}

func baseMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}

// CloneBinaries returns a shallow copy of the attachment map. Payload slices
// are shared since items are read-only during processing.
func CloneBinaries(in map[string]Binary) map[string]Binary {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]Binary, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CloneJSON returns a shallow copy of a JSON payload.
func CloneJSON(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// DecodeItems reads a JSON array of items. A single object is accepted as a
// one-element array.
func DecodeItems(r io.Reader) ([]Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var single Item
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		return []Item{single}, nil
	}
	var list []Item
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return list, nil
}
