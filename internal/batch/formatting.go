package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/tessnode/internal/items"
)

// FormatOutputs renders outputs as a JSON or YAML document.
func FormatOutputs(outputs []items.Output, format string, pretty bool) ([]byte, error) {
	if outputs == nil {
		outputs = []items.Output{}
	}
	switch strings.ToLower(format) {
	case "", "json":
		return formatJSON(outputs, pretty)
	case "yaml":
		return formatYAML(outputs)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

func formatJSON(outputs []items.Output, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(outputs, "", "  ")
	} else {
		data, err = json.Marshal(outputs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// formatYAML goes through the JSON form so attachments stay base64 strings
// and keys match the JSON output.
func formatYAML(outputs []items.Output) ([]byte, error) {
	raw, err := json.Marshal(outputs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode outputs: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to decode outputs: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteOutputs writes the formatted outputs to file, or to w when file is
// empty.
func WriteOutputs(w io.Writer, file string, outputs []items.Output, format string, pretty bool) error {
	data, err := FormatOutputs(outputs, format, pretty)
	if err != nil {
		return err
	}
	if file != "" {
		if err := os.WriteFile(file, data, 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err = w.Write(data)
	return err
}

// StripPayloads drops attachment data from outputs, keeping mime type and
// file name. Used when only the recognized text is of interest.
func StripPayloads(outputs []items.Output) []items.Output {
	out := make([]items.Output, len(outputs))
	for i, o := range outputs {
		o.Binary = stripBinaries(o.Binary)
		out[i] = o
	}
	return out
}

func stripBinaries(in map[string]items.Binary) map[string]items.Binary {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]items.Binary, len(in))
	for k, v := range in {
		v.Data = nil
		out[k] = v
	}
	return out
}
