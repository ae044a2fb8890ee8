package batch

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/tessnode/internal/items"
)

func TestLoadItems(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "a.png")
	pdf := filepath.Join(dir, "b.pdf")
	require.NoError(t, os.WriteFile(png, []byte{1, 2}, 0o600))
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o600))

	list, err := LoadItems([]string{dir}, Config{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, map[string]any{"path": png, "fileName": "a.png"}, list[0].JSON)
	assert.Equal(t, items.Binary{Data: []byte{1, 2}, MimeType: "image/png", FileName: "a.png"}, list[0].Binary[items.DefaultField])
	assert.Equal(t, "application/pdf", list[1].Binary[items.DefaultField].MimeType)

	list, err = LoadItems([]string{png}, Config{Field: "scan"})
	require.NoError(t, err)
	assert.Contains(t, list[0].Binary, "scan")
}

func TestLoadItemsNoInputs(t *testing.T) {
	_, err := LoadItems([]string{t.TempDir()}, Config{})
	assert.ErrorIs(t, err, ErrNoInputs)
}

func sampleOutputs() []items.Output {
	return []items.Output{
		{
			JSON:       map[string]any{"text": "hello", "confidence": 91.5},
			Binary:     map[string]items.Binary{"ocr": {Data: []byte("img"), MimeType: "image/png", FileName: "a.png"}},
			PairedItem: items.PairedItem{Item: 0},
		},
		{
			JSON:       map[string]any{},
			PairedItem: items.PairedItem{Item: 1},
			Error:      map[string]any{"code": "MISSING_BINARY"},
		},
	}
}

func TestFormatOutputs(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		data, err := FormatOutputs(sampleOutputs(), "json", false)
		require.NoError(t, err)

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "aW1n", decoded[0]["binary"].(map[string]any)["ocr"].(map[string]any)["data"])
		assert.Equal(t, map[string]any{"item": 1.0}, decoded[1]["pairedItem"])
		assert.NotContains(t, string(data), "\n  ")
	})

	t.Run("pretty json", func(t *testing.T) {
		data, err := FormatOutputs(sampleOutputs(), "JSON", true)
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n  ")
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := FormatOutputs(sampleOutputs(), "yaml", true)
		require.NoError(t, err)

		var decoded []map[string]any
		require.NoError(t, yaml.Unmarshal(data, &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "hello", decoded[0]["json"].(map[string]any)["text"])
		assert.Equal(t, "aW1n", decoded[0]["binary"].(map[string]any)["ocr"].(map[string]any)["data"])
		assert.Equal(t, "MISSING_BINARY", decoded[1]["error"].(map[string]any)["code"])
	})

	t.Run("empty list", func(t *testing.T) {
		data, err := FormatOutputs(nil, "json", false)
		require.NoError(t, err)
		assert.Equal(t, "[]\n", string(data))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := FormatOutputs(sampleOutputs(), "csv", false)
		assert.Error(t, err)
	})
}

func TestWriteOutputs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutputs(&buf, "", sampleOutputs(), "json", false))
	assert.Contains(t, buf.String(), `"text":"hello"`)

	file := filepath.Join(t.TempDir(), "out.json")
	buf.Reset()
	require.NoError(t, WriteOutputs(&buf, file, sampleOutputs(), "json", false))
	assert.Empty(t, buf.String())
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"text":"hello"`)
}

func TestStripPayloads(t *testing.T) {
	in := sampleOutputs()
	out := StripPayloads(in)

	assert.Nil(t, out[0].Binary["ocr"].Data)
	assert.Equal(t, "image/png", out[0].Binary["ocr"].MimeType)
	assert.Nil(t, out[1].Binary)
	assert.Equal(t, []byte("img"), in[0].Binary["ocr"].Data, "input is not modified")
}
