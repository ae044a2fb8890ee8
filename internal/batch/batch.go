// Package batch turns files on disk into host items and renders the
// outputs of an invocation.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/tessnode/internal/items"
	"github.com/MeKo-Tech/tessnode/internal/utils"
)

// ErrNoInputs is returned when discovery finds nothing to process.
var ErrNoInputs = errors.New("no input files found")

// Config holds file discovery settings.
type Config struct {
	// Field is the binary field the file content is attached under.
	Field string

	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// LoadItems discovers the input files and reads each one into an item. The
// item JSON carries the source path and file name.
func LoadItems(args []string, cfg Config) ([]items.Item, error) {
	files, err := discoverFiles(args, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoInputs
	}

	field := cfg.Field
	if field == "" {
		field = items.DefaultField
	}

	list := make([]items.Item, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path) //nolint:gosec // paths come from the command line
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		name := filepath.Base(path)
		list = append(list, items.Item{
			JSON: map[string]any{"path": path, "fileName": name},
			Binary: map[string]items.Binary{
				field: {Data: data, MimeType: utils.MimeTypeForPath(path), FileName: name},
			},
		})
	}
	return list, nil
}
