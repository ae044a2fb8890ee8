package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tessnode/internal/items"
)

func newRunCommand(a *app) *cobra.Command {
	var input string

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Process workflow items read as JSON",
		Long: `Read a JSON array of items, each with a "json" payload and named "binary"
attachments (base64 data, mimeType, fileName), run OCR on the configured
field of every item and write the output items.

Examples:
  tessnode run --input items.json
  cat items.json | tessnode run --mode boxes --granularity words --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.readItems(input)
			if err != nil {
				return err
			}
			return a.process(cmd, list, processOptions{})
		},
	}

	runCmd.Flags().StringVarP(&input, "input", "i", "-", "items JSON file, or - for stdin")
	addEngineFlags(runCmd)
	addOutputFlags(runCmd)
	return runCmd
}

func (a *app) readItems(input string) ([]items.Item, error) {
	var r io.Reader = a.stdin
	if input != "-" && input != "" {
		f, err := os.Open(input) //nolint:gosec // path comes from the command line
		if err != nil {
			return nil, fmt.Errorf("failed to open items: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	return items.DecodeItems(r)
}
