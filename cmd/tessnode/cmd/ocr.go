package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tessnode/internal/batch"
)

func newOCRCommand(a *app) *cobra.Command {
	var (
		discovery    batch.Config
		progress     bool
		stripPayload bool
	)

	ocrCmd := &cobra.Command{
		Use:   "ocr [files or directories...]",
		Short: "Run OCR over image and PDF files",
		Long: `Run OCR over image and PDF files. Each file becomes one item whose
attachment is recognized; directories contribute their supported files.

Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP and PDF

Examples:
  tessnode ocr scan.png
  tessnode ocr invoices/ --recursive --include '*.pdf' --mode boxes
  tessnode ocr page.tif --bbox 0,0,400,200 --psm SINGLE_LINE`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			discovery.Field = a.cfg.Operation.Field
			list, err := batch.LoadItems(args, discovery)
			if err != nil {
				return err
			}
			return a.process(cmd, list, processOptions{progress: progress, stripPayload: stripPayload})
		},
	}

	f := ocrCmd.Flags()
	f.BoolVarP(&discovery.Recursive, "recursive", "r", false, "descend into subdirectories")
	f.StringSliceVar(&discovery.IncludePatterns, "include", nil, "only include files matching these glob patterns")
	f.StringSliceVar(&discovery.ExcludePatterns, "exclude", nil, "skip files matching these glob patterns")
	f.BoolVar(&progress, "progress", false, "show a progress bar on stderr")
	f.BoolVar(&stripPayload, "strip-binary", true, "omit attachment data from the printed outputs")
	addEngineFlags(ocrCmd)
	addOutputFlags(ocrCmd)
	return ocrCmd
}
