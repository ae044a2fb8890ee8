package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tessnode/internal/pdf"
)

func newImagesCommand(a *app) *cobra.Command {
	var outDir string

	imagesCmd := &cobra.Command{
		Use:   "images [pdf files...]",
		Short: "Extract the raster images embedded in PDF files",
		Long: `Extract and reconstruct the raster images embedded in PDF files, exactly
as they would be handed to the OCR engine, and write them to a directory.

Examples:
  tessnode images report.pdf --out-dir extracted/
  tessnode images scan.pdf --pdf-strategy pages --pages 2-3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.cfg.ToPipelineOptions()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			extractor := pdf.NewExtractor(opts.PDF, a.logger)
			for _, path := range args {
				data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				name := filepath.Base(path)
				images, err := extractor.Extract(cmd.Context(), data, name)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				stem := strings.TrimSuffix(name, filepath.Ext(name))
				for _, img := range images {
					file := filepath.Join(outDir, fmt.Sprintf("%s-obj%d%s", stem, img.ObjectNumber, extensionFor(img.MimeType)))
					if err := os.WriteFile(file, img.Data, 0o600); err != nil {
						return fmt.Errorf("failed to write %s: %w", file, err)
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\t%s\n", file, img.Width, img.Height, img.Name)
				}
				a.logger.Info("Extracted images", "file", path, "count", len(images))
			}
			return nil
		},
	}

	imagesCmd.Flags().StringVarP(&outDir, "out-dir", "d", ".", "directory the images are written to")
	f := imagesCmd.Flags()
	f.String("pdf-strategy", "objects", "PDF image discovery: objects or pages")
	f.String("pages", "", "PDF page range for the pages strategy, e.g. 1-3,5")
	f.String("pdf-password", "", "PDF user password")
	f.String("pdf-owner-password", "", "PDF owner password")
	return imagesCmd
}

func extensionFor(mimeType string) string {
	if mimeType == "image/jpeg" {
		return ".jpg"
	}
	return ".png"
}
