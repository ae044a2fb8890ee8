package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tessnode/internal/batch"
	"github.com/MeKo-Tech/tessnode/internal/items"
	"github.com/MeKo-Tech/tessnode/internal/metrics"
	"github.com/MeKo-Tech/tessnode/internal/pipeline"
)

// processOptions tweaks how a recognition command renders its results.
type processOptions struct {
	progress     bool
	stripPayload bool
}

// process runs the pipeline over list and writes the outputs. In stop mode
// a failing item aborts the invocation and its error is returned.
func (a *app) process(cmd *cobra.Command, list []items.Item, po processOptions) error {
	opts, err := a.cfg.ToPipelineOptions()
	if err != nil {
		return err
	}

	m := metrics.New()
	var progress pipeline.ProgressCallback = pipeline.NewLogProgressCallback(a.logger, slog.LevelDebug)
	if po.progress {
		progress = pipeline.MultiProgressCallback{
			progress,
			pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "OCR: "),
		}
	}

	p, err := pipeline.NewBuilder().
		WithOptions(opts).
		WithEngine(a.engineFactory()).
		WithLogger(a.logger).
		WithMetrics(m).
		WithProgress(progress).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	outputs, runErr := p.Execute(cmd.Context(), list)

	if path := a.cfg.Output.MetricsFile; path != "" {
		if err := m.WriteTextfile(path); err != nil {
			a.logger.Warn("Failed to write metrics", "path", path, "error", err)
		}
	}

	var itemErr *pipeline.ItemError
	if runErr != nil && !errors.As(runErr, &itemErr) {
		return runErr
	}

	if po.stripPayload {
		outputs = batch.StripPayloads(outputs)
	}
	if itemErr == nil {
		out := a.cfg.Output
		if err := batch.WriteOutputs(cmd.OutOrStdout(), out.File, outputs, out.Format, out.Pretty); err != nil {
			return err
		}
	}
	return runErr
}
