package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/tessnode/internal/config"
	"github.com/MeKo-Tech/tessnode/internal/engine"
	"github.com/MeKo-Tech/tessnode/internal/engine/tesseract"
	"github.com/MeKo-Tech/tessnode/internal/version"
)

// app carries the state shared by all subcommands of one command tree.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger

	// engine overrides the tesseract factory when set.
	engine engine.Factory
	stdin  io.Reader
}

// Option customizes a command tree built by NewRootCommand.
type Option func(*app)

// WithEngine replaces the tesseract engine, e.g. with a fake in tests.
func WithEngine(f engine.Factory) Option {
	return func(a *app) { a.engine = f }
}

// WithStdin replaces the reader used when items are read from "-".
func WithStdin(r io.Reader) Option {
	return func(a *app) { a.stdin = r }
}

// WithViper uses v instead of a fresh viper instance.
func WithViper(v *viper.Viper) Option {
	return func(a *app) { a.v = v }
}

// NewRootCommand builds the tessnode command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{v: viper.New(), stdin: os.Stdin}
	for _, opt := range opts {
		opt(a)
	}

	rootCmd := &cobra.Command{
		Use:   "tessnode",
		Short: "Tesseract OCR for workflow items, images and PDFs",
		Long: `tessnode runs Tesseract OCR over the binary attachments of workflow items.

Images are recognized directly. PDF attachments are scanned for embedded
raster images, which are reconstructed and recognized one by one.

Examples:
  tessnode ocr scan.png
  tessnode ocr docs/ --recursive --mode boxes --granularity lines
  tessnode run --input items.json --format yaml
  tessnode images report.pdf --out-dir extracted/`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tessnode version %s\n", version.String())
				return nil
			}
			return cmd.Help()
		},
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $XDG_CONFIG_HOME/tessnode, /etc/tessnode)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("version", false, "print version information and exit")

	rootCmd.AddCommand(
		newRunCommand(a),
		newOCRCommand(a),
		newImagesCommand(a),
		newConfigCommand(a),
	)
	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// setup binds the flags of the executing command, loads the configuration
// and installs the JSON logger on stderr.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := bindFlags(a.v, cmd); err != nil {
		return err
	}

	loader := config.NewLoaderWithViper(a.v)
	var (
		cfg *config.Config
		err error
	)
	if skipValidation(cmd) {
		cfg, err = loader.LoadWithoutValidation()
	} else {
		cfg, err = loader.LoadWithFile(a.cfgFile)
	}
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(a.logger)
	return nil
}

// skipValidation lets "config init" run even when the current configuration
// is broken.
func skipValidation(cmd *cobra.Command) bool {
	return cmd.Annotations["config"] == "skip-validation"
}

func (a *app) engineFactory() engine.Factory {
	if a.engine != nil {
		return a.engine
	}
	return tesseract.NewFactory(tesseract.Options{
		TessdataPrefix: a.cfg.Engine.TessdataPrefix,
		Logger:         a.logger,
	})
}
