package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"discordbridge/internal/bridge"
	"discordbridge/internal/config"
	"discordbridge/internal/emailer"
	"discordbridge/internal/llm"
	"discordbridge/internal/logging"
	"discordbridge/internal/progress"
	"discordbridge/internal/runlog"
	"discordbridge/internal/trace"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Root flags
	inputPath      string
	noEmail        bool
	dryRun         bool
	preview        bool
	progressFormat string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bridge-cli",
	Short: "Summarize Discord chat exports and mail the reports",
	Long: `bridge-cli reads Discord chat exports (JSON), asks the configured LLM for a
structured analysis of each channel, writes one Markdown report per export
and mails the reports as attachments.

Example:
  bridge-cli -i exports/ --config .env
  bridge-cli -i exports/general.json --dry-run --preview`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runBridge,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".env", "Path to .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input JSON file or folder (required)")
	rootCmd.Flags().BoolVar(&noEmail, "no-email", false, "Do not send email, only generate Markdown")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run without email or file writing")
	rootCmd.Flags().BoolVar(&preview, "preview", false, "Render generated Markdown in the terminal")
	rootCmd.Flags().StringVar(&progressFormat, "progress", "log", "Progress output: log or json (one event per stdout line)")
	rootCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(watchCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runBridge processes --input once.
func runBridge(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	shutdown := startTracing(ctx)
	defer shutdown()

	emitter, err := progressEmitter(progressFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	runner, closeRunner, err := newRunner(ctx, cfg, emitter)
	if err != nil {
		return err
	}
	defer closeRunner()

	report, err := runner.Run(ctx, bridge.Options{Input: inputPath, DryRun: dryRun, NoEmail: noEmail})
	if err != nil {
		return err
	}
	logger.Info("bridge run complete",
		zap.String("run_id", report.RunID),
		zap.Int("files", len(report.Files)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Bool("emailed", report.Emailed))

	if preview {
		return renderPreview(cmd.OutOrStdout(), report.Files)
	}
	return nil
}

// newRunner wires the configured provider, mailer and run log into a bridge
// runner. The returned func releases the run log.
func newRunner(ctx context.Context, cfg *config.AppConfig, emitter progress.Emitter) (*bridge.Runner, func(), error) {
	provider, err := llm.New(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create llm provider: %w", err)
	}

	runner := &bridge.Runner{
		Config:     cfg,
		Provider:   provider,
		Mailer:     emailer.New(emailer.NetDialer{}),
		Progress:   emitter,
		Logger:     logger,
		ConfigName: configName(configPath),
	}

	// The run log only feeds the dashboard; a run proceeds without it.
	store, err := runlog.OpenDefault()
	if err != nil {
		logger.Warn("run log unavailable", zap.Error(err))
		return runner, func() {}, nil
	}
	logger.Debug("recording run", zap.String("run_log", store.Path()))
	runner.Log = store
	return runner, func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close run log", zap.Error(err))
		}
	}, nil
}

// progressEmitter picks where run events go. The json format is read back
// by the dashboard; --verbose keeps the log lines alongside it.
func progressEmitter(format string, stdout io.Writer) (progress.Emitter, error) {
	switch format {
	case "", "log":
		return progress.LogEmitter{Logger: logger}, nil
	case "json":
		jsonOut := &progress.JSONEmitter{W: stdout}
		if verbose {
			return progress.Multi{jsonOut, progress.LogEmitter{Logger: logger}}, nil
		}
		return jsonOut, nil
	default:
		return nil, fmt.Errorf("unknown --progress format %q (want log or json)", format)
	}
}

// startTracing installs the OTLP exporter when one is configured.
func startTracing(ctx context.Context) func() {
	exp, err := trace.NewOTLPExporter(ctx)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		return func() {}
	}
	return func() {
		if err := exp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to flush traces", zap.Error(err))
		}
	}
}

// configName is the env file stem shown in the mail subject; empty for the default .env.
func configName(path string) string {
	base := filepath.Base(path)
	if base == ".env" || base == "." || base == "" {
		return ""
	}
	return strings.TrimSuffix(base, ".env")
}

// renderPreview prints each report through glamour.
func renderPreview(w io.Writer, files []bridge.FileResult) error {
	if len(files) == 0 {
		return errors.New("nothing to preview")
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	for _, f := range files {
		out, err := r.Render(f.Markdown)
		if err != nil {
			return fmt.Errorf("render %s: %w", f.Input, err)
		}
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}
	}
	return nil
}
