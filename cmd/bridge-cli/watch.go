package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"discordbridge/internal/bridge"
	"discordbridge/internal/config"
	"discordbridge/internal/progress"
	"discordbridge/internal/watch"
)

var (
	watchDir      string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process chat exports as they appear in the input directory",
	Long: `Watches INPUT_DIR (or --dir) and runs the bridge on every *.json export
that is created or rewritten, once writes to it have settled.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "Directory to watch (default: INPUT_DIR)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before a file is processed")
	watchCmd.Flags().BoolVar(&noEmail, "no-email", false, "Do not send email, only generate Markdown")
	watchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run without email or file writing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dir := watchDir
	if dir == "" {
		dir = cfg.InputDir
	}

	shutdown := startTracing(ctx)
	defer shutdown()

	runner, closeRunner, err := newRunner(ctx, cfg, progress.LogEmitter{Logger: logger})
	if err != nil {
		return err
	}
	defer closeRunner()

	w, err := watch.New(dir, exportHandler(runner), logger)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.SetDebounce(watchDebounce)
	w.Start(ctx)

	<-ctx.Done()
	logger.Info("received shutdown signal")
	w.Stop()

	st := w.Stats()
	logger.Info("watcher stopped", zap.Int("processed", st.Processed), zap.Int("errors", st.Errors))
	return nil
}

// exportHandler runs the bridge on a single settled export.
func exportHandler(runner *bridge.Runner) watch.Handler {
	return func(ctx context.Context, path string) error {
		report, err := runner.Run(ctx, bridge.Options{Input: path, DryRun: dryRun, NoEmail: noEmail})
		if err != nil {
			return err
		}
		logger.Info("processed export", zap.String("path", path), zap.Int("files", len(report.Files)))
		return nil
	}
}
