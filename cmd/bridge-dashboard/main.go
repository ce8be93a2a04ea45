package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"discordbridge/internal/config"
	"discordbridge/internal/hostcmd"
	"discordbridge/internal/logging"
	"discordbridge/internal/runlog"
	"discordbridge/internal/ui"
)

func main() {
	envPath := flag.String("config", ".env", "path to the bridge .env file")
	binary := flag.String("bridge-bin", hostcmd.DefaultBinary, "bridge CLI executable")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if err := run(*envPath, *binary, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(envPath, binary string, verbose bool) error {
	dataDir, err := runlog.DataDir()
	if err != nil {
		return err
	}
	logger, err := logging.NewFile(dataDir, logging.DashboardLogFile, verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// A config error is shown on the Settings page instead of aborting.
	cfg, cfgErr := config.Load(envPath)
	if cfgErr != nil {
		logger.Warn("config not loaded", zap.String("path", envPath), zap.Error(cfgErr))
	}

	opts := ui.Options{
		Config:    cfg,
		ConfigErr: cfgErr,
		EnvPath:   envPath,
		Runner:    hostcmd.NewRunner(binary),
		Logger:    logger,
	}
	store, err := runlog.OpenDefault()
	if err != nil {
		logger.Warn("run log unavailable; showing default figures", zap.Error(err))
	} else {
		defer store.Close()
		logger.Info("reading run log", zap.String("path", store.Path()))
		opts.Store = store
	}

	model := ui.NewAppModel(opts)
	defer model.Close()
	p := tea.NewProgram(model.AsTeaModel(), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
