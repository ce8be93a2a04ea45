package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"discordbridge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the bridge configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the loaded configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(cmd.OutOrStdout(), configPath)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func showConfig(w io.Writer, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	out, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
