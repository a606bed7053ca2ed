package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanet-platform/lpm/logging"
)

var cmd Cmd

// Cmd is the command line arguments shared by all subcommands.
type Cmd struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string
	// Table selects the table to operate on; empty means the first
	// configured one.
	Table string
}

var rootCmd = &cobra.Command{
	Use:          "lpmctl",
	Short:        "Longest prefix match table tool",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to the configuration file (required)")
	rootCmd.MarkPersistentFlagRequired("config")
	rootCmd.PersistentFlags().StringVarP(&cmd.Table, "table", "t", "", "Table name (defaults to the first configured table)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and initializes logging.
func setup(cmd Cmd) (*Config, *zap.SugaredLogger, error) {
	cfg, err := LoadConfig(cmd.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, _, err := logging.Setup(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	return cfg, log, nil
}
