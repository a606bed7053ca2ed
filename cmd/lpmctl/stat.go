package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statPattern string

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Print statistics of the configured tables",
	RunE: func(rawCmd *cobra.Command, args []string) error {
		return runStat(cmd)
	},
}

func init() {
	statCmd.Flags().StringVar(&statPattern, "tables", "*", "Glob pattern selecting tables")
	rootCmd.AddCommand(statCmd)
}

func runStat(cmd Cmd) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	registry, err := buildTables(cfg, log)
	if err != nil {
		return err
	}

	tables, err := registry.Match(statPattern)
	if err != nil {
		return fmt.Errorf("bad table pattern %q: %w", statPattern, err)
	}
	if len(tables) == 0 {
		return fmt.Errorf("no tables match %q", statPattern)
	}

	for _, table := range tables {
		fmt.Printf("LPM table [%s] statistics:\n", table.Name())
		fmt.Println(table.Stats())
	}

	return nil
}
