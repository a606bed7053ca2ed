package main

import (
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/yanet-platform/lpm"
	"github.com/yanet-platform/lpm/discovery"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup ADDR...",
	Short: "Longest prefix match the given addresses against the configured table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(rawCmd *cobra.Command, args []string) error {
		return runLookup(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

// pickTable resolves the table selected by --table, defaulting to the first
// configured one.
func pickTable(cfg *Config, registry *lpm.Registry[discovery.Nexthop], name string) (*lpm.Table[discovery.Nexthop], error) {
	if name == "" {
		if len(cfg.Tables) == 0 {
			return nil, fmt.Errorf("no tables configured")
		}
		name = cfg.Tables[0].Name
	}

	table, ok := registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("table %q is not configured", name)
	}
	return table, nil
}

func runLookup(cmd Cmd, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	registry, err := buildTables(cfg, log)
	if err != nil {
		return err
	}

	table, err := pickTable(cfg, registry, cmd.Table)
	if err != nil {
		return err
	}

	for _, arg := range args {
		addr, err := netip.ParseAddr(arg)
		if err != nil {
			return fmt.Errorf("failed to parse address %q: %w", arg, err)
		}

		nh, usedDefault, ok := table.LookupAddr(addr)
		switch {
		case !ok:
			fmt.Printf("%-40s no route\n", addr)
		case usedDefault:
			fmt.Printf("%-40s %s (default)\n", addr, nh)
		default:
			fmt.Printf("%-40s %s\n", addr, nh)
		}
	}

	return nil
}
