package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vishvananda/netlink"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/lpm"
	"github.com/yanet-platform/lpm/discovery"
)

var (
	watchFamily   string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Mirror the kernel routing table and report statistics until interrupted",
	RunE: func(rawCmd *cobra.Command, args []string) error {
		return runWatch(cmd)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchFamily, "family", "all", "Address family to mirror (4, 6 or all)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "Statistics reporting interval")
	rootCmd.AddCommand(watchCmd)
}

func parseFamily(family string) (int, error) {
	switch family {
	case "4":
		return netlink.FAMILY_V4, nil
	case "6":
		return netlink.FAMILY_V6, nil
	case "all":
		return netlink.FAMILY_ALL, nil
	default:
		return 0, fmt.Errorf("unknown address family %q", family)
	}
}

func runWatch(cmd Cmd) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	family, err := parseFamily(watchFamily)
	if err != nil {
		return err
	}

	opts := []lpm.Option{lpm.WithLog(log)}
	if cfg.MemLimit > 0 {
		opts = append(opts, lpm.WithMemLimit(cfg.MemLimit))
	}
	table, err := lpm.New[discovery.Nexthop]("kernel", opts...)
	if err != nil {
		return err
	}

	service := discovery.NewService(table, family, log)

	ctx, stop := signal.NotifyContext(rootCmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return service.Run(ctx)
	})
	wg.Go(func() error {
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				log.Infof("table statistics:\n%s", table.Stats())
			}
		}
	})

	err = wg.Wait()
	log.Infof("final statistics:\n%s", table.Stats())
	return err
}
