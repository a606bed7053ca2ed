package main

import (
	"fmt"
	"net/netip"
	"os"
	"sort"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Look up destination addresses of a pcap capture and summarize the matched routes",
	Args:  cobra.ExactArgs(1),
	RunE: func(rawCmd *cobra.Command, args []string) error {
		return runReplay(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd Cmd, path string) error {
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

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	reader, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read capture: %w", err)
	}

	var packets, skipped int
	counts := map[string]int{}

	source := gopacket.NewPacketSource(reader, reader.LinkType())
	for packet := range source.Packets() {
		packets++

		var dst netip.Addr
		switch ip := packet.NetworkLayer().(type) {
		case *layers.IPv4:
			dst, _ = netip.AddrFromSlice(ip.DstIP)
		case *layers.IPv6:
			dst, _ = netip.AddrFromSlice(ip.DstIP)
		default:
			skipped++
			continue
		}
		if !dst.IsValid() {
			skipped++
			continue
		}

		nh, usedDefault, ok := table.LookupAddr(dst.Unmap())
		switch {
		case !ok:
			counts["no route"]++
		case usedDefault:
			counts[nh.String()+" (default)"]++
		default:
			counts[nh.String()]++
		}
	}

	fmt.Printf("%d packets, %d without a network layer\n", packets, skipped)

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%8d  %s\n", counts[key], key)
	}

	return nil
}
