package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/parrot/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the audio cache",
}

func init() {
	cacheCmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show cache usage per tier",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := newCache(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
				defer m.Close() //nolint:errcheck
				printCacheStats(cmd.OutOrStdout(), m.Stats())
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached clip",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := newCache(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
				defer m.Close() //nolint:errcheck
				if err := m.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Remove clips older than the cache TTL",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := newCache(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
				defer m.Close() //nolint:errcheck
				before := m.Size()
				m.Cleanup()
				fmt.Fprintf(cmd.OutOrStdout(), "Freed %s.\n", humanize.Bytes(uint64(max(before-m.Size(), 0)))) //nolint:gosec
				return nil
			},
		},
	)
}

func printCacheStats(w io.Writer, s cache.ManagerStats) {
	for _, t := range s.Tiers {
		capacity := "unbounded"
		if t.Capacity > 0 {
			capacity = humanize.Bytes(uint64(t.Capacity)) //nolint:gosec
		}
		fmt.Fprintf(w, "%-7s %s / %s, %s clips",
			keyword(t.Tier.String()),
			humanize.Bytes(uint64(t.Size)), //nolint:gosec
			capacity,
			humanize.Comma(t.ItemCount),
		)
		if !t.LastAccess.IsZero() {
			fmt.Fprint(w, faint(", last used "+humanize.Time(t.LastAccess)))
		}
		fmt.Fprintln(w)
	}
	if s.CleanupRuns > 0 {
		fmt.Fprintln(w, faint("last cleanup "+humanize.Time(s.LastCleanup)))
	}
}
