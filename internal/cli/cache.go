package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/diffsense/internal/cache"
	"github.com/dshills/diffsense/internal/config"
	"github.com/dshills/diffsense/internal/output"
)

var (
	flagCacheExpired bool
	flagCacheJSON    bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached responses and the stored last result",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached responses",
	Long: `Clear removes every cached response and the stored last result. With
--expired only entries past their TTL (and unreadable ones) are removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}

		if flagCacheExpired {
			removed, err := c.Prune()
			if err != nil {
				return fmt.Errorf("pruning cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s expired entries.\n", output.GroupDigits(removed))
			return nil
		}

		removed, err := c.Clear()
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		last, err := cache.NewLastStore(cfg.Cache.Dir)
		if err != nil {
			return err
		}
		if err := last.Clear(); err != nil {
			return fmt.Errorf("clearing last result: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared (%s entries removed).\n", output.GroupDigits(removed))
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		stats, err := c.GetStats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}

		out := cmd.OutOrStdout()
		if flagCacheJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if !stats.Enabled {
			fmt.Fprintln(out, "Cache is disabled.")
			return nil
		}
		last := "none"
		if stats.HasLast {
			last = "stored"
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Directory:\t%s\n", stats.Dir)
		fmt.Fprintf(tw, "Entries:\t%s (%s expired)\n", output.GroupDigits(stats.Entries), output.GroupDigits(stats.Expired))
		fmt.Fprintf(tw, "Size:\t%s\n", formatBytes(int(stats.TotalBytes)))
		fmt.Fprintf(tw, "TTL:\t%ss\n", output.GroupDigits(cfg.Cache.TTLSeconds))
		fmt.Fprintf(tw, "Last result:\t%s\n", last)
		return tw.Flush()
	},
}

func init() {
	cacheClearCmd.Flags().BoolVar(&flagCacheExpired, "expired", false, "Only remove expired entries")
	cacheShowCmd.Flags().BoolVar(&flagCacheJSON, "json", false, "Print statistics as JSON")
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
