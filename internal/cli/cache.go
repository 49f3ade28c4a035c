package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dshills/coreview/internal/cache"
	"github.com/spf13/cobra"
)

var flagCacheJSON bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the review cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached review results",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		rc, err := cache.New(true, c.Cache.Dir, c.Cache.TTLSeconds)
		if err != nil {
			return fail(ExitRuntimeError, fmt.Errorf("opening cache: %w", err))
		}
		defer rc.Close()
		if err := rc.Clear(); err != nil {
			return fail(ExitRuntimeError, fmt.Errorf("clearing cache: %w", err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		rc, err := cache.New(c.Cache.Enabled, c.Cache.Dir, c.Cache.TTLSeconds)
		if err != nil {
			return fail(ExitRuntimeError, fmt.Errorf("opening cache: %w", err))
		}
		defer rc.Close()
		if !rc.Enabled() {
			fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled.")
			return nil
		}
		stats, err := rc.GetStats()
		if err != nil {
			return fail(ExitRuntimeError, fmt.Errorf("reading cache stats: %w", err))
		}
		if flagCacheJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Directory: %s\n", stats.Dir)
		fmt.Fprintf(out, "Reviews:   %d\n", stats.Entries)
		fmt.Fprintf(out, "Size:      %d bytes\n", stats.TotalBytes)
		fmt.Fprintf(out, "TTL:       %s\n", time.Duration(c.Cache.TTLSeconds)*time.Second)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheShowCmd.Flags().BoolVar(&flagCacheJSON, "json", false, "Print statistics as JSON")
}
