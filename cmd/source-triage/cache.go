// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/source-triage/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the search and lookup cache (stats, clear)",
	Long: `Cache manages the file cache of search results and external API
lookups. Entries expire on their own; clear removes them eagerly.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count valid and expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		valid, expired := cacheFromFlags(cmd).Stats()
		fmt.Printf("%d valid entries, %d expired\n", valid, expired)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := cacheFromFlags(cmd).Clear()
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Printf("removed %d entries\n", removed)
		return nil
	},
}

func cacheFromFlags(cmd *cobra.Command) *cache.Cache {
	return cache.New(pathSetting(cmd, "cache-dir", "cache.dir", "output/.cache"))
}

func init() {
	cacheCmd.PersistentFlags().String("cache-dir", "", "cache directory (default output/.cache)")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	rootCmd.AddCommand(cacheCmd)
}
