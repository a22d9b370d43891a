package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/autochemlab/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local lookup cache",
	Long: `Cache manages the SQLite database that run and lookup use to avoid
repeating registry requests. Use stats to see what is cached and clear to
drop all entries.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached entry counts",
	RunE:  runCacheStats,
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, err := cache.Open(cacheStorePath(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("CAS lookups: %d\nProperty records: %d\n", st.Lookups, st.Properties)
	return nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached entries",
	RunE:  runCacheClear,
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, err := cache.Open(cacheStorePath(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Println("Cache cleared.")
	return nil
}

func cacheStorePath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("path")
	if path == "" {
		path = viper.GetString("cache.path")
	}
	if path == "" {
		path = cache.DefaultPath
	}
	return path
}

func init() {
	cacheCmd.PersistentFlags().String("path", "", "cache database path (default "+cache.DefaultPath+")")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	rootCmd.AddCommand(cacheCmd)
}
