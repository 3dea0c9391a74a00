package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func cacheStatsCmd(cmd *cobra.Command, args []string) error {
	fmt.Println("💾 Cache Statistics:")

	a, err := loadApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	cacheClient, err := a.openCache()
	if err != nil {
		return fmt.Errorf("failed to create cache client: %w", err)
	}
	defer cacheClient.Close()

	ctx, cancel := commandContext(30 * time.Second)
	defer cancel()

	stats, err := cacheClient.GetCacheStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	fmt.Printf("📁 Database: %s\n", stats.Path)
	fmt.Printf("✅ Cache Hits: %s\n", humanize.Comma(int64(stats.TotalHits)))
	fmt.Printf("❌ Cache Misses: %s\n", humanize.Comma(int64(stats.TotalMisses)))
	fmt.Printf("📊 Hit Rate: %.1f%%\n", stats.HitRate)
	fmt.Printf("📝 Cache Entries: %d (%d expired)\n", stats.EntriesCount, stats.ExpiredCount)

	if stats.LastCleanup != nil {
		fmt.Printf("🧹 Last Cleanup: %s (%s)\n",
			stats.LastCleanup.Format("2006-01-02 15:04:05"),
			humanize.Time(*stats.LastCleanup))
	}
	return nil
}

func cacheCleanupCmd(cmd *cobra.Command, args []string) error {
	cleanAll, _ := cmd.Flags().GetBool("all")
	yes, _ := cmd.Flags().GetBool("yes")

	if cleanAll && !yes {
		fmt.Print("⚠️  Are you sure you want to clear ALL cache entries? This cannot be undone. (y/N): ")
		var confirm string
		fmt.Scanln(&confirm)
		if strings.ToLower(strings.TrimSpace(confirm)) != "y" {
			fmt.Println("❌ Cache cleanup cancelled")
			return nil
		}
	}

	fmt.Println("🧹 Cleaning up cache...")

	a, err := loadApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	cacheClient, err := a.openCache()
	if err != nil {
		return fmt.Errorf("failed to create cache client: %w", err)
	}
	defer cacheClient.Close()

	ctx, cancel := commandContext(60 * time.Second)
	defer cancel()

	deleted, err := cacheClient.CleanupExpiredEntries(ctx, cleanAll)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	if cleanAll {
		fmt.Printf("✅ Removed all %d cache entries\n", deleted)
		return nil
	}
	fmt.Printf("✅ Cleaned up %d expired cache entries\n", deleted)
	return nil
}
