package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the persistent payload cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count live and expired payloads",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [prefix]",
	Short: "Delete stored payloads, optionally only keys starting with prefix",
	Long: `Delete stored API payloads. Keys look like "match:/matches/7512345678",
"benchmarks:/benchmarks?hero_id=1" or "constants:/constants/heroes".

Examples:
  matchcoach cache clear              # everything
  matchcoach cache clear benchmarks:  # only hero benchmarks`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCacheClear,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired payloads",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePurgeCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	live, expired, err := db.PayloadStats(time.Now())
	if err != nil {
		return fmt.Errorf("payload stats: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Payloads: %d live, %d expired\n", live, expired)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.DeletePayloadsByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("clear payloads: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted %d payloads.\n", n)
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.PurgeExpiredPayloads(time.Now())
	if err != nil {
		return fmt.Errorf("purge payloads: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Purged %d expired payloads.\n", n)
	return nil
}
