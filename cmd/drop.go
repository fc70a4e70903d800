package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce   bool
	dropAccount int64
)

// dropCmd deletes stored analyses or the whole database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the matchcoach database or one account's analyses",
	Long: `Permanently delete the SQLite database, including stored analyses and cached
API payloads. With --account only that account's analyses are removed.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().Int64Var(&dropAccount, "account", 0, "only delete analyses of this account id")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if !dropForce {
		if dropAccount != 0 {
			fmt.Fprintf(os.Stderr, "This will permanently delete all analyses of account %d in %s\n", dropAccount, dbPath)
		} else {
			fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		}
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	if dropAccount != 0 {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := db.DeleteAnalyses(dropAccount)
		if err != nil {
			return fmt.Errorf("delete analyses: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Deleted %d analyses of account %d.\n", n, dropAccount)
		return nil
	}

	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
