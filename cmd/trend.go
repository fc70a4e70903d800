package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-coach/internal/analysis"
	"github.com/pable/go-match-coach/internal/report"
)

var trendLimit int

var trendCmd = &cobra.Command{
	Use:   "trend <account_id>",
	Short: "Chronological score trend and per-role summary for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().IntVar(&trendLimit, "last", 20, "number of most recent analyses (0 = all)")
}

func runTrend(cmd *cobra.Command, args []string) error {
	accountID, err := analysis.ParseID(args[0])
	if err != nil {
		return err
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.ListAnalyses(accountID, trendLimit)
	if err != nil {
		return fmt.Errorf("query analyses: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "No analyses stored for account %d\n", accountID)
		return nil
	}
	fmt.Fprintf(os.Stdout, "\nAccount %d: %d analyses\n\n", accountID, len(rows))
	report.PrintTrend(os.Stdout, rows)
	return nil
}
