package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-coach/internal/report"
)

var (
	listAccount int64
	listLimit   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().Int64Var(&listAccount, "account", 0, "only show this account id")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.ListAnalyses(listAccount, listLimit)
	if err != nil {
		return fmt.Errorf("list analyses: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "No analyses stored yet. Run 'matchcoach analyze <match_id> <account_id>' to add one.")
		return nil
	}
	report.PrintHistory(os.Stdout, rows)
	return nil
}
