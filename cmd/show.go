package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-coach/internal/analysis"
	"github.com/pable/go-match-coach/internal/report"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <match_id> <account_id>",
	Short: "Show a stored analysis without contacting the API",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the stored result as JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	matchID, err := analysis.ParseID(args[0])
	if err != nil {
		return err
	}
	accountID, err := analysis.ParseID(args[1])
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.GetAnalysis(matchID, accountID)
	if err != nil {
		return fmt.Errorf("load analysis: %w", err)
	}
	if res == nil {
		fmt.Fprintf(os.Stderr, "No stored analysis for account %d in match %d. Run 'matchcoach analyze' first.\n", accountID, matchID)
		return nil
	}
	if showJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	report.PrintAnalysis(os.Stdout, res)
	return nil
}
