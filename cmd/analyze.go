package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-coach/internal/analysis"
	"github.com/pable/go-match-coach/internal/report"
)

var (
	analyzeJSON    bool
	analyzeRefresh bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <match_id> <account_id>",
	Short: "Analyze one player's performance in a match",
	Long: `Fetch a match from OpenDota, detect the player's role, grade their metrics
against hero benchmarks and print mistakes, strengths and coaching points.

The result is stored in the local database for list, show and trend.

Examples:
  matchcoach analyze 7512345678 86745912
  matchcoach analyze 7512345678 86745912 --json | jq .overall_score`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeRefresh, "refresh", false, "ignore the stored match payload and refetch it")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	matchID, err := analysis.ParseID(args[0])
	if err != nil {
		return err
	}
	accountID, err := analysis.ParseID(args[1])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if analyzeRefresh {
		s.gw.ForgetMatch(matchID)
	}

	res, err := s.pipeline.Analyze(commandContext(cmd), matchID, accountID)
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	report.PrintAnalysis(os.Stdout, res)
	return nil
}
