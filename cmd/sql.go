package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-coach/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the matchcoach database",
	Long: `Run an arbitrary SQL query against the matchcoach database and print results as a table.

Schema overview:
  analyses(match_id, account_id, run_id, hero_id, role, won, overall_score,
    overall_grade, improvement_score, mistakes, result_json, analyzed_at)
  payloads(key, body, created_at, expires_at)

Timestamps are unix milliseconds. result_json holds the full analysis; use
json_extract, e.g.:
  matchcoach sql "SELECT match_id, json_extract(result_json, '$.sub_scores.vision') FROM analyses"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}
	report.PrintRaw(os.Stdout, cols, rows)
	return nil
}
