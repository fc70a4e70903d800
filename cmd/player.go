package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-coach/internal/analysis"
	"github.com/pable/go-match-coach/internal/report"
)

var playerLimit int

var playerCmd = &cobra.Command{
	Use:   "player <account_id>",
	Short: "Show a player's OpenDota profile and their stored analyses",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlayer,
}

func init() {
	playerCmd.Flags().IntVar(&playerLimit, "limit", 10, "number of recent analyses to show")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	accountID, err := analysis.ParseID(args[0])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	prof, err := s.gw.Player(commandContext(cmd), accountID)
	if err != nil {
		return err
	}
	rank := "unranked"
	if prof.RankTier != nil {
		rank = fmt.Sprintf("%d", *prof.RankTier)
	}
	fmt.Fprintf(os.Stdout, "\nPlayer: %s  |  Account: %d  |  Rank tier: %s\n\n",
		prof.Profile.PersonaName, prof.Profile.AccountID, rank)

	rows, err := s.db.ListAnalyses(accountID, playerLimit)
	if err != nil {
		return fmt.Errorf("list analyses: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "No stored analyses for this account yet.")
		return nil
	}
	report.PrintHistory(os.Stdout, rows)
	return nil
}
