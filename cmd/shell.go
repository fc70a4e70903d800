package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-match-coach/internal/analysis"
	"github.com/pable/go-match-coach/internal/report"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Open a persistent session. Fetched matches, benchmarks and analyses stay in
the in-memory cache for the whole session. Type 'help' for available commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := commandContext(cmd)
	s.cache.Start(ctx)

	cGreeting.Println("matchcoach shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("matchcoach")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "analyze", "show", "forget":
			if len(args) != 2 {
				cError.Fprintf(os.Stderr, "usage: %s <match_id> <account_id>\n", name)
				continue
			}
			shellMatchCommand(ctx, s, name, args[0], args[1])
		case "list":
			shellList(s, args)
		case "trend":
			if len(args) != 1 {
				cError.Fprintln(os.Stderr, "usage: trend <account_id>")
				continue
			}
			shellTrend(s, args[0])
		case "warm":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: warm <match_id> [...]")
				continue
			}
			shellWarm(ctx, s, args)
		case "stats":
			st := s.cache.Stats()
			fmt.Printf("cache: %d entries, %d hits, %d misses, %d evictions\n",
				st.Entries, st.Hits, st.Misses, st.Evictions)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"analyze <match_id> <account_id>", "analyze a player (cached for the session)"},
		{"show <match_id> <account_id>", "print a stored analysis"},
		{"forget <match_id> <account_id>", "drop the cached analysis and match payload"},
		{"list [account_id]", "list stored analyses"},
		{"trend <account_id>", "score trend for one player"},
		{"warm <match_id> [...]", "prefetch matches and hero benchmarks"},
		{"stats", "in-memory cache counters"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellMatchCommand(ctx context.Context, s *session, name, matchArg, accountArg string) {
	matchID, err := analysis.ParseID(matchArg)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	accountID, err := analysis.ParseID(accountArg)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	switch name {
	case "analyze":
		res, err := s.pipeline.Analyze(ctx, matchID, accountID)
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		report.PrintAnalysis(os.Stdout, res)
	case "show":
		res, err := s.db.GetAnalysis(matchID, accountID)
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		if res == nil {
			cMuted.Println("No stored analysis.")
			return
		}
		report.PrintAnalysis(os.Stdout, res)
	case "forget":
		s.pipeline.Invalidate(matchID, accountID)
		s.gw.ForgetMatch(matchID)
		cMuted.Println("forgotten")
	}
}

func shellList(s *session, args []string) {
	var accountID int64
	if len(args) > 0 {
		id, err := analysis.ParseID(args[0])
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		accountID = id
	}
	rows, err := s.db.ListAnalyses(accountID, 50)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(rows) == 0 {
		cMuted.Println("No analyses stored yet.")
		return
	}
	report.PrintHistory(os.Stdout, rows)
}

func shellTrend(s *session, arg string) {
	accountID, err := analysis.ParseID(arg)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	rows, err := s.db.ListAnalyses(accountID, 20)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(rows) == 0 {
		cMuted.Printf("No analyses for account %d.\n", accountID)
		return
	}
	report.PrintTrend(os.Stdout, rows)
}

func shellWarm(ctx context.Context, s *session, args []string) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := analysis.ParseID(a)
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		ids = append(ids, id)
	}
	sum := s.pipeline.Warm(ctx, ids)
	fmt.Printf("warmed %d matches, %d benchmarks\n", sum.Matches, sum.Benchmarks)
	for k, err := range sum.Failed {
		cWarn.Fprintf(os.Stderr, "  failed %s: %v\n", k, err)
	}
}
