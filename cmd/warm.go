package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-match-coach/internal/analysis"
)

var warmCmd = &cobra.Command{
	Use:   "warm <match_id> [match_id...]",
	Short: "Prefetch matches, hero benchmarks and constants into the payload store",
	Long: `Fetches the given matches and the benchmarks of every hero that played in
them, plus the hero and item constants, so later analyze runs are served
from the local database without touching the API.

Example:
  matchcoach warm 7512345678 7512349999 7512401234`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWarm,
}

func runWarm(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := analysis.ParseID(a)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if cfg.Cache.NoPersist {
		fmt.Fprintln(os.Stderr, "warning: cache.no_persist is set; warmed payloads last only for this process")
	}

	ctx := commandContext(cmd)
	sum := s.pipeline.Warm(ctx, ids)
	if _, err := s.gw.Heroes(ctx); err != nil {
		sum.Failed["/constants/heroes"] = err
	}
	if _, err := s.gw.Items(ctx); err != nil {
		sum.Failed["/constants/items"] = err
	}

	fmt.Fprintf(os.Stdout, "Warmed %d/%d matches and %d hero benchmarks.\n", sum.Matches, len(ids), sum.Benchmarks)
	if len(sum.Failed) == 0 {
		return nil
	}
	keys := make([]string, 0, len(sum.Failed))
	for k := range sum.Failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(os.Stderr, "  failed %s: %v\n", k, sum.Failed[k])
	}
	logger.Debug("warm finished", zap.Int("failed", len(sum.Failed)))
	return fmt.Errorf("%d prefetches failed", len(sum.Failed))
}
