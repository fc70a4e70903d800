// Package analysis wires the gateway, role detector, benchmark engine,
// scorer and insight generator into one per-player match analysis.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pable/go-match-coach/internal/aggregator"
	"github.com/pable/go-match-coach/internal/apperrors"
	"github.com/pable/go-match-coach/internal/benchmark"
	"github.com/pable/go-match-coach/internal/cache"
	"github.com/pable/go-match-coach/internal/gateway"
	"github.com/pable/go-match-coach/internal/insight"
	"github.com/pable/go-match-coach/internal/model"
	"github.com/pable/go-match-coach/internal/role"
	"github.com/pable/go-match-coach/internal/scoring"
)

// AnalysisTTL is how long a computed result stays in the cache.
const AnalysisTTL = 10 * time.Minute

// Fallback annotations recorded on AnalysisResult.Fallbacks.
const (
	FallbackBenchmarks   = "benchmarks:static"
	FallbackHeroes       = "heroes:unavailable"
	FallbackProgression  = "progression:empty"
	FallbackFarmPriority = "farm_priority:default"
)

// Source is the upstream data the pipeline reads. *gateway.Client implements it.
type Source interface {
	Match(ctx context.Context, matchID int64) (*model.MatchRecord, error)
	Benchmarks(ctx context.Context, heroID int) (*model.HeroBenchmarks, error)
	Heroes(ctx context.Context) (map[int]model.Hero, error)
	Batch(ctx context.Context, reqs []gateway.Request) []gateway.BatchResult
}

// Recorder persists fresh analyses. *storage.DB implements it.
type Recorder interface {
	SaveAnalysis(r *model.AnalysisResult) error
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	src      Source
	cache    *cache.Cache
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache shares a cache with the gateway. Without it the pipeline owns one.
func WithCache(c *cache.Cache) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.cache = c
		}
	}
}

// WithRecorder persists every freshly computed result.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock replaces time.Now for AnalyzedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New returns a pipeline reading from src.
func New(src Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		src:    src,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = cache.New()
	}
	return p
}

// CacheKey is the cache key of the analysis of accountID in matchID.
func CacheKey(matchID, accountID int64) string {
	return fmt.Sprintf("analysis:%d:%d", matchID, accountID)
}

// Analyze returns the analysis of accountID's performance in matchID. Results
// are cached for AnalysisTTL. A failed match fetch or an absent player is an
// error; every other failed sub-part degrades and is listed in Fallbacks.
func (p *Pipeline) Analyze(ctx context.Context, matchID, accountID int64) (*model.AnalysisResult, error) {
	return cache.GetOrSetAs(ctx, p.cache, CacheKey(matchID, accountID), func(ctx context.Context) (*model.AnalysisResult, error) {
		return p.run(ctx, matchID, accountID)
	}, AnalysisTTL)
}

// Invalidate drops the cached analysis for (matchID, accountID).
func (p *Pipeline) Invalidate(matchID, accountID int64) {
	p.cache.Delete(CacheKey(matchID, accountID))
}

func (p *Pipeline) run(ctx context.Context, matchID, accountID int64) (*model.AnalysisResult, error) {
	log := p.logger.With(zap.Int64("match_id", matchID), zap.Int64("account_id", accountID))

	match, err := p.src.Match(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("fetch match %d: %w", matchID, err)
	}
	player := match.FindPlayer(accountID)
	if player == nil {
		return nil, &apperrors.NotFoundError{
			Resource: "player",
			ID:       fmt.Sprintf("%d in match %d", accountID, matchID),
		}
	}

	res := &model.AnalysisResult{
		RunID:     uuid.NewString(),
		MatchID:   match.MatchID,
		AccountID: accountID,
		HeroID:    player.HeroID,
		Won:       match.Won(player),
		Duration:  match.Duration,
	}

	det := role.Detect(player, match)
	res.Role, res.Confidence, res.RoleMethod = det.Role, det.Confidence, det.Method
	if det.Method == model.MethodHeuristic && len(match.Teammates(player)) == 0 {
		res.Fallbacks = append(res.Fallbacks, FallbackFarmPriority)
	}

	metrics, err := aggregator.Derive(match, player)
	if err != nil {
		return nil, fmt.Errorf("derive metrics: %w", err)
	}

	bench, err := p.src.Benchmarks(ctx, player.HeroID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn("benchmarks unavailable, using static table", zap.Int("hero_id", player.HeroID), zap.Error(err))
		res.Fallbacks = append(res.Fallbacks, FallbackBenchmarks)
		bench = nil
	}

	scores := scoring.ApplyWeights(benchmark.ScoreAll(metrics, bench), det.Role)
	overall := scoring.Score(scores, scoring.WeightsFor(det.Role))
	res.MetricScores = scores
	res.OverallScore, res.OverallGrade = overall.Score, overall.Grade

	rep := insight.Generate(player, match, det.Role)
	res.Mistakes = rep.Mistakes
	res.Strengths = rep.Strengths
	res.CoachingPoints = rep.CoachingPoints
	res.ImprovementScore = rep.ImprovementScore
	res.SubScores = rep.SubScores

	res.Progression = aggregator.Progression(player)
	if res.Progression == nil {
		res.Progression = []model.ProgressionPoint{}
		res.Fallbacks = append(res.Fallbacks, FallbackProgression)
	}

	if heroes, err := p.src.Heroes(ctx); err != nil {
		log.Warn("hero constants unavailable", zap.Error(err))
		res.Fallbacks = append(res.Fallbacks, FallbackHeroes)
	} else if h, ok := heroes[player.HeroID]; ok {
		res.HeroName = h.LocalizedName
	}

	res.AnalyzedAt = p.now().UTC()
	log.Debug("analysis complete",
		zap.String("run_id", res.RunID),
		zap.String("role", res.Role.String()),
		zap.Int("overall", res.OverallScore),
		zap.Strings("fallbacks", res.Fallbacks))

	if p.recorder != nil {
		if err := p.recorder.SaveAnalysis(res); err != nil {
			log.Warn("failed to record analysis", zap.Error(err))
		}
	}
	return res, nil
}

// WarmSummary reports what Warm prefetched.
type WarmSummary struct {
	Matches    int
	Benchmarks int
	Failed     map[string]error // endpoint → error
}

// Warm prefetches matchIDs and the benchmarks of every hero in them so later
// Analyze calls are served from the cache.
func (p *Pipeline) Warm(ctx context.Context, matchIDs []int64) WarmSummary {
	sum := WarmSummary{Failed: map[string]error{}}

	reqs := make([]gateway.Request, len(matchIDs))
	for i, id := range matchIDs {
		reqs[i] = gateway.MatchRequest(id)
	}

	heroSet := map[int]bool{}
	for _, r := range p.src.Batch(ctx, reqs) {
		if r.Err != nil {
			sum.Failed[r.Request.Endpoint] = r.Err
			continue
		}
		m, err := gateway.DecodeMatch(r.Data)
		if err != nil {
			sum.Failed[r.Request.Endpoint] = err
			continue
		}
		sum.Matches++
		for _, pl := range m.Players {
			if pl.HeroID != 0 {
				heroSet[pl.HeroID] = true
			}
		}
	}

	heroIDs := make([]int, 0, len(heroSet))
	for id := range heroSet {
		heroIDs = append(heroIDs, id)
	}
	sort.Ints(heroIDs)

	breqs := make([]gateway.Request, len(heroIDs))
	for i, id := range heroIDs {
		breqs[i] = gateway.BenchmarksRequest(id)
	}
	for _, r := range p.src.Batch(ctx, breqs) {
		if r.Err != nil {
			key := r.Request.Endpoint + "?hero_id=" + r.Request.Params["hero_id"]
			sum.Failed[key] = r.Err
			continue
		}
		sum.Benchmarks++
	}

	if len(sum.Failed) > 0 {
		p.logger.Warn("warm finished with failures", zap.Int("failed", len(sum.Failed)))
	}
	return sum
}

// IsNotFound reports whether err means the match or player does not exist.
func IsNotFound(err error) bool {
	var nf *apperrors.NotFoundError
	return errors.As(err, &nf)
}

// ParseID parses a numeric match or account id argument.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

// InventoryNames resolves the player's final item ids to display names using
// the item constants. Unknown ids render as "item_<id>".
func InventoryNames(p *model.PlayerRecord, items map[string]model.Item) []string {
	byID := make(map[int]string, len(items))
	for key, it := range items {
		name := it.Name
		if name == "" {
			name = key
		}
		byID[it.ID] = name
	}
	ids := p.Inventory()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			out = append(out, name)
		} else {
			out = append(out, "item_"+strconv.Itoa(id))
		}
	}
	return out
}
