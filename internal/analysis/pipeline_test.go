package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pable/go-match-coach/internal/apperrors"
	"github.com/pable/go-match-coach/internal/cache"
	"github.com/pable/go-match-coach/internal/gateway"
	"github.com/pable/go-match-coach/internal/model"
	"github.com/pable/go-match-coach/internal/storage"
)

// matchJSON: account 42 on hero 1 out-farms four radiant teammates.
const matchJSON = `{
	"match_id": 7000, "duration": 2100, "radiant_win": true,
	"players": [
		{"account_id": 42, "player_slot": 0, "hero_id": 1, "kills": 10, "deaths": 2, "assists": 8,
		 "gold_per_min": 650, "xp_per_min": 700, "last_hits": 300, "obs_placed": 1, "hero_damage": 28000,
		 "lh_t": [0,4,9,15,21,27,33,40,47,54,62,70,78,86,94,102,110,118,126,134,142]},
		{"account_id": 2, "player_slot": 1, "hero_id": 2, "gold_per_min": 500, "xp_per_min": 550, "kills": 6},
		{"account_id": 3, "player_slot": 2, "hero_id": 3, "gold_per_min": 500, "xp_per_min": 550, "kills": 4},
		{"account_id": 4, "player_slot": 3, "hero_id": 4, "gold_per_min": 500, "xp_per_min": 550},
		{"account_id": 5, "player_slot": 4, "hero_id": 5, "gold_per_min": 500, "xp_per_min": 550},
		{"account_id": 6, "player_slot": 128, "hero_id": 6, "gold_per_min": 480, "kills": 9}
	]
}`

const benchJSON = `{"hero_id": 1, "result": {
	"gold_per_min": [{"percentile": 0.1, "value": 300}, {"percentile": 0.5, "value": 450}, {"percentile": 0.9, "value": 650}],
	"xp_per_min": [{"percentile": 0.1, "value": 350}, {"percentile": 0.5, "value": 500}, {"percentile": 0.9, "value": 700}]
}}`

const heroesJSON = `{"1": {"id": 1, "localized_name": "Anti-Mage"}}`

// fakeUpstream serves the three endpoints and counts requests per path.
type fakeUpstream struct {
	mu         sync.Mutex
	hits       map[string]int
	benchFails bool
}

func (f *fakeUpstream) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	benchFails := f.benchFails
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/matches/7000":
		fmt.Fprint(w, matchJSON)
	case r.URL.Path == "/benchmarks":
		if benchFails {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, benchJSON)
	case r.URL.Path == "/constants/heroes":
		fmt.Fprint(w, heroesJSON)
	case strings.HasPrefix(r.URL.Path, "/matches/"):
		http.NotFound(w, r)
	default:
		http.Error(w, "unexpected path", http.StatusBadRequest)
	}
}

func newPipeline(t *testing.T, up *fakeUpstream, opts ...Option) *Pipeline {
	t.Helper()
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	c := cache.New()
	gw := gateway.New(gateway.Config{BaseURL: srv.URL, MinDelay: -1}, gateway.WithCache(c))
	return New(gw, append([]Option{WithCache(c)}, opts...)...)
}

func TestAnalyze_CarryWithBenchmarks(t *testing.T) {
	up := &fakeUpstream{hits: map[string]int{}}
	p := newPipeline(t, up)

	res, err := p.Analyze(context.Background(), 7000, 42)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Role != model.RoleCarry || res.RoleMethod != model.MethodHeuristic {
		t.Errorf("role = %v via %v", res.Role, res.RoleMethod)
	}
	if res.HeroName != "Anti-Mage" || !res.Won {
		t.Errorf("hero=%q won=%v", res.HeroName, res.Won)
	}
	if res.RunID == "" {
		t.Error("RunID not set")
	}
	gpm := res.MetricScores[model.MetricGPM]
	if gpm.Source != model.SourceDistribution || gpm.Percentile != 90 || gpm.Weight != 0.30 {
		t.Errorf("gpm score = %+v", gpm)
	}
	if res.OverallScore <= 0 || res.OverallGrade == "" {
		t.Errorf("overall = %d %q", res.OverallScore, res.OverallGrade)
	}
	if len(res.Progression) != 2 || res.Progression[0].LastHits != 62 {
		t.Errorf("progression = %+v", res.Progression)
	}
	if len(res.Fallbacks) != 0 {
		t.Errorf("unexpected fallbacks %v", res.Fallbacks)
	}
}

func TestAnalyze_CachedResult(t *testing.T) {
	up := &fakeUpstream{hits: map[string]int{}}
	p := newPipeline(t, up)

	first, err := p.Analyze(context.Background(), 7000, 42)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := p.Analyze(context.Background(), 7000, 42)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if first.RunID != second.RunID {
		t.Error("second call should return the cached result")
	}
	if n := up.count("/matches/7000"); n != 1 {
		t.Errorf("match fetched %d times", n)
	}

	// Another account in the same match reuses the cached match payload.
	if _, err := p.Analyze(context.Background(), 7000, 2); err != nil {
		t.Fatalf("Analyze teammate: %v", err)
	}
	if n := up.count("/matches/7000"); n != 1 {
		t.Errorf("match fetched %d times after teammate analysis", n)
	}
}

func TestAnalyze_PlayerNotInMatch(t *testing.T) {
	p := newPipeline(t, &fakeUpstream{hits: map[string]int{}})

	_, err := p.Analyze(context.Background(), 7000, 999)
	var nf *apperrors.NotFoundError
	if !errors.As(err, &nf) || nf.Resource != "player" {
		t.Fatalf("expected player NotFoundError, got %v", err)
	}
}

func TestAnalyze_MatchNotFound(t *testing.T) {
	p := newPipeline(t, &fakeUpstream{hits: map[string]int{}})

	_, err := p.Analyze(context.Background(), 1, 42)
	if !IsNotFound(err) || !apperrors.IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestAnalyze_BenchmarksDownDegradesToStatic(t *testing.T) {
	up := &fakeUpstream{hits: map[string]int{}, benchFails: true}
	p := newPipeline(t, up)

	res, err := p.Analyze(context.Background(), 7000, 42)
	if err != nil {
		t.Fatalf("Analyze should degrade, got %v", err)
	}
	if !res.UsedFallback(FallbackBenchmarks) {
		t.Errorf("fallbacks = %v", res.Fallbacks)
	}
	gpm := res.MetricScores[model.MetricGPM]
	if gpm.Source != model.SourceStatic || gpm.Percentile != 95 {
		t.Errorf("gpm = %+v, want static 95", gpm)
	}
	if len(res.Strengths) == 0 {
		t.Error("insights should still be generated")
	}
}

func TestAnalyze_RecordsToStorage(t *testing.T) {
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newPipeline(t, &fakeUpstream{hits: map[string]int{}},
		WithRecorder(db), WithClock(func() time.Time { return at }))

	res, err := p.Analyze(context.Background(), 7000, 42)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	stored, err := db.GetAnalysis(7000, 42)
	if err != nil || stored == nil {
		t.Fatalf("GetAnalysis: %v %v", stored, err)
	}
	if stored.RunID != res.RunID || !stored.AnalyzedAt.Equal(at) {
		t.Errorf("stored = %s at %v", stored.RunID, stored.AnalyzedAt)
	}
}

func TestWarm_PrefetchesMatchesAndBenchmarks(t *testing.T) {
	up := &fakeUpstream{hits: map[string]int{}}
	p := newPipeline(t, up)

	sum := p.Warm(context.Background(), []int64{7000, 1})
	if sum.Matches != 1 {
		t.Errorf("Matches = %d", sum.Matches)
	}
	if sum.Benchmarks != 6 {
		t.Errorf("Benchmarks = %d, want one per hero", sum.Benchmarks)
	}
	if _, ok := sum.Failed["/matches/1"]; !ok || len(sum.Failed) != 1 {
		t.Errorf("Failed = %v", sum.Failed)
	}

	before := up.count("/matches/7000") + up.count("/benchmarks")
	if _, err := p.Analyze(context.Background(), 7000, 42); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if after := up.count("/matches/7000") + up.count("/benchmarks"); after != before {
		t.Errorf("Analyze after Warm hit the network (%d → %d)", before, after)
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("7000"); err != nil || id != 7000 {
		t.Errorf("ParseID(7000) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "abc", "-5", "0"} {
		if _, err := ParseID(bad); err == nil {
			t.Errorf("ParseID(%q) should fail", bad)
		}
	}
}

func TestInventoryNames(t *testing.T) {
	p := &model.PlayerRecord{Item0: 1, Item1: 116, Item3: 999}
	items := map[string]model.Item{
		"blink":          {ID: 1, Name: "Blink Dagger"},
		"black_king_bar": {ID: 116},
	}
	got := InventoryNames(p, items)
	want := []string{"Blink Dagger", "black_king_bar", "item_999"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("InventoryNames = %v, want %v", got, want)
	}
}
