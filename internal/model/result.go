package model

import (
	"encoding/json"
	"time"
)

// ---- Benchmarks ----

// BenchmarkPoint is one (percentile, value) pair of a population distribution.
// Percentile is on a 0..100 scale.
type BenchmarkPoint struct {
	Percentile float64 `json:"percentile"`
	Value      float64 `json:"value"`
}

// BenchmarkDistribution is ordered ascending in both percentile and value.
type BenchmarkDistribution []BenchmarkPoint

// HeroBenchmarks holds every metric distribution for one hero.
type HeroBenchmarks struct {
	HeroID int                              `json:"hero_id"`
	Result map[string]BenchmarkDistribution `json:"result"`
}

// UnmarshalJSON accepts hero_id as a number or a string and rescales
// fractional percentiles (0.1, 0.5, 0.99) to the 0..100 scale.
func (h *HeroBenchmarks) UnmarshalJSON(b []byte) error {
	var raw struct {
		HeroID json.RawMessage                  `json:"hero_id"`
		Result map[string]BenchmarkDistribution `json:"result"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	h.HeroID = 0
	if len(raw.HeroID) > 0 {
		// json.Number accepts both 14 and "14".
		var n json.Number
		if err := json.Unmarshal(raw.HeroID, &n); err == nil {
			v, _ := n.Int64()
			h.HeroID = int(v)
		}
	}
	h.Result = make(map[string]BenchmarkDistribution, len(raw.Result))
	for metric, dist := range raw.Result {
		h.Result[metric] = dist.normalized()
	}
	return nil
}

// normalized returns the distribution on a 0..100 percentile scale.
func (d BenchmarkDistribution) normalized() BenchmarkDistribution {
	fractional := len(d) > 0
	for _, p := range d {
		if p.Percentile > 1 {
			fractional = false
			break
		}
	}
	if !fractional {
		return d
	}
	out := make(BenchmarkDistribution, len(d))
	for i, p := range d {
		out[i] = BenchmarkPoint{Percentile: p.Percentile * 100, Value: p.Value}
	}
	return out
}

// Distribution returns the distribution for metric, or nil if absent.
func (h *HeroBenchmarks) Distribution(metric string) BenchmarkDistribution {
	if h == nil {
		return nil
	}
	return h.Result[metric]
}

// ---- Analysis output ----

// ScoreSource records where a metric's percentile came from.
type ScoreSource string

const (
	SourceDistribution ScoreSource = "distribution"
	SourceStatic       ScoreSource = "static"
	SourceNone         ScoreSource = "none"
)

// MetricScore is one graded metric.
type MetricScore struct {
	Metric         string      `json:"metric"`
	Value          float64     `json:"value"`
	Percentile     float64     `json:"percentile"`
	Grade          string      `json:"grade"`
	Weight         float64     `json:"weight"`
	Interpretation string      `json:"interpretation"`
	Source         ScoreSource `json:"source"`
}

// DetectionMethod records how a role was determined.
type DetectionMethod string

const (
	MethodHint      DetectionMethod = "hint"
	MethodHeuristic DetectionMethod = "heuristic"
)

// Severity of a mistake finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityPositive Severity = "positive"
)

// Finding is one mistake or strength produced by the insight rules.
type Finding struct {
	Type        Severity `json:"type"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Impact      string   `json:"impact,omitempty"`
	Improvement string   `json:"improvement,omitempty"`
	Priority    int      `json:"priority,omitempty"`
}

// CoachingPoint is one concrete action item.
type CoachingPoint struct {
	Area     string `json:"area"`
	Action   string `json:"action"`
	Priority int    `json:"priority"`
}

// SubScores are the 0..100 sub-area scores behind the improvement score.
type SubScores struct {
	Farming      int `json:"farming"`
	Positioning  int `json:"positioning"`
	Teamfighting int `json:"teamfighting"`
	Vision       int `json:"vision"`
	Itemization  int `json:"itemization"`
}

// ProgressionPoint is a snapshot of the dense series at one minute mark.
type ProgressionPoint struct {
	Minute   int `json:"minute"`
	LastHits int `json:"last_hits"`
	Gold     int `json:"gold"`
	XP       int `json:"xp"`
}

// AnalysisResult is the pipeline's output for one (match, account) pair.
type AnalysisResult struct {
	RunID      string          `json:"run_id"`
	MatchID    int64           `json:"match_id"`
	AccountID  int64           `json:"account_id"`
	HeroID     int             `json:"hero_id"`
	HeroName   string          `json:"hero_name,omitempty"`
	Won        bool            `json:"won"`
	Duration   int             `json:"duration"`
	Role       Role            `json:"role"`
	Confidence int             `json:"confidence"`
	RoleMethod DetectionMethod `json:"role_method"`

	MetricScores map[string]MetricScore `json:"metric_scores"`
	OverallScore int                    `json:"overall_score"`
	OverallGrade string                 `json:"overall_grade"`

	Mistakes         []Finding       `json:"mistakes"`
	Strengths        []Finding       `json:"strengths"`
	CoachingPoints   []CoachingPoint `json:"coaching_points"`
	ImprovementScore int             `json:"improvement_score"`
	SubScores        SubScores       `json:"sub_scores"`

	Progression []ProgressionPoint `json:"progression"`
	// Fallbacks names the sub-parts that used degraded data, e.g. "benchmarks:static".
	Fallbacks  []string  `json:"fallbacks,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// UsedFallback reports whether the named sub-part degraded.
func (r *AnalysisResult) UsedFallback(part string) bool {
	for _, f := range r.Fallbacks {
		if f == part {
			return true
		}
	}
	return false
}

// AnalysisSummary is a lightweight record for list/trend commands.
type AnalysisSummary struct {
	RunID            string
	MatchID          int64
	AccountID        int64
	HeroID           int
	Role             Role
	Won              bool
	OverallScore     int
	OverallGrade     string
	ImprovementScore int
	Mistakes         int
	AnalyzedAt       time.Time
}
