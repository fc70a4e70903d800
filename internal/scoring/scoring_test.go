package scoring

import (
	"math"
	"testing"

	"github.com/pable/go-match-coach/internal/model"
)

func uniform(weights Weights, p float64) map[string]model.MetricScore {
	out := make(map[string]model.MetricScore, len(weights))
	for m := range weights {
		out[m] = model.MetricScore{Metric: m, Percentile: p}
	}
	return out
}

func TestRoleWeightsSumToOne(t *testing.T) {
	for _, r := range model.AllRoles {
		w := WeightsFor(r)
		if len(w) != 5 {
			t.Errorf("%v: expected 5 metrics, got %d", r, len(w))
		}
		var sum float64
		for _, v := range w {
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("%v: weights sum to %v", r, sum)
		}
	}
}

func TestScore_EqualPercentilesYieldP(t *testing.T) {
	for _, r := range model.AllRoles {
		for _, p := range []float64{0, 12, 50, 73, 99} {
			got := Score(uniform(WeightsFor(r), p), WeightsFor(r))
			if got.Score != int(p) {
				t.Errorf("%v p=%v: Score = %d", r, p, got.Score)
			}
		}
	}
}

func TestScore_WeightedMean(t *testing.T) {
	scores := map[string]model.MetricScore{
		"a": {Percentile: 90},
		"b": {Percentile: 40},
	}
	got := Score(scores, Weights{"a": 0.75, "b": 0.25})
	// 67.5 + 10 = 77.5 → 78
	if got.Score != 78 || got.Grade != "B" {
		t.Errorf("Score = %+v, want 78/B", got)
	}
}

func TestScore_MissingMetricsExcludedFromWeight(t *testing.T) {
	scores := map[string]model.MetricScore{"a": {Percentile: 80}}
	got := Score(scores, Weights{"a": 0.5, "b": 0.5})
	if got.Score != 80 {
		t.Errorf("Score = %d, want 80", got.Score)
	}
}

func TestScore_ZeroWeight(t *testing.T) {
	if got := Score(map[string]model.MetricScore{"a": {Percentile: 80}}, Weights{"a": 0}); got.Score != 0 {
		t.Errorf("zero weights: Score = %d", got.Score)
	}
	if got := Score(nil, nil); got.Score != 0 || got.Grade != "D" {
		t.Errorf("empty: %+v", got)
	}
}

func TestApplyWeights(t *testing.T) {
	scores := map[string]model.MetricScore{
		model.MetricGPM:   {Percentile: 60},
		model.MetricKills: {Percentile: 60},
	}
	ApplyWeights(scores, model.RoleCarry)
	if scores[model.MetricGPM].Weight != 0.30 {
		t.Errorf("gpm weight = %v", scores[model.MetricGPM].Weight)
	}
	if scores[model.MetricKills].Weight != 0 {
		t.Errorf("kills weight = %v", scores[model.MetricKills].Weight)
	}
}
