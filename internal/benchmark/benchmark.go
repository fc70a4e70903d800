// Package benchmark maps raw metric values to population percentiles, letter
// grades and short interpretations.
package benchmark

import (
	"math"

	"github.com/pable/go-match-coach/internal/model"
)

const (
	// MaxPercentile is the ceiling of every computed percentile.
	MaxPercentile = 99.0
	// NeutralPercentile is assigned to metrics with no benchmark data at all.
	NeutralPercentile = 50.0
	// overTopStep is the percentile gained per 100% above the top benchmark value.
	overTopStep = 10.0
)

// Percentile locates value within dist. dist must be ordered ascending in
// both percentile and value. Values below the first point scale linearly from
// zero; values above the last point gain overTopStep per 100% overshoot.
// The result is always within [0, MaxPercentile]. An empty dist yields 0.
func Percentile(value float64, dist model.BenchmarkDistribution) float64 {
	if len(dist) == 0 {
		return 0
	}

	first := dist[0]
	if value <= first.Value {
		if first.Value <= 0 {
			return clamp(first.Percentile)
		}
		return clamp(first.Percentile * value / first.Value)
	}

	for i := 1; i < len(dist); i++ {
		hi := dist[i]
		if hi.Value < value {
			continue
		}
		lo := dist[i-1]
		if hi.Value == lo.Value {
			return clamp(hi.Percentile)
		}
		frac := (value - lo.Value) / (hi.Value - lo.Value)
		return clamp(lo.Percentile + frac*(hi.Percentile-lo.Percentile))
	}

	top := dist[len(dist)-1]
	if top.Value <= 0 {
		return clamp(top.Percentile)
	}
	over := (value - top.Value) / top.Value
	return clamp(top.Percentile + overTopStep*over)
}

// GradeOf maps a percentile to a letter grade.
func GradeOf(p float64) string {
	switch {
	case p >= 90:
		return "S"
	case p >= 80:
		return "A"
	case p >= 70:
		return "B"
	case p >= 50:
		return "C"
	default:
		return "D"
	}
}

// Score grades one metric. A distribution takes precedence, then the static
// table; a metric with neither scores NeutralPercentile with SourceNone.
func Score(metric string, value float64, dist model.BenchmarkDistribution) model.MetricScore {
	var p float64
	var src model.ScoreSource
	switch {
	case len(dist) > 0:
		p, src = Percentile(value, dist), model.SourceDistribution
	default:
		if sp, ok := StaticPercentile(metric, value); ok {
			p, src = sp, model.SourceStatic
		} else {
			p, src = NeutralPercentile, model.SourceNone
		}
	}
	// Grade the exact value; only the stored percentile is rounded.
	return model.MetricScore{
		Metric:         metric,
		Value:          value,
		Percentile:     math.Round(p*10) / 10,
		Grade:          GradeOf(p),
		Interpretation: Interpret(metric, p),
		Source:         src,
	}
}

// ScoreAll grades every metric in ms against the hero's benchmarks, which may be nil.
func ScoreAll(ms model.Metrics, hb *model.HeroBenchmarks) map[string]model.MetricScore {
	out := make(map[string]model.MetricScore, len(ms))
	for name, v := range ms {
		out[name] = Score(name, v, hb.Distribution(name))
	}
	return out
}

func clamp(p float64) float64 {
	return math.Max(0, math.Min(MaxPercentile, p))
}
