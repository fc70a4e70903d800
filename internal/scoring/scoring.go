// Package scoring combines graded metrics into one weighted overall score.
package scoring

import (
	"math"

	"github.com/pable/go-match-coach/internal/benchmark"
	"github.com/pable/go-match-coach/internal/model"
)

// Weights maps metric name to its weight in the overall score.
type Weights map[string]float64

// RoleWeights holds the fixed five-metric table for each role. Weights sum
// to 1.0 by convention; Score does not require it.
var RoleWeights = map[model.Role]Weights{
	model.RoleCarry: {
		model.MetricGPM:         0.30,
		model.MetricLHPM:        0.25,
		model.MetricHDPM:        0.20,
		model.MetricXPM:         0.15,
		model.MetricTowerDamage: 0.10,
	},
	model.RoleMid: {
		model.MetricXPM:  0.25,
		model.MetricGPM:  0.20,
		model.MetricHDPM: 0.25,
		model.MetricKPM:  0.20,
		model.MetricLHPM: 0.10,
	},
	model.RoleOfflane: {
		model.MetricHDPM:        0.20,
		model.MetricTowerDamage: 0.20,
		model.MetricXPM:         0.20,
		model.MetricKPM:         0.15,
		model.MetricGPM:         0.25,
	},
	model.RoleSupport: {
		model.MetricWardsPlaced: 0.30,
		model.MetricAssists:     0.20,
		model.MetricHealPM:      0.20,
		model.MetricHDPM:        0.15,
		model.MetricXPM:         0.15,
	},
	model.RoleHardSupport: {
		model.MetricWardsPlaced: 0.35,
		model.MetricAssists:     0.25,
		model.MetricHealPM:      0.15,
		model.MetricDeaths:      0.10,
		model.MetricXPM:         0.15,
	},
}

// WeightsFor returns the table for r, or nil for an unknown role.
func WeightsFor(r model.Role) Weights {
	return RoleWeights[r]
}

// Overall is the weighted aggregate of a set of metric scores.
type Overall struct {
	Score int
	Grade string
}

// Score returns the rounded weighted mean of percentiles over metrics present
// in both scores and weights. A zero total weight yields 0.
func Score(scores map[string]model.MetricScore, weights Weights) Overall {
	var sum, total float64
	for metric, w := range weights {
		ms, ok := scores[metric]
		if !ok {
			continue
		}
		sum += ms.Percentile * w
		total += w
	}
	if total == 0 {
		return Overall{Score: 0, Grade: benchmark.GradeOf(0)}
	}
	s := int(math.Round(sum / total))
	return Overall{Score: s, Grade: benchmark.GradeOf(float64(s))}
}

// ApplyWeights stamps each score with its weight for r and returns the map.
// Metrics outside the role's table keep weight 0.
func ApplyWeights(scores map[string]model.MetricScore, r model.Role) map[string]model.MetricScore {
	w := WeightsFor(r)
	for name, ms := range scores {
		ms.Weight = w[name]
		scores[name] = ms
	}
	return scores
}
