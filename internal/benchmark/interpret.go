package benchmark

import (
	"strings"

	"github.com/pable/go-match-coach/internal/model"
)

// Interpretation tier thresholds.
const (
	highTier   = 75.0
	mediumTier = 40.0
)

// interpretations holds {high, medium, low} texts per metric.
var interpretations = map[string][3]string{
	model.MetricGPM: {
		"Excellent farming efficiency",
		"Decent gold income",
		"Gold income needs work; look for more efficient farm patterns",
	},
	model.MetricXPM: {
		"Strong experience gain, staying ahead in levels",
		"Reasonable experience gain",
		"Falling behind in levels; spend more time near creeps and fights",
	},
	model.MetricKPM: {
		"High kill pressure",
		"Moderate kill involvement",
		"Low kill threat",
	},
	model.MetricLHPM: {
		"Outstanding last-hitting",
		"Solid last-hitting",
		"Missing too many last hits",
	},
	model.MetricHDPM: {
		"High damage output in fights",
		"Average damage contribution",
		"Low damage output; look for safer angles to hit heroes",
	},
	model.MetricHealPM: {
		"Great sustain for the team",
		"Some healing contribution",
		"Little healing provided",
	},
	model.MetricTowerDamage: {
		"Strong objective pressure",
		"Some objective damage",
		"Rarely hitting buildings",
	},
	model.MetricDeaths: {
		"Very few deaths, excellent survival",
		"Acceptable number of deaths",
		"Dying too often",
	},
	model.MetricAssists: {
		"Present in most fights",
		"Decent fight presence",
		"Missing team fights",
	},
	model.MetricKDA: {
		"Outstanding kill/death ratio",
		"Balanced kill/death ratio",
		"Poor kill/death ratio",
	},
	model.MetricWardsPlaced: {
		"Excellent vision coverage",
		"Adequate warding",
		"Not enough wards placed",
	},
	model.MetricTeamfight: {
		"Involved in nearly every fight",
		"Regular fight participation",
		"Often absent from fights",
	},
	model.MetricLastHits: {
		"Huge creep score",
		"Reasonable creep score",
		"Low creep score",
	},
}

// Interpret returns a one-line reading of percentile p for metric.
func Interpret(metric string, p float64) string {
	tier := 2
	switch {
	case p >= highTier:
		tier = 0
	case p >= mediumTier:
		tier = 1
	}
	if texts, ok := interpretations[metric]; ok {
		return texts[tier]
	}
	label := strings.ReplaceAll(metric, "_", " ")
	switch tier {
	case 0:
		return "Above average " + label
	case 1:
		return "Average " + label
	default:
		return "Below average " + label
	}
}
