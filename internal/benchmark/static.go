package benchmark

import "github.com/pable/go-match-coach/internal/model"

// Tier is a four-threshold static benchmark for one metric. For inverse
// metrics lower values are better.
type Tier struct {
	Excellent float64
	Good      float64
	Average   float64
	Poor      float64
	Inverse   bool
}

// Percentiles assigned to each static tier.
const (
	pctExcellent = 95.0
	pctGood      = 75.0
	pctAverage   = 50.0
	pctPoor      = 25.0
	pctBottom    = 10.0
)

// Static is the fallback table used when no population distribution is
// available for a metric.
var Static = map[string]Tier{
	model.MetricGPM:            {Excellent: 650, Good: 500, Average: 400, Poor: 300},
	model.MetricXPM:            {Excellent: 700, Good: 550, Average: 450, Poor: 350},
	model.MetricKPM:            {Excellent: 0.4, Good: 0.25, Average: 0.15, Poor: 0.08},
	model.MetricLHPM:           {Excellent: 9, Good: 7, Average: 5, Poor: 3},
	model.MetricHDPM:           {Excellent: 800, Good: 550, Average: 400, Poor: 250},
	model.MetricHealPM:         {Excellent: 150, Good: 80, Average: 40, Poor: 15},
	model.MetricTowerDamage:    {Excellent: 6000, Good: 3000, Average: 1500, Poor: 500},
	model.MetricLastHits:       {Excellent: 300, Good: 200, Average: 120, Poor: 60},
	model.MetricDenies:         {Excellent: 15, Good: 10, Average: 5, Poor: 2},
	model.MetricKills:          {Excellent: 12, Good: 8, Average: 5, Poor: 2},
	model.MetricDeaths:         {Excellent: 2, Good: 4, Average: 6, Poor: 9, Inverse: true},
	model.MetricAssists:        {Excellent: 20, Good: 14, Average: 9, Poor: 5},
	model.MetricKDA:            {Excellent: 6, Good: 4, Average: 2.5, Poor: 1.5},
	model.MetricWardsPlaced:    {Excellent: 20, Good: 12, Average: 7, Poor: 3},
	model.MetricWardsDestroyed: {Excellent: 6, Good: 4, Average: 2, Poor: 1},
	model.MetricHeroHealing:    {Excellent: 6000, Good: 3000, Average: 1000, Poor: 300},
	model.MetricTeamfight:      {Excellent: 0.75, Good: 0.6, Average: 0.45, Poor: 0.3},
}

// Percentile maps value onto the tier's fixed percentiles.
func (t Tier) Percentile(value float64) float64 {
	better := func(v, threshold float64) bool {
		if t.Inverse {
			return v <= threshold
		}
		return v >= threshold
	}
	switch {
	case better(value, t.Excellent):
		return pctExcellent
	case better(value, t.Good):
		return pctGood
	case better(value, t.Average):
		return pctAverage
	case better(value, t.Poor):
		return pctPoor
	default:
		return pctBottom
	}
}

// StaticPercentile looks metric up in Static.
func StaticPercentile(metric string, value float64) (float64, bool) {
	t, ok := Static[metric]
	if !ok {
		return 0, false
	}
	return t.Percentile(value), true
}
