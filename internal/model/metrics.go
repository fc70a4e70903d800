package model

import "sort"

// Metric names. The per-minute and damage names match the upstream
// benchmark keys so distributions can be looked up directly.
const (
	MetricGPM            = "gold_per_min"
	MetricXPM            = "xp_per_min"
	MetricKPM            = "kills_per_min"
	MetricLHPM           = "last_hits_per_min"
	MetricHDPM           = "hero_damage_per_min"
	MetricHealPM         = "hero_healing_per_min"
	MetricTowerDamage    = "tower_damage"
	MetricKills          = "kills"
	MetricDeaths         = "deaths"
	MetricAssists        = "assists"
	MetricKDA            = "kda"
	MetricLastHits       = "last_hits"
	MetricDenies         = "denies"
	MetricWardsPlaced    = "wards_placed"
	MetricWardsDestroyed = "wards_destroyed"
	MetricHeroHealing    = "hero_healing"
	MetricTeamfight      = "teamfight_participation"
)

// Metrics holds the derived metric values for one player in one match.
// A metric is absent when its inputs were missing.
type Metrics map[string]float64

// Get returns the value of name and whether it is present.
func (m Metrics) Get(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}

// Value returns the value of name, or 0 when absent.
func (m Metrics) Value(name string) float64 { return m[name] }

// Names returns the metric names in sorted order.
func (m Metrics) Names() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
