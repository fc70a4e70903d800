// Package aggregator turns a raw match record into the derived per-player
// metrics and progression snapshots the analysis stages consume.
package aggregator

import (
	"fmt"
	"math"

	"github.com/pable/go-match-coach/internal/model"
)

// ProgressionMinutes are the snapshot marks taken from the dense series.
var ProgressionMinutes = []int{10, 20, 30}

// Derive computes the metric set for player p in match m.
// Per-minute rates are omitted for zero-length matches.
func Derive(m *model.MatchRecord, p *model.PlayerRecord) (model.Metrics, error) {
	if m == nil || p == nil {
		return nil, fmt.Errorf("nil match or player")
	}

	out := model.Metrics{
		model.MetricKills:          float64(p.Kills),
		model.MetricDeaths:         float64(p.Deaths),
		model.MetricAssists:        float64(p.Assists),
		model.MetricKDA:            round2(p.KDA()),
		model.MetricLastHits:       float64(p.LastHits),
		model.MetricDenies:         float64(p.Denies),
		model.MetricTowerDamage:    float64(p.TowerDamage),
		model.MetricHeroHealing:    float64(p.HeroHealing),
		model.MetricWardsPlaced:    float64(p.WardsPlaced()),
		model.MetricWardsDestroyed: float64(p.WardsDestroyed()),
		model.MetricGPM:            float64(p.GoldPerMin),
		model.MetricXPM:            float64(p.XPPerMin),
	}

	if mins := m.Minutes(); mins > 0 {
		out[model.MetricKPM] = round2(float64(p.Kills) / mins)
		out[model.MetricLHPM] = round2(float64(p.LastHits) / mins)
		out[model.MetricHDPM] = round2(float64(p.HeroDamage) / mins)
		out[model.MetricHealPM] = round2(float64(p.HeroHealing) / mins)
	}

	if tf, ok := TeamfightParticipation(m, p); ok {
		out[model.MetricTeamfight] = tf
	}
	return out, nil
}

// TeamfightParticipation returns the upstream value when parsed, otherwise
// (kills+assists)/team kills capped at 1. It reports false when the team
// scored no kills and the upstream gave no value.
func TeamfightParticipation(m *model.MatchRecord, p *model.PlayerRecord) (float64, bool) {
	if p.TeamfightParticipation != nil {
		return clamp01(*p.TeamfightParticipation), true
	}
	teamKills := m.TeamKills(p.Side())
	if teamKills == 0 {
		return 0, false
	}
	return round2(clamp01(float64(p.Kills+p.Assists) / float64(teamKills))), true
}

// Progression snapshots last hits, gold and xp at each ProgressionMinutes mark
// the dense series reach. It returns nil when no series is present; marks past
// the end of every series are skipped rather than estimated.
func Progression(p *model.PlayerRecord) []model.ProgressionPoint {
	if p == nil || (len(p.LHTimes) == 0 && len(p.GoldTimes) == 0 && len(p.XPTimes) == 0) {
		return nil
	}
	var out []model.ProgressionPoint
	for _, minute := range ProgressionMinutes {
		lh, okLH := at(p.LHTimes, minute)
		gold, okGold := at(p.GoldTimes, minute)
		xp, okXP := at(p.XPTimes, minute)
		if !okLH && !okGold && !okXP {
			continue
		}
		out = append(out, model.ProgressionPoint{Minute: minute, LastHits: lh, Gold: gold, XP: xp})
	}
	return out
}

// LastHitsAt returns the last-hit count at minute, or false if the series is too short.
func LastHitsAt(p *model.PlayerRecord, minute int) (int, bool) {
	return at(p.LHTimes, minute)
}

func at(series []int, minute int) (int, bool) {
	if minute < 0 || minute >= len(series) {
		return 0, false
	}
	return series[minute], true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
