// Package insight applies threshold rules to a player's match record and
// produces mistakes, strengths, coaching points and an improvement score.
package insight

import (
	"math"
	"sort"

	"github.com/pable/go-match-coach/internal/model"
)

const (
	neutralSubScore   = 50
	maxCoachingPoints = 3
)

// Report is the outcome of Generate.
type Report struct {
	Mistakes         []model.Finding
	Strengths        []model.Finding
	CoachingPoints   []model.CoachingPoint
	ImprovementScore int
	SubScores        model.SubScores
}

// Generate evaluates every rule against p in m for role r. Mistakes are
// sorted by priority (stable); strengths keep rule order.
func Generate(p *model.PlayerRecord, m *model.MatchRecord, r model.Role) Report {
	f := newFacts(p, m, r)

	mistakes := evaluate(mistakeRules, f)
	sort.SliceStable(mistakes, func(i, j int) bool {
		return mistakes[i].Priority < mistakes[j].Priority
	})
	strengths := evaluate(strengthRules, f)

	sub := subScores(f)
	return Report{
		Mistakes:         mistakes,
		Strengths:        strengths,
		CoachingPoints:   coaching(mistakes, r),
		ImprovementScore: ImprovementScore(sub),
		SubScores:        sub,
	}
}

func evaluate(rules []rule, f *facts) []model.Finding {
	out := []model.Finding{}
	for _, r := range rules {
		if r.when(f) {
			out = append(out, r.build(f))
		}
	}
	return out
}

func coaching(mistakes []model.Finding, r model.Role) []model.CoachingPoint {
	var out []model.CoachingPoint
	for _, m := range mistakes {
		if len(out) == maxCoachingPoints {
			break
		}
		out = append(out, model.CoachingPoint{Area: m.Category, Action: m.Improvement, Priority: m.Priority})
	}
	if len(out) == 0 {
		if tip, ok := roleTips[r]; ok {
			out = append(out, model.CoachingPoint{Area: r.String(), Action: tip, Priority: 3})
		}
	}
	return out
}

// ImprovementScore is the equal-weight mean of the sub-scores, rounded.
func ImprovementScore(s model.SubScores) int {
	sum := s.Farming + s.Positioning + s.Teamfighting + s.Vision + s.Itemization
	return int(math.Round(float64(sum) / 5))
}

// farmTargets is the gpm that scores 100 on farming, per role.
var farmTargets = map[model.Role]float64{
	model.RoleCarry:       600,
	model.RoleMid:         550,
	model.RoleOfflane:     450,
	model.RoleSupport:     300,
	model.RoleHardSupport: 250,
}

// visionTargets is wards per 10 minutes that scores 100 on vision, per role.
var visionTargets = map[model.Role]float64{
	model.RoleCarry:       0.5,
	model.RoleMid:         1,
	model.RoleOfflane:     1,
	model.RoleSupport:     4,
	model.RoleHardSupport: 5,
}

// coreItems are purchases that count toward itemization.
var coreItems = map[string]bool{
	"black_king_bar": true, "blink": true, "manta": true, "bfury": true,
	"desolator": true, "butterfly": true, "satanic": true, "skadi": true,
	"assault": true, "heart": true, "shivas_guard": true, "sange_and_yasha": true,
	"kaya_and_sange": true, "yasha_and_kaya": true, "orchid": true, "bloodthorn": true,
	"ultimate_scepter": true, "force_staff": true, "glimmer_cape": true,
	"guardian_greaves": true, "pipe": true, "crimson_guard": true, "lotus_orb": true,
	"vladmir": true, "mekansm": true, "spirit_vessel": true, "aether_lens": true,
	"solar_crest": true, "hand_of_midas": true, "radiance": true, "maelstrom": true,
	"mjollnir": true, "diffusal_blade": true, "heavens_halberd": true, "sphere": true,
	"silver_edge": true, "abyssal_blade": true, "monkey_king_bar": true, "greater_crit": true,
	"aeon_disk": true, "ghost": true, "cyclone": true, "rod_of_atos": true,
}

func subScores(f *facts) model.SubScores {
	return model.SubScores{
		Farming:      farming(f),
		Positioning:  positioning(f),
		Teamfighting: teamfighting(f),
		Vision:       vision(f),
		Itemization:  itemization(f),
	}
}

func farming(f *facts) int {
	if f.p.GoldPerMin == 0 && f.p.LastHits == 0 {
		return neutralSubScore
	}
	return capScore(float64(f.p.GoldPerMin) / farmTargets[f.role] * 100)
}

func positioning(f *facts) int {
	return capScore(100 - 8*float64(f.p.Deaths))
}

func teamfighting(f *facts) int {
	if !f.hasTF {
		return neutralSubScore
	}
	return capScore(f.tf * 100)
}

func vision(f *facts) int {
	if f.minutes <= 0 {
		return neutralSubScore
	}
	perTen := float64(f.p.WardsPlaced()) / f.minutes * 10
	return capScore(perTen / visionTargets[f.role] * 100)
}

func itemization(f *facts) int {
	if len(f.p.PurchaseLog) == 0 {
		return neutralSubScore
	}
	seen := map[string]bool{}
	for _, ev := range f.p.PurchaseLog {
		if coreItems[ev.Key] {
			seen[ev.Key] = true
		}
	}
	return capScore(40 + 12*float64(len(seen)))
}

func capScore(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}
