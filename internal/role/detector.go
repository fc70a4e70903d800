// Package role infers a player's functional role in a match, either from the
// upstream lane-role hint or from a heuristic over farm, support and
// positional signals.
package role

import (
	"math"

	"github.com/pable/go-match-coach/internal/aggregator"
	"github.com/pable/go-match-coach/internal/model"
)

// HintConfidence is reported when the upstream supplied a lane role.
const HintConfidence = 85

// Heuristic weights. Tuned so a dominant farmer in slot 1 lands on Carry and a
// ward-heavy low-farm player lands on a support role.
const (
	farmWeightCarry   = 40.0
	farmWeightMid     = 30.0
	farmWeightOfflane = 20.0

	positionalBonus = 10.0

	obsWeight            = 1.5
	senWeight            = 1.0
	wardKillWeight       = 1.0
	healingPer1kWeight   = 2.0
	assistSupportWeight  = 0.5
	supportItemWeight    = 3.0
	carryLowWardsBonus   = 10.0
	carryLowWardsLimit   = 2
	carryLHPMWeight      = 1.5
	carryHDPMDivisor     = 200.0
	midXPRatioWeight     = 10.0
	midEarlyLHWeight     = 8.0
	midEarlyLHDivisor    = 50.0
	midEarlyLHCap        = 2.0
	midHighXPMBonus      = 5.0
	midHighXPM           = 600
	offTowerDivisor      = 500.0
	offAssistWeight      = 0.8
	offBalancedFarmBonus = 8.0
	supportBase          = 12.0
	supportLowFarmWeight = 10.0
	hardSupBase          = 10.0
	hardSupSupportMult   = 1.2
	hardSupLowFarmWeight = 20.0
)

// supportItems are item ids that mark a player as buying for the team:
// wards, smoke, dust, gem, and the usual aura and save items.
var supportItems = map[int]bool{
	30:  true, // gem
	40:  true, // dust
	42:  true, // observer ward
	43:  true, // sentry ward
	79:  true, // mekansm
	90:  true, // pipe
	92:  true, // urn of shadows
	102: true, // force staff
	180: true, // arcane boots
	188: true, // smoke of deceit
	214: true, // tranquil boots
	218: true, // observer and sentry wards
	231: true, // guardian greaves
	254: true, // glimmer cape
	267: true, // spirit vessel
}

// Detection is the outcome of role detection. Scores is only populated on
// the heuristic path.
type Detection struct {
	Role       model.Role
	Confidence int
	Method     model.DetectionMethod
	Scores     map[model.Role]float64
}

// Detect returns p's role in m. It is deterministic for identical input.
func Detect(p *model.PlayerRecord, m *model.MatchRecord) Detection {
	if p.LaneRole != nil {
		if r, ok := model.RoleFromPosition(*p.LaneRole); ok {
			return Detection{Role: r, Confidence: HintConfidence, Method: model.MethodHint}
		}
	}

	scores := Scores(p, m)
	return Detection{
		Role:       best(scores),
		Confidence: 0,
		Method:     model.MethodHeuristic,
		Scores:     scores,
	}
}

// Scores computes the heuristic score for every role.
func Scores(p *model.PlayerRecord, m *model.MatchRecord) map[model.Role]float64 {
	farm, xpmRatio := teamRatios(p, m)
	sup := SupportScore(p)

	mins := m.Minutes()
	var lhpm, hdpm float64
	if mins > 0 {
		lhpm = float64(p.LastHits) / mins
		hdpm = float64(p.HeroDamage) / mins
	}

	carry := farmWeightCarry*farm + carryLHPMWeight*lhpm + hdpm/carryHDPMDivisor
	if p.WardsPlaced() <= carryLowWardsLimit {
		carry += carryLowWardsBonus
	}

	mid := farmWeightMid*farm + midXPRatioWeight*xpmRatio
	if lh10, ok := aggregator.LastHitsAt(p, 10); ok {
		mid += midEarlyLHWeight * math.Min(float64(lh10)/midEarlyLHDivisor, midEarlyLHCap)
	}
	if p.XPPerMin >= midHighXPM {
		mid += midHighXPMBonus
	}

	off := farmWeightOfflane*farm + float64(p.TowerDamage)/offTowerDivisor + offAssistWeight*float64(p.Assists)
	if farm >= 0.8 && farm <= 1.2 {
		off += offBalancedFarmBonus
	}

	support := supportBase + sup + supportLowFarmWeight*math.Max(0, 1.1-farm)
	hardSup := hardSupBase + hardSupSupportMult*sup + hardSupLowFarmWeight*math.Max(0, 1-farm)

	scores := map[model.Role]float64{
		model.RoleCarry:       carry,
		model.RoleMid:         mid,
		model.RoleOfflane:     off,
		model.RoleSupport:     support,
		model.RoleHardSupport: hardSup,
	}
	pos := p.Position()
	for r := range scores {
		if r.Position() == pos {
			scores[r] += positionalBonus
		}
	}
	return scores
}

// FarmPriority is the mean of p's gpm and xpm ratios against same-side
// teammates. A rate that neither p nor the teammates report is left out.
func FarmPriority(p *model.PlayerRecord, m *model.MatchRecord) float64 {
	f, _ := teamRatios(p, m)
	return f
}

// SupportScore aggregates vision, healing, assists and support items.
func SupportScore(p *model.PlayerRecord) float64 {
	items := 0
	for _, id := range p.Inventory() {
		if supportItems[id] {
			items++
		}
	}
	return obsWeight*float64(p.ObsPlaced) +
		senWeight*float64(p.SenPlaced) +
		wardKillWeight*float64(p.WardsDestroyed()) +
		healingPer1kWeight*float64(p.HeroHealing)/1000 +
		assistSupportWeight*float64(p.Assists) +
		supportItemWeight*float64(items)
}

// teamRatios returns p's farm priority and xpm ratio. A ratio is 1.0 when there
// are no teammates or their mean is zero; farm priority is 1.0 when neither
// rate is reported.
func teamRatios(p *model.PlayerRecord, m *model.MatchRecord) (float64, float64) {
	mates := m.Teammates(p)
	if len(mates) == 0 {
		return 1, 1
	}
	var gSum, xSum float64
	for _, t := range mates {
		gSum += float64(t.GoldPerMin)
		xSum += float64(t.XPPerMin)
	}
	n := float64(len(mates))
	gMean, xMean := gSum/n, xSum/n
	gpm, xpm := float64(p.GoldPerMin), float64(p.XPPerMin)
	xRatio := ratio(xpm, xMean)

	var sum float64
	var present int
	if gpm != 0 || gMean != 0 {
		sum += ratio(gpm, gMean)
		present++
	}
	if xpm != 0 || xMean != 0 {
		sum += xRatio
		present++
	}
	if present == 0 {
		return 1, xRatio
	}
	return sum / float64(present), xRatio
}

func ratio(v, mean float64) float64 {
	if mean == 0 {
		return 1
	}
	return v / mean
}

// best returns the highest-scoring role; ties go to the earlier role in
// precedence order.
func best(scores map[model.Role]float64) model.Role {
	winner := model.AllRoles[0]
	top := math.Inf(-1)
	for _, r := range model.AllRoles {
		if s, ok := scores[r]; ok && s > top {
			winner, top = r, s
		}
	}
	return winner
}
