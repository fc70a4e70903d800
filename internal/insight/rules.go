package insight

import (
	"fmt"

	"github.com/pable/go-match-coach/internal/aggregator"
	"github.com/pable/go-match-coach/internal/model"
)

// facts is the read-only view every rule evaluates. Absent numeric fields are
// zero; optional values carry a presence flag.
type facts struct {
	p       *model.PlayerRecord
	m       *model.MatchRecord
	role    model.Role
	minutes float64
	metrics model.Metrics
	tf      float64
	hasTF   bool
}

func newFacts(p *model.PlayerRecord, m *model.MatchRecord, r model.Role) *facts {
	f := &facts{p: p, m: m, role: r, minutes: m.Minutes()}
	f.metrics, _ = aggregator.Derive(m, p)
	f.tf, f.hasTF = aggregator.TeamfightParticipation(m, p)
	return f
}

func (f *facts) isSupport() bool {
	return f.role == model.RoleSupport || f.role == model.RoleHardSupport
}

// rule is one declarative insight check.
type rule struct {
	name  string
	when  func(f *facts) bool
	build func(f *facts) model.Finding
}

var mistakeRules = []rule{
	{
		name: "feeding",
		when: func(f *facts) bool { return f.p.Deaths >= 10 },
		build: func(f *facts) model.Finding {
			return model.Finding{
				Type:        model.SeverityCritical,
				Category:    "Positioning",
				Title:       "Too many deaths",
				Description: fmt.Sprintf("Died %d times. Each death hands the enemy gold and map control.", f.p.Deaths),
				Impact:      "High",
				Improvement: "Track enemy heroes on the minimap and avoid farming past your team's vision.",
				Priority:    1,
			}
		},
	},
	{
		name: "frequent deaths",
		when: func(f *facts) bool { return f.p.Deaths >= 7 && f.p.Deaths < 10 },
		build: func(f *facts) model.Finding {
			return model.Finding{
				Type:        model.SeverityWarning,
				Category:    "Positioning",
				Title:       "Frequent deaths",
				Description: fmt.Sprintf("Died %d times; aim for fewer than 6.", f.p.Deaths),
				Impact:      "Medium",
				Improvement: "Buy a defensive item earlier and keep an escape route when pushing lanes.",
				Priority:    2,
			}
		},
	},
	{
		name: "carry low gpm",
		when: func(f *facts) bool { return f.role == model.RoleCarry && f.p.GoldPerMin < 400 },
		build: func(f *facts) model.Finding {
			return model.Finding{
				Type:        model.SeverityCritical,
				Category:    "Farming",
				Title:       "Low farm as carry",
				Description: fmt.Sprintf("%d GPM is well below what a position 1 needs to come online.", f.p.GoldPerMin),
				Impact:      "High",
				Improvement: "Stack and clear jungle camps between lane waves and avoid idle time.",
				Priority:    1,
			}
		},
	},
	{
		name: "mid low gpm",
		when: func(f *facts) bool { return f.role == model.RoleMid && f.p.GoldPerMin < 450 },
		build: func(f *facts) model.Finding {
			return model.Finding{
				Type:        model.SeverityWarning,
				Category:    "Farming",
				Title:       "Low farm as mid",
				Description: fmt.Sprintf("%d GPM leaves your mid hero behind its item timings.", f.p.GoldPerMin),
				Impact:      "Medium",
				Improvement: "Farm nearby camps after rotations instead of walking back empty-handed.",
				Priority:    2,
			}
		},
	},
	{
		name: "support low vision",
		when: func(f *facts) bool {
			return f.isSupport() && f.minutes >= 20 && f.p.WardsPlaced() < 5
		},
		build: func(f *facts) model.Finding {
			return model.Finding{
				Type:        model.SeverityWarning,
				Category:    "Vision",
				Title:       "Not enough wards",
				Description: fmt.Sprintf("Only %d wards placed in a %d-minute game.", f.p.WardsPlaced(), int(f.minutes)),
				Impact:      "Medium",
				Improvement: "Restock observer wards on cooldown and deward before objectives.",
				Priority:    2,
			}
		},
	},
	{
		name: "low teamfight participation",
		when: func(f *facts) bool { return f.hasTF && f.tf < 0.4 },
		build: func(f *facts) model.Finding {
			return model.Finding{
				Type:        model.SeverityWarning,
				Category:    "Teamfighting",
				Title:       "Missing team fights",
				Description: fmt.Sprintf("Involved in %.0f%% of your team's kills.", f.tf*100),
				Impact:      "Medium",
				Improvement: "Watch for smoke moves and group up when your team takes objectives.",
				Priority:    2,
			}
		},
	},
	{
		name: "early last hits",
		when: func(f *facts) bool {
			if f.role != model.RoleCarry && f.role != model.RoleMid {
				return false
			}
			lh, ok := aggregator.LastHitsAt(f.p, 10)
			return ok && lh < 30
		},
		build: func(f *facts) model.Finding {
			lh, _ := aggregator.LastHitsAt(f.p, 10)
			return model.Finding{
				Type:        model.SeverityWarning,
				Category:    "Laning",
				Title:       "Weak laning phase",
				Description: fmt.Sprintf("%d last hits at 10 minutes; 40+ is a solid target.", lh),
				Impact:      "Medium",
				Improvement: "Practise last-hitting and pull aggro to keep the creep equilibrium close to your tower.",
				Priority:    2,
			}
		},
	},
	{
		name: "carry low last hits",
		when: func(f *facts) bool {
			v, ok := f.metrics.Get(model.MetricLHPM)
			return f.role == model.RoleCarry && ok && v < 5
		},
		build: func(f *facts) model.Finding {
			return model.Finding{
				Type:        model.SeverityInfo,
				Category:    "Farming",
				Title:       "Low creep score",
				Description: fmt.Sprintf("%.1f last hits per minute.", f.metrics.Value(model.MetricLHPM)),
				Impact:      "Low",
				Improvement: "Keep farming lanes that are pushing toward you between fights.",
				Priority:    3,
			}
		},
	},
	{
		name: "carry low damage",
		when: func(f *facts) bool {
			v, ok := f.metrics.Get(model.MetricHDPM)
			return f.role == model.RoleCarry && ok && v < 300
		},
		build: func(f *facts) model.Finding {
			return model.Finding{
				Type:        model.SeverityInfo,
				Category:    "Impact",
				Title:       "Low hero damage",
				Description: fmt.Sprintf("%.0f hero damage per minute.", f.metrics.Value(model.MetricHDPM)),
				Impact:      "Low",
				Improvement: "Join fights once your core items are done instead of farming through them.",
				Priority:    3,
			}
		},
	},
	{
		name: "offlane low objectives",
		when: func(f *facts) bool {
			return f.role == model.RoleOfflane && f.minutes >= 25 && f.p.TowerDamage < 1000
		},
		build: func(f *facts) model.Finding {
			return model.Finding{
				Type:        model.SeverityInfo,
				Category:    "Objectives",
				Title:       "Little building damage",
				Description: fmt.Sprintf("%d tower damage in %d minutes.", f.p.TowerDamage, int(f.minutes)),
				Impact:      "Low",
				Improvement: "Convert won fights into tower hits before backing.",
				Priority:    3,
			}
		},
	},
}

var strengthRules = []rule{
	{
		name: "kda",
		when: func(f *facts) bool { return f.p.KDA() >= 4 },
		build: func(f *facts) model.Finding {
			return positive("Combat", "Excellent KDA",
				fmt.Sprintf("%.1f KDA (%d/%d/%d).", f.p.KDA(), f.p.Kills, f.p.Deaths, f.p.Assists))
		},
	},
	{
		name: "survival",
		when: func(f *facts) bool { return f.minutes >= 20 && f.p.Deaths <= 3 },
		build: func(f *facts) model.Finding {
			return positive("Positioning", "Great survival",
				fmt.Sprintf("Only %d deaths in %d minutes.", f.p.Deaths, int(f.minutes)))
		},
	},
	{
		name: "farm",
		when: func(f *facts) bool { return f.p.GoldPerMin >= 600 },
		build: func(f *facts) model.Finding {
			return positive("Farming", "Strong farm", fmt.Sprintf("%d GPM.", f.p.GoldPerMin))
		},
	},
	{
		name: "vision",
		when: func(f *facts) bool { return f.p.WardsPlaced() >= 15 },
		build: func(f *facts) model.Finding {
			return positive("Vision", "Great vision", fmt.Sprintf("%d wards placed.", f.p.WardsPlaced()))
		},
	},
	{
		name: "teamfight",
		when: func(f *facts) bool { return f.hasTF && f.tf >= 0.7 },
		build: func(f *facts) model.Finding {
			return positive("Teamfighting", "Always in the fight",
				fmt.Sprintf("Involved in %.0f%% of team kills.", f.tf*100))
		},
	},
	{
		name: "objectives",
		when: func(f *facts) bool { return f.p.TowerDamage >= 5000 },
		build: func(f *facts) model.Finding {
			return positive("Objectives", "Strong objective pressure", fmt.Sprintf("%d tower damage.", f.p.TowerDamage))
		},
	},
	{
		name: "healing",
		when: func(f *facts) bool { return f.p.HeroHealing >= 5000 },
		build: func(f *facts) model.Finding {
			return positive("Sustain", "Kept the team alive", fmt.Sprintf("%d hero healing.", f.p.HeroHealing))
		},
	},
}

func positive(category, title, desc string) model.Finding {
	return model.Finding{
		Type:        model.SeverityPositive,
		Category:    category,
		Title:       title,
		Description: desc,
	}
}

// roleTips is the fallback coaching point when no mistake fired.
var roleTips = map[model.Role]string{
	model.RoleCarry:       "Plan your next big item timing and farm the lanes your team is not using.",
	model.RoleMid:         "Use rune timings to rotate and create space for your safelane.",
	model.RoleOfflane:     "Pressure the enemy safelane early and be the first hero into fights.",
	model.RoleSupport:     "Rotate to help the mid and offlane once your lane is stable.",
	model.RoleHardSupport: "Keep your carry's lane safe and ward the enemy jungle entrances.",
}
