package model

// Side represents which team a player is on.
type Side int

const (
	SideRadiant Side = 0
	SideDire    Side = 1
)

func (s Side) String() string {
	switch s {
	case SideRadiant:
		return "Radiant"
	case SideDire:
		return "Dire"
	default:
		return "?"
	}
}

// direSlotOffset is the first player_slot value belonging to the Dire side.
const direSlotOffset = 128

// TeamSize is the number of players per side.
const TeamSize = 5

// ---- Raw records decoded from the upstream API ----

// MatchRecord is one completed match. Created by the gateway, never mutated.
type MatchRecord struct {
	MatchID      int64          `json:"match_id"`
	Duration     int            `json:"duration"` // seconds
	RadiantWin   bool           `json:"radiant_win"`
	StartTime    int64          `json:"start_time"`
	GameMode     int            `json:"game_mode"`
	RadiantScore int            `json:"radiant_score"`
	DireScore    int            `json:"dire_score"`
	Players      []PlayerRecord `json:"players"`
}

// Minutes returns the match duration in minutes, or 0 for a zero-length record.
func (m *MatchRecord) Minutes() float64 {
	if m == nil || m.Duration <= 0 {
		return 0
	}
	return float64(m.Duration) / 60
}

// FindPlayer returns the record for accountID, or nil if the account did not play.
func (m *MatchRecord) FindPlayer(accountID int64) *PlayerRecord {
	if m == nil {
		return nil
	}
	for i := range m.Players {
		if m.Players[i].AccountID == accountID {
			return &m.Players[i]
		}
	}
	return nil
}

// Teammates returns the other players on p's side. p is matched by slot.
func (m *MatchRecord) Teammates(p *PlayerRecord) []PlayerRecord {
	if m == nil || p == nil {
		return nil
	}
	var out []PlayerRecord
	for _, other := range m.Players {
		if other.PlayerSlot == p.PlayerSlot {
			continue
		}
		if other.Side() == p.Side() {
			out = append(out, other)
		}
	}
	return out
}

// TeamKills sums kills across every player on the given side.
func (m *MatchRecord) TeamKills(side Side) int {
	if m == nil {
		return 0
	}
	total := 0
	for _, p := range m.Players {
		if p.Side() == side {
			total += p.Kills
		}
	}
	return total
}

// Won reports whether the side the player belongs to won the match.
func (m *MatchRecord) Won(p *PlayerRecord) bool {
	if m == nil || p == nil {
		return false
	}
	return (p.Side() == SideRadiant) == m.RadiantWin
}

// PlayerRecord holds one participant's statistics. Counters absent upstream
// decode as zero; genuinely optional values are pointers.
type PlayerRecord struct {
	AccountID  int64 `json:"account_id"`
	PlayerSlot int   `json:"player_slot"`
	HeroID     int   `json:"hero_id"`
	Level      int   `json:"level"`

	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Assists int `json:"assists"`

	GoldPerMin int `json:"gold_per_min"`
	XPPerMin   int `json:"xp_per_min"`
	NetWorth   int `json:"net_worth"`
	TotalGold  int `json:"total_gold"`
	TotalXP    int `json:"total_xp"`
	LastHits   int `json:"last_hits"`
	Denies     int `json:"denies"`

	HeroDamage  int `json:"hero_damage"`
	TowerDamage int `json:"tower_damage"`
	HeroHealing int `json:"hero_healing"`

	ObsPlaced     int `json:"obs_placed"`
	SenPlaced     int `json:"sen_placed"`
	ObserverKills int `json:"observer_kills"`
	SentryKills   int `json:"sentry_kills"`

	Item0     int `json:"item_0"`
	Item1     int `json:"item_1"`
	Item2     int `json:"item_2"`
	Item3     int `json:"item_3"`
	Item4     int `json:"item_4"`
	Item5     int `json:"item_5"`
	Backpack0 int `json:"backpack_0"`
	Backpack1 int `json:"backpack_1"`
	Backpack2 int `json:"backpack_2"`

	// LaneRole is the upstream's authoritative role hint (1..5), when parsed.
	LaneRole *int `json:"lane_role,omitempty"`
	// TeamfightParticipation is a 0..1 fraction, when parsed.
	TeamfightParticipation *float64 `json:"teamfight_participation,omitempty"`

	// Dense series, one sample per minute starting at minute 0.
	LHTimes   []int `json:"lh_t,omitempty"`
	XPTimes   []int `json:"xp_t,omitempty"`
	GoldTimes []int `json:"gold_t,omitempty"`

	PurchaseLog []PurchaseEvent `json:"purchase_log,omitempty"`
	ObsLog      []WardEvent     `json:"obs_log,omitempty"`
	SenLog      []WardEvent     `json:"sen_log,omitempty"`
	KillsLog    []KillEvent     `json:"kills_log,omitempty"`
	BuybackLog  []BuybackEvent  `json:"buyback_log,omitempty"`
	RunesLog    []RuneEvent     `json:"runes_log,omitempty"`
}

// Side returns the team the player's slot belongs to.
func (p *PlayerRecord) Side() Side {
	if p.PlayerSlot >= direSlotOffset {
		return SideDire
	}
	return SideRadiant
}

// IsRadiant reports whether the player is on the Radiant side.
func (p *PlayerRecord) IsRadiant() bool { return p.Side() == SideRadiant }

// Position returns the normalized 1..5 slot position on the player's side.
func (p *PlayerRecord) Position() int {
	idx := p.PlayerSlot % direSlotOffset
	return idx%TeamSize + 1
}

// WardsPlaced is the total of observer and sentry wards placed.
func (p *PlayerRecord) WardsPlaced() int { return p.ObsPlaced + p.SenPlaced }

// WardsDestroyed is the total of enemy observer and sentry wards killed.
func (p *PlayerRecord) WardsDestroyed() int { return p.ObserverKills + p.SentryKills }

// Inventory returns the non-empty item ids across main and backpack slots.
func (p *PlayerRecord) Inventory() []int {
	slots := []int{
		p.Item0, p.Item1, p.Item2, p.Item3, p.Item4, p.Item5,
		p.Backpack0, p.Backpack1, p.Backpack2,
	}
	out := make([]int, 0, len(slots))
	for _, id := range slots {
		if id != 0 {
			out = append(out, id)
		}
	}
	return out
}

// KDA returns (kills+assists)/deaths, treating zero deaths as one.
func (p *PlayerRecord) KDA() float64 {
	d := p.Deaths
	if d == 0 {
		d = 1
	}
	return float64(p.Kills+p.Assists) / float64(d)
}

// PurchaseEvent is one item purchase.
type PurchaseEvent struct {
	Time    int    `json:"time"`
	Key     string `json:"key"`
	Charges int    `json:"charges,omitempty"`
}

// WardEvent is one ward placement.
type WardEvent struct {
	Time int     `json:"time"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// KillEvent is one hero kill.
type KillEvent struct {
	Time int    `json:"time"`
	Key  string `json:"key"`
}

// BuybackEvent is one buyback.
type BuybackEvent struct {
	Time int `json:"time"`
	Slot int `json:"slot"`
}

// RuneEvent is one rune pickup.
type RuneEvent struct {
	Time int `json:"time"`
	Key  int `json:"key"`
}

// PlayerProfile holds the fields we need from /players/{id}.
type PlayerProfile struct {
	Profile struct {
		AccountID   int64  `json:"account_id"`
		PersonaName string `json:"personaname"`
	} `json:"profile"`
	RankTier *int `json:"rank_tier,omitempty"`
}

// Hero is one entry of the hero constants table.
type Hero struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	LocalizedName string   `json:"localized_name"`
	Roles         []string `json:"roles"`
}

// Item is one entry of the item constants table.
type Item struct {
	ID   int    `json:"id"`
	Cost int    `json:"cost"`
	Name string `json:"dname"`
}
