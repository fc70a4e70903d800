package model

import (
	"fmt"
	"strings"
)

// Role is a player's functional archetype in a match.
type Role int

// Roles in precedence order; ties between heuristic scores go to the earlier one.
const (
	RoleCarry Role = iota
	RoleMid
	RoleOfflane
	RoleSupport
	RoleHardSupport
)

// AllRoles lists every role in precedence order.
var AllRoles = []Role{RoleCarry, RoleMid, RoleOfflane, RoleSupport, RoleHardSupport}

func (r Role) String() string {
	switch r {
	case RoleCarry:
		return "Carry"
	case RoleMid:
		return "Mid"
	case RoleOfflane:
		return "Offlane"
	case RoleSupport:
		return "Support"
	case RoleHardSupport:
		return "Hard Support"
	default:
		return "Unknown"
	}
}

// Position returns the canonical 1..5 position for the role.
func (r Role) Position() int { return int(r) + 1 }

// IsCore reports whether the role is farm-prioritised.
func (r Role) IsCore() bool { return r == RoleCarry || r == RoleMid || r == RoleOfflane }

// RoleFromPosition maps a 1..5 lane-role hint to a role.
func RoleFromPosition(pos int) (Role, bool) {
	if pos < 1 || pos > len(AllRoles) {
		return 0, false
	}
	return AllRoles[pos-1], true
}

// ParseRole accepts role names as printed by String, case-insensitively.
func ParseRole(s string) (Role, bool) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for _, r := range AllRoles {
		if strings.ToLower(strings.ReplaceAll(r.String(), " ", "")) == norm {
			return r, true
		}
	}
	return 0, false
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText decodes a role name. Unknown names are an error.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, ok := ParseRole(string(b))
	if !ok {
		return fmt.Errorf("unknown role %q", string(b))
	}
	*r = parsed
	return nil
}
