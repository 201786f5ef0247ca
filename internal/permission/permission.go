// Package permission derives an actor's permission level from an ordered
// list of tiers and knows which platform permission tokens exist.
package permission

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Actor is the requesting identity plus the channel and guild it acts within.
// It is built once per interaction.
type Actor struct {
	UserID    string
	GuildID   string
	ChannelID string
	RoleIDs   []string

	// Permissions are the caller's effective bits in the channel.
	Permissions int64
	// AppPermissions are the bot's effective bits in the channel.
	AppPermissions int64

	GuildOwnerID string
	ChannelNSFW  bool

	// Level is filled in by the dispatcher after DeriveLevel.
	Level int
}

// HasRole reports whether the actor carries any of the given roles.
func (a *Actor) HasRole(roleIDs ...string) bool {
	for _, id := range roleIDs {
		if slices.Contains(a.RoleIDs, id) {
			return true
		}
	}
	return false
}

// Predicate decides whether an actor belongs to a tier.
type Predicate func(a *Actor) bool

// Tier is a named permission class.
type Tier struct {
	Name  string
	Level int
	Check Predicate
}

// ConfigurationError reports a malformed tier list.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "permission tiers: " + e.Reason
}

// Model holds tiers sorted from the highest level to the lowest.
type Model struct {
	tiers  []Tier
	byName map[string]Tier
}

// New validates tiers and returns a Model. The input order does not matter;
// the model always evaluates from the highest level down.
func New(tiers ...Tier) (*Model, error) {
	if len(tiers) == 0 {
		return nil, &ConfigurationError{Reason: "no tiers configured"}
	}

	sorted := slices.Clone(tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level > sorted[j].Level })

	m := &Model{tiers: sorted, byName: make(map[string]Tier, len(sorted))}
	for i, t := range sorted {
		if t.Name == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("tier at level %d has no name", t.Level)}
		}
		if t.Check == nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("tier %q has no predicate", t.Name)}
		}
		if i > 0 && sorted[i-1].Level == t.Level {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate level %d (%s, %s)", t.Level, sorted[i-1].Name, t.Name)}
		}
		key := strings.ToLower(t.Name)
		if _, dup := m.byName[key]; dup {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate tier name %q", t.Name)}
		}
		m.byName[key] = t
	}

	base := sorted[len(sorted)-1]
	if base.Level != 0 {
		return nil, &ConfigurationError{Reason: "no level 0 fallback tier"}
	}
	if !base.Check(&Actor{}) {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("fallback tier %q must match every actor", base.Name)}
	}
	return m, nil
}

// DeriveLevel returns the level of the highest tier whose predicate matches.
func (m *Model) DeriveLevel(a *Actor) int {
	for _, t := range m.tiers {
		if t.Check(a) {
			return t.Level
		}
	}
	// unreachable for a validated model: the fallback tier matches everyone
	return 0
}

// Level resolves a tier name (case-insensitive) to its level.
func (m *Model) Level(name string) (int, bool) {
	t, ok := m.byName[strings.ToLower(name)]
	return t.Level, ok
}

// Name returns the tier name for a level, or "" when no tier has it.
func (m *Model) Name(level int) string {
	for _, t := range m.tiers {
		if t.Level == level {
			return t.Name
		}
	}
	return ""
}

// Has reports whether level belongs to a configured tier.
func (m *Model) Has(level int) bool {
	return m.Name(level) != ""
}

// Top is the highest configured tier.
func (m *Model) Top() Tier { return m.tiers[0] }

// Lowest is the level-0 fallback tier.
func (m *Model) Lowest() Tier { return m.tiers[len(m.tiers)-1] }

// Tiers returns the tiers from highest to lowest.
func (m *Model) Tiers() []Tier { return slices.Clone(m.tiers) }
