package tier

import "strings"

// Tier is a subscription tier as stored on the profile row.
type Tier string

const (
	Free    Tier = "free"
	Basic   Tier = "basic"
	Premium Tier = "premium"
	Trial   Tier = "trial"
)

// Capabilities is everything the chat and memory subsystems derive from a tier.
type Capabilities struct {
	HistoryLimit         int
	DailyQuota           int
	MemoryAllowed        bool
	SmartInsightsAllowed bool
	// PersistentSession tiers key local storage by user instead of by ephemeral session.
	PersistentSession bool
}

var table = map[Tier]Capabilities{
	Free: {
		HistoryLimit: 30,
		DailyQuota:   20,
	},
	Basic: {
		HistoryLimit:  50,
		DailyQuota:    50,
		MemoryAllowed: true,
	},
	Premium: {
		HistoryLimit:         100,
		DailyQuota:           200,
		MemoryAllowed:        true,
		SmartInsightsAllowed: true,
		PersistentSession:    true,
	},
	Trial: {
		HistoryLimit:  30,
		DailyQuota:    30,
		MemoryAllowed: true,
	},
}

// Parse normalizes a stored tier string. Unknown or empty values become Free.
func Parse(s string) Tier {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := table[t]; ok {
		return t
	}
	return Free
}

// Of returns the capabilities for t, falling back to Free for unknown tiers.
func Of(t Tier) Capabilities {
	if c, ok := table[t]; ok {
		return c
	}
	return table[Free]
}

func (t Tier) Capabilities() Capabilities {
	return Of(t)
}

func (t Tier) String() string {
	return string(t)
}

func (t Tier) Known() bool {
	_, ok := table[t]
	return ok
}
