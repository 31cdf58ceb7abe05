package mind

import "time"

// Affect is the coarse mood the persona is in.
type Affect string

const (
	Neutral    Affect = "neutral"
	Manic      Affect = "manic"
	Depressive Affect = "depressive"
)

// Valid reports whether a is one of the known affects.
func (a Affect) Valid() bool {
	switch a {
	case Neutral, Manic, Depressive:
		return true
	}
	return false
}

// MoodState is the current affect, its intensity and whether delusions colour it.
type MoodState struct {
	Current    Affect    `json:"current"`
	LastChange time.Time `json:"lastChange"`
	Delusions  bool      `json:"delusions"`
	Intensity  float64   `json:"intensity"` // 0..1
}

// MaxRecentPosts bounds Memory.RecentPosts.
const MaxRecentPosts = 50

// Memory is what the persona has said and seen.
type Memory struct {
	RecentTopics    []string        `json:"recentTopics"`
	RecentPosts     []string        `json:"recentPosts"`     // oldest first
	ProcessedTweets map[string]bool `json:"processedTweets"` // set of inbound ids
	LastPostTime    time.Time       `json:"lastPostTime"`
}

// PersistedState is the unit written to and read from the state file.
type PersistedState struct {
	Mood   MoodState `json:"mood"`
	Memory Memory    `json:"memory"`
}

// DefaultState is the first-run state.
func DefaultState(now time.Time) PersistedState {
	return PersistedState{
		Mood: MoodState{
			Current:    Neutral,
			LastChange: now,
			Delusions:  false,
			Intensity:  0.5,
		},
		Memory: Memory{
			RecentTopics:    []string{},
			RecentPosts:     []string{},
			ProcessedTweets: map[string]bool{},
			LastPostTime:    now,
		},
	}
}

// Store keys inside the state file.
const (
	KeyMood   = "mood"
	KeyMemory = "memory"
)
