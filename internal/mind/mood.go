package mind

import (
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Transition probabilities and bands.
const (
	HoursPerCertainChange = 4.0

	manicBelow      = 0.33
	depressiveBelow = 0.66

	delusionChanceAffected = 0.4
	delusionChanceNeutral  = 0.2

	affectedIntensityBase  = 0.7
	affectedIntensitySpan  = 0.3
	neutralIntensityBase   = 0.3
	neutralIntensitySpan   = 0.4
	delusionIntensityBonus = 0.2

	techManicChance = 0.7
)

var (
	delusionWords = []string{"conspiracy", "hidden", "truth"}
	techWords     = []string{"ai", "technology", "future"}
)

// Rand is the randomness source for mood transitions. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Saver persists state after a mutation.
type Saver interface {
	Save() error
}

// Transition computes the next mood. content, when non-nil, forces a transition and may bias it.
// It reports whether a transition happened; redrawing the same affect still counts.
func Transition(s MoodState, now time.Time, content *string, rng Rand) (MoodState, bool) {
	hours := now.Sub(s.LastChange).Hours()
	change := rng.Float64() < hours/HoursPerCertainChange || content != nil
	if !change {
		return s, false
	}

	out := s
	r := rng.Float64()
	switch {
	case r < manicBelow:
		out.Current = Manic
	case r < depressiveBelow:
		out.Current = Depressive
	default:
		out.Current = Neutral
	}

	chance := delusionChanceNeutral
	if out.Current != Neutral {
		chance = delusionChanceAffected
	}
	out.Delusions = rng.Float64() < chance

	if out.Current != Neutral {
		out.Intensity = clamp01(affectedIntensityBase + rng.Float64()*affectedIntensitySpan)
	} else {
		out.Intensity = neutralIntensityBase + rng.Float64()*neutralIntensitySpan
	}

	out.LastChange = now

	if content != nil {
		lower := strings.ToLower(*content)
		if containsAny(lower, delusionWords) {
			out.Delusions = true
			out.Intensity = clamp01(out.Intensity + delusionIntensityBonus)
		}
		if containsAny(lower, techWords) {
			if rng.Float64() < techManicChance {
				out.Current = Manic
			} else {
				out.Current = Depressive
			}
		}
	}

	return out, true
}

// MoodEngine owns the mood part of the persisted state.
type MoodEngine struct {
	state *MoodState
	saver Saver
	rng   Rand
	now   func() time.Time
	log   zerolog.Logger
}

// NewMoodEngine binds the engine to state. A nil rng seeds one from the clock.
func NewMoodEngine(state *MoodState, saver Saver, rng Rand, logger zerolog.Logger) *MoodEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MoodEngine{
		state: state,
		saver: saver,
		rng:   rng,
		now:   time.Now,
		log:   logger.With().Str("component", "mood").Logger(),
	}
}

// SetClock replaces the time source.
func (e *MoodEngine) SetClock(now func() time.Time) {
	e.now = now
}

// Mood returns a copy of the current mood.
func (e *MoodEngine) Mood() MoodState {
	return *e.state
}

// Update runs one transition evaluation and persists the result if the mood changed.
func (e *MoodEngine) Update(content *string) bool {
	next, changed := Transition(*e.state, e.now(), content, e.rng)
	if !changed {
		return false
	}
	*e.state = next

	e.log.Info().
		Str("mood", string(next.Current)).
		Float64("intensity", next.Intensity).
		Bool("delusions", next.Delusions).
		Bool("content_signal", content != nil).
		Msg("mood updated")

	if e.saver != nil {
		if err := e.saver.Save(); err != nil {
			e.log.Error().Err(err).Msg("failed to persist mood")
		}
	}
	return true
}

// normalize repairs a decoded mood so the invariants hold.
func (m *MoodState) normalize(now time.Time) {
	if !m.Current.Valid() {
		m.Current = Neutral
	}
	m.Intensity = clamp01(m.Intensity)
	if m.LastChange.IsZero() {
		m.LastChange = now
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
