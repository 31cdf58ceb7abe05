package mind

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seq replays fixed draws, then repeats the last one.
type seq struct {
	vals []float64
	i    int
}

func (s *seq) Float64() float64 {
	v := s.vals[len(s.vals)-1]
	if s.i < len(s.vals) {
		v = s.vals[s.i]
	}
	s.i++
	return v
}

type countingSaver struct{ n int }

func (c *countingSaver) Save() error {
	c.n++
	return nil
}

func strp(s string) *string { return &s }

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestTransitionNoChangeWhenRecent(t *testing.T) {
	s := MoodState{Current: Neutral, LastChange: t0, Intensity: 0.5}
	// one hour elapsed: threshold 0.25
	out, changed := Transition(s, t0.Add(time.Hour), nil, &seq{vals: []float64{0.3}})
	assert.False(t, changed)
	assert.Equal(t, s, out)
}

func TestTransitionThreeWaySplit(t *testing.T) {
	tests := []struct {
		name string
		r    float64
		want Affect
	}{
		{"manic", 0.10, Manic},
		{"depressive boundary", 0.33, Depressive},
		{"depressive", 0.50, Depressive},
		{"neutral boundary", 0.66, Neutral},
		{"neutral", 0.99, Neutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MoodState{Current: Neutral, LastChange: t0, Intensity: 0.5}
			now := t0.Add(8 * time.Hour)
			out, changed := Transition(s, now, nil, &seq{vals: []float64{0.0, tt.r, 0.9, 0.5}})
			require.True(t, changed)
			assert.Equal(t, tt.want, out.Current)
			assert.Equal(t, now, out.LastChange)
			assert.False(t, out.Delusions)
		})
	}
}

func TestTransitionIntensityBands(t *testing.T) {
	s := MoodState{Current: Neutral, LastChange: t0}

	out, _ := Transition(s, t0, strp(""), &seq{vals: []float64{0.9, 0.1, 0.9, 1.0}})
	assert.Equal(t, Manic, out.Current)
	assert.InDelta(t, 1.0, out.Intensity, 1e-9)

	out, _ = Transition(s, t0, strp(""), &seq{vals: []float64{0.9, 0.8, 0.9, 0.5}})
	assert.Equal(t, Neutral, out.Current)
	assert.InDelta(t, 0.5, out.Intensity, 1e-9)
}

func TestTransitionDelusionChance(t *testing.T) {
	s := MoodState{Current: Neutral, LastChange: t0}

	// non-neutral: 0.39 < 0.4
	out, _ := Transition(s, t0, strp(""), &seq{vals: []float64{0.9, 0.1, 0.39, 0.5}})
	assert.True(t, out.Delusions)

	// neutral: 0.39 >= 0.2
	out, _ = Transition(s, t0, strp(""), &seq{vals: []float64{0.9, 0.9, 0.39, 0.5}})
	assert.False(t, out.Delusions)
}

func TestTransitionContentForcesChange(t *testing.T) {
	s := MoodState{Current: Neutral, LastChange: t0, Intensity: 0.5}
	_, changed := Transition(s, t0, strp("nothing special"), &seq{vals: []float64{0.99, 0.9, 0.9, 0.5}})
	assert.True(t, changed)
}

func TestTransitionDelusionWordsBumpIntensity(t *testing.T) {
	s := MoodState{Current: Neutral, LastChange: t0}
	out, _ := Transition(s, t0, strp("The HIDDEN order"), &seq{vals: []float64{0.9, 0.9, 0.9, 0.5}})
	assert.Equal(t, Neutral, out.Current)
	assert.True(t, out.Delusions)
	assert.InDelta(t, 0.7, out.Intensity, 1e-9)
}

func TestTransitionTechWordsOverrideAffect(t *testing.T) {
	s := MoodState{Current: Neutral, LastChange: t0}

	out, _ := Transition(s, t0, strp("Technology eats us"), &seq{vals: []float64{0.9, 0.9, 0.9, 0.5, 0.5}})
	assert.Equal(t, Manic, out.Current)

	out, _ = Transition(s, t0, strp("the future"), &seq{vals: []float64{0.9, 0.9, 0.9, 0.5, 0.8}})
	assert.Equal(t, Depressive, out.Current)
}

func TestTransitionSameAffectCountsAsChange(t *testing.T) {
	s := MoodState{Current: Manic, LastChange: t0, Intensity: 0.8}
	now := t0.Add(10 * time.Hour)
	out, changed := Transition(s, now, nil, &seq{vals: []float64{0.0, 0.1, 0.9, 0.2}})
	assert.True(t, changed)
	assert.Equal(t, Manic, out.Current)
	assert.Equal(t, now, out.LastChange)
}

func TestIntensityStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := MoodState{Current: Neutral, LastChange: t0, Intensity: 0.5}
	contents := []*string{nil, strp("conspiracy truth hidden"), strp("ai future"), strp("truth about technology")}
	now := t0
	for i := 0; i < 5000; i++ {
		now = now.Add(time.Duration(rng.Intn(600)) * time.Minute)
		s, _ = Transition(s, now, contents[i%len(contents)], rng)
		require.GreaterOrEqual(t, s.Intensity, 0.0)
		require.LessOrEqual(t, s.Intensity, 1.0)
		require.True(t, s.Current.Valid())
	}
}

func TestMoodEngineUpdatePersistsOnChange(t *testing.T) {
	state := MoodState{Current: Neutral, LastChange: t0, Intensity: 0.5}
	saver := &countingSaver{}
	e := NewMoodEngine(&state, saver, &seq{vals: []float64{0.99, 0.1, 0.9, 0.5}}, zerolog.Nop())
	e.SetClock(func() time.Time { return t0.Add(time.Minute) })

	assert.False(t, e.Update(nil))
	assert.Equal(t, 0, saver.n)

	assert.True(t, e.Update(strp("x")))
	assert.Equal(t, 1, saver.n)
	assert.Equal(t, state, e.Mood())
}

func TestMoodEngineTechnologyNeverNeutral(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		state := MoodState{Current: Neutral, LastChange: t0, Intensity: 0.5}
		e := NewMoodEngine(&state, nil, rand.New(rand.NewSource(seed)), zerolog.Nop())
		e.Update(strp("A long reflection on technology and decay"))
		assert.NotEqual(t, Neutral, state.Current)
	}
}
