package content

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/wraith/internal/ai"
	"github.com/keshon/wraith/internal/mind"
)

type call struct {
	prompt string
	opts   ai.Options
}

// scripted answers generation calls in order.
type scripted struct {
	replies []string
	errs    []error
	calls   []call
}

func (s *scripted) Generate(_ context.Context, prompt string, opts ai.Options) (string, error) {
	i := len(s.calls)
	s.calls = append(s.calls, call{prompt: prompt, opts: opts})
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", errors.New("no scripted reply")
}

type countingSaver struct{ n int }

func (c *countingSaver) Save() error {
	c.n++
	return nil
}

type fixture struct {
	gen    *scripted
	state  *mind.PersistedState
	engine *mind.MoodEngine
	saver  *countingSaver
	g      *Generator
}

func newFixture(t *testing.T, opts Options, replies ...string) *fixture {
	t.Helper()
	st := mind.DefaultState(time.Now())
	saver := &countingSaver{}
	rng := rand.New(rand.NewSource(7))
	engine := mind.NewMoodEngine(&st.Mood, saver, rng, zerolog.Nop())
	gen := &scripted{replies: replies}
	p := mind.NewPersonality(mind.DefaultPersona(), rng)
	return &fixture{
		gen:    gen,
		state:  &st,
		engine: engine,
		saver:  saver,
		g:      New(gen, engine, p, &st.Memory, saver, opts, zerolog.Nop()),
	}
}

func sentence(n int) string {
	return strings.Repeat("a", n)
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`  'Hello world' #tag  `, "Hello world"},
		{`RT "the void" stares back`, "the void stares back"},
		{`“curly” and ‘single’`, "curly and single"},
		{"a #b c #d", "a c"},
		{"<think>plan</think>  final  answer", "final answer"},
		{"line one  \n  line two", "line one\nline two"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in), tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, sentence(230), Truncate(sentence(230)))

	out := Truncate(sentence(300))
	assert.Equal(t, 230, Length(out))
	assert.True(t, strings.HasSuffix(out, Ellipsis))

	multi := strings.Repeat("é", 240)
	out = Truncate(multi)
	assert.Equal(t, 230, Length(out))
}

func TestGenerateAcceptsWithinWindow(t *testing.T) {
	reply := sentence(215)
	f := newFixture(t, Options{}, reply)

	post, ok := f.g.Generate(context.Background())
	require.True(t, ok)
	assert.Equal(t, reply, post)
	assert.Equal(t, []string{reply}, f.state.Memory.RecentPosts)
	assert.GreaterOrEqual(t, f.saver.n, 1)

	require.Len(t, f.gen.calls, 1)
	assert.Equal(t, PostOptions, f.gen.calls[0].opts)
	assert.Equal(t, mind.DefaultPersona().PostPrompt, f.gen.calls[0].prompt)
}

func TestGenerateTruncatesLongReply(t *testing.T) {
	f := newFixture(t, Options{}, sentence(400))

	post, ok := f.g.Generate(context.Background())
	require.True(t, ok)
	assert.Equal(t, MaxLength, Length(post))
	assert.True(t, strings.HasSuffix(post, Ellipsis))
}

func TestGenerateExtendsShortReply(t *testing.T) {
	f := newFixture(t, Options{}, sentence(150), "b b b", sentence(44))

	post, ok := f.g.Generate(context.Background())
	require.True(t, ok)
	assert.Equal(t, sentence(150)+" b b b "+sentence(44), post)
	assert.GreaterOrEqual(t, Length(post), MinLength)
	assert.LessOrEqual(t, Length(post), MaxLength)

	require.Len(t, f.gen.calls, 3)
	assert.Equal(t, ContinuationOptions, f.gen.calls[1].opts)
	assert.Contains(t, f.gen.calls[1].prompt, sentence(150))
	assert.Contains(t, f.gen.calls[2].prompt, sentence(150)+" b b b")
}

func TestGenerateExtensionOvershootIsTruncated(t *testing.T) {
	f := newFixture(t, Options{}, sentence(190), sentence(100))

	post, ok := f.g.Generate(context.Background())
	require.True(t, ok)
	assert.Equal(t, MaxLength, Length(post))
	assert.True(t, strings.HasSuffix(post, Ellipsis))
	assert.Len(t, f.gen.calls, 2)
}

func TestGenerateExtensionForcesMoodFromContent(t *testing.T) {
	first := strings.Repeat("technology ", 16) + "bleeds"
	require.Less(t, Length(first), MinLength)
	f := newFixture(t, Options{}, first, sentence(40))

	_, ok := f.g.Generate(context.Background())
	require.True(t, ok)
	assert.NotEqual(t, mind.Neutral, f.state.Mood.Current)
}

func TestGenerateSkipsDuplicate(t *testing.T) {
	reply := sentence(210)
	f := newFixture(t, Options{}, reply, reply)

	_, ok := f.g.Generate(context.Background())
	require.True(t, ok)

	_, ok = f.g.Generate(context.Background())
	assert.False(t, ok)
	assert.Len(t, f.state.Memory.RecentPosts, 1)
}

func TestGenerateServiceErrorSkips(t *testing.T) {
	f := newFixture(t, Options{})
	f.gen.errs = []error{&ai.StatusError{Code: 500, Body: "boom"}}

	post, ok := f.g.Generate(context.Background())
	assert.False(t, ok)
	assert.Empty(t, post)
	assert.Empty(t, f.state.Memory.RecentPosts)
}

func TestGenerateContinuationErrorSkips(t *testing.T) {
	f := newFixture(t, Options{}, sentence(100))
	f.gen.errs = []error{nil, errors.New("connection refused")}

	_, ok := f.g.Generate(context.Background())
	assert.False(t, ok)
	assert.Empty(t, f.state.Memory.RecentPosts)
}

func TestGenerateEmptyContinuationSkips(t *testing.T) {
	f := newFixture(t, Options{}, sentence(100), "#only #tags")

	_, err := f.g.Draft(context.Background())
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestGenerateGivesUpAfterMaxContinuations(t *testing.T) {
	replies := []string{sentence(10)}
	for i := 0; i < maxContinuations+2; i++ {
		replies = append(replies, "x")
	}
	f := newFixture(t, Options{}, replies...)

	_, err := f.g.Draft(context.Background())
	assert.ErrorIs(t, err, ErrTooShort)
	assert.Len(t, f.gen.calls, 1+maxContinuations)
}

func TestGenerateWithMoodPrompt(t *testing.T) {
	f := newFixture(t, Options{PromptMood: true}, sentence(210))

	_, ok := f.g.Generate(context.Background())
	require.True(t, ok)
	prompt := f.gen.calls[0].prompt
	assert.True(t, strings.HasPrefix(prompt, mind.DefaultPersona().PostPrompt))
	assert.Contains(t, prompt, "Cyrus Wraith")
}

func TestGenerateDecoratedStaysInWindow(t *testing.T) {
	for i := 0; i < 30; i++ {
		f := newFixture(t, Options{Decorate: true}, sentence(200+i))
		post, ok := f.g.Generate(context.Background())
		require.True(t, ok)
		assert.LessOrEqual(t, Length(post), MaxLength)
		assert.GreaterOrEqual(t, Length(post), MinLength)
	}
}

func TestRecentPostsBounded(t *testing.T) {
	var replies []string
	for i := 0; i < 60; i++ {
		replies = append(replies, sentence(200)+strings.Repeat("z", i%25)+string(rune('A'+i%26))+string(rune('a'+i/26)))
	}
	f := newFixture(t, Options{}, replies...)
	for range replies {
		_, ok := f.g.Generate(context.Background())
		require.True(t, ok)
	}
	assert.Len(t, f.state.Memory.RecentPosts, mind.MaxRecentPosts)
	assert.Equal(t, Truncate(replies[10]), f.state.Memory.RecentPosts[0])
}

type zeroRand struct{}

func (zeroRand) Float64() float64 { return 0 }

func TestGenerateDecoratesWithinWindow(t *testing.T) {
	st := mind.DefaultState(time.Now())
	engine := mind.NewMoodEngine(&st.Mood, nil, rand.New(rand.NewSource(7)), zerolog.Nop())
	p := mind.NewPersonality(mind.DefaultPersona(), zeroRand{})
	gen := &scripted{replies: []string{sentence(200)}}
	g := New(gen, engine, p, &st.Memory, nil, Options{Decorate: true}, zerolog.Nop())

	post, ok := g.Generate(context.Background())
	require.True(t, ok)

	traits := p.Traits(engine.Mood().Current)
	glyph := traits.Glyphs[0]
	assert.True(t, strings.HasPrefix(post, glyph+" "+sentence(200)+" "+glyph))
	assert.True(t, strings.HasSuffix(post, "\n"+traits.ASCIIArt[0]))
	assert.LessOrEqual(t, Length(post), MaxLength)
	assert.GreaterOrEqual(t, Length(post), MinLength)
}
