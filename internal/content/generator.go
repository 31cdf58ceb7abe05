// Package content turns the persona's mood into a post-sized piece of text.
package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/keshon/wraith/internal/ai"
	"github.com/keshon/wraith/internal/mind"

	"github.com/rs/zerolog"
)

// Length window of an accepted post, in characters.
const (
	MinLength  = 200
	MaxLength  = 230
	Ellipsis   = "..."
	truncateAt = MaxLength - len(Ellipsis)

	maxContinuations = 8
)

var (
	PostOptions         = ai.Options{Temperature: 0.7, TopP: 0.9, MaxTokens: 150}
	ContinuationOptions = ai.Options{Temperature: 0.7, TopP: 0.9, MaxTokens: 60}
)

var (
	ErrDuplicate = errors.New("post repeats a recent post")
	ErrTooShort  = errors.New("post stayed below the minimum length")
	ErrEmpty     = errors.New("generation produced no text")
)

// Mood is the part of the mood engine the generator drives.
type Mood interface {
	Update(content *string) bool
	Mood() mind.MoodState
}

// Options toggle optional behaviour.
type Options struct {
	PromptMood bool // append the mood directive to the base prompt
	Decorate   bool // allow glyph / ASCII-art decoration
}

// Generator builds posts. It appends accepted posts to memory and flushes through saver.
type Generator struct {
	gen         ai.Generator
	mood        Mood
	personality *mind.Personality
	memory      *mind.Memory
	saver       mind.Saver
	opts        Options
	log         zerolog.Logger
}

// New creates a Generator. saver may be nil, in which case nothing is persisted.
func New(gen ai.Generator, mood Mood, personality *mind.Personality, memory *mind.Memory, saver mind.Saver, opts Options, logger zerolog.Logger) *Generator {
	return &Generator{
		gen:         gen,
		mood:        mood,
		personality: personality,
		memory:      memory,
		saver:       saver,
		opts:        opts,
		log:         logger.With().Str("component", "content").Logger(),
	}
}

// Generate produces one accepted post. It reports false when this cycle should be skipped;
// the reason has already been logged.
func (g *Generator) Generate(ctx context.Context) (string, bool) {
	post, err := g.Draft(ctx)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			g.log.Info().Str("post", post).Msg("discarding duplicate post")
		} else {
			g.log.Error().Err(err).Msg("error generating post")
		}
		return "", false
	}

	g.memory.RememberPost(post)
	if g.saver != nil {
		if err := g.saver.Save(); err != nil {
			g.log.Error().Err(err).Msg("failed to persist accepted post")
		}
	}
	g.log.Info().Int("length", utf8.RuneCountInString(post)).Str("post", post).Msg("post accepted")
	return post, true
}

// Draft runs the pipeline up to the duplicate check without recording the result.
// On ErrDuplicate the rejected text is returned alongside the error.
func (g *Generator) Draft(ctx context.Context) (string, error) {
	g.mood.Update(nil)

	prompt := g.personality.PostPrompt(g.mood.Mood(), g.opts.PromptMood)
	raw, err := g.gen.Generate(ctx, prompt, PostOptions)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	text := Clean(raw)
	if text == "" {
		return "", ErrEmpty
	}

	text, err = g.extend(ctx, text)
	if err != nil {
		return "", err
	}
	text = Truncate(text)

	if g.opts.Decorate {
		text = g.personality.Decorate(text, g.mood.Mood().Current, MaxLength)
	}

	if g.memory.HasPost(text) {
		return text, ErrDuplicate
	}
	return text, nil
}

// extend appends continuation fragments until text reaches MinLength or passes MaxLength.
func (g *Generator) extend(ctx context.Context, text string) (string, error) {
	for round := 0; Length(text) < MinLength; round++ {
		if round == maxContinuations {
			return "", fmt.Errorf("%w: %d characters after %d continuations", ErrTooShort, Length(text), round)
		}

		g.mood.Update(&text)

		raw, err := g.gen.Generate(ctx, g.personality.ContinuationPrompt(text), ContinuationOptions)
		if err != nil {
			return "", fmt.Errorf("continue: %w", err)
		}
		fragment := Clean(raw)
		if fragment == "" {
			return "", fmt.Errorf("%w: empty continuation at %d characters", ErrTooShort, Length(text))
		}
		text = text + " " + fragment

		g.log.Debug().Int("round", round+1).Int("length", Length(text)).Msg("extended post")
	}
	return text, nil
}

var (
	hashtag    = regexp.MustCompile(`#[^\s#]*`)
	quotes     = strings.NewReplacer(`"`, "", `'`, "", "“", "", "”", "", "‘", "", "’", "")
	spaceRun   = regexp.MustCompile(`[ \t]{2,}`)
	spaceAtEOL = regexp.MustCompile(`[ \t]*\n[ \t]*`)
)

// Clean strips quote characters, a leading "RT " and hashtags, then normalizes whitespace.
func Clean(s string) string {
	s = ai.StripThinking(s)
	s = strings.TrimPrefix(s, "RT ")
	s = quotes.Replace(s)
	s = hashtag.ReplaceAllString(s, "")
	s = spaceRun.ReplaceAllString(s, " ")
	s = spaceAtEOL.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// Truncate cuts text longer than MaxLength to truncateAt characters plus Ellipsis.
func Truncate(s string) string {
	if Length(s) <= MaxLength {
		return s
	}
	r := []rune(s)
	return string(r[:truncateAt]) + Ellipsis
}

// Length counts characters, not bytes.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}
