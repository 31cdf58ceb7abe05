package mind

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"
)

// Traits describe how an affect shows in text.
type Traits struct {
	Glyphs        []string `yaml:"glyphs"`
	ASCIIArt      []string `yaml:"ascii_art"`
	ResponseStyle string   `yaml:"response_style"`
}

// Decoration odds.
const (
	GlyphChance    = 0.4
	ASCIIArtChance = 0.2
)

// Personality turns the current mood into prompt text and optional decoration.
type Personality struct {
	persona Persona
	rng     Rand
}

// NewPersonality builds a Personality. rng drives decoration choices; nil seeds one from the clock.
func NewPersonality(p Persona, rng Rand) *Personality {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Personality{persona: p, rng: rng}
}

// Persona returns the persona in use.
func (p *Personality) Persona() Persona {
	return p.persona
}

// Traits returns the traits for an affect, falling back to neutral.
func (p *Personality) Traits(a Affect) Traits {
	if t, ok := p.persona.Moods[a]; ok {
		return t
	}
	return p.persona.Moods[Neutral]
}

// PostPrompt builds the prompt for a new post. With withMood the mood template and the
// response style of the current affect are appended to the base prompt.
func (p *Personality) PostPrompt(m MoodState, withMood bool) string {
	base := strings.TrimSpace(p.persona.PostPrompt)
	if !withMood {
		return base
	}
	return base + "\n\n" + p.MoodDirective(m)
}

// MoodDirective is the mood-specific instruction for a post.
func (p *Personality) MoodDirective(m MoodState) string {
	name := p.persona.Name
	topics := p.persona.topicList()
	style := p.Traits(m.Current).ResponseStyle

	var line string
	switch m.Current {
	case Manic:
		if m.Delusions {
			line = fmt.Sprintf("As %s, uncover a hidden connection between %s and cosmic patterns.", name, topics)
		} else {
			line = fmt.Sprintf("As %s during a manic phase, share an optimistic vision about %s or technological transcendence.", name, topics)
		}
	case Depressive:
		if m.Delusions {
			line = fmt.Sprintf("As %s, expose a dark truth about %s or its manipulation.", name, topics)
		} else {
			line = fmt.Sprintf("As %s in a depressive phase, critique %s.", name, topics)
		}
	default:
		line = fmt.Sprintf("As %s, provide analytical insight about %s.", name, topics)
	}
	return strings.TrimSpace(line + " " + style)
}

// ContinuationPrompt asks for a short fragment that continues text.
func (p *Personality) ContinuationPrompt(text string) string {
	return fmt.Sprintf("%s\n\nText so far: %s", strings.TrimSpace(p.persona.ContinuationPrompt), text)
}

// Decorate may wrap text in mood glyphs or append ASCII art. It never returns a string longer
// than maxLen characters; decoration that would not fit is skipped.
func (p *Personality) Decorate(text string, a Affect, maxLen int) string {
	t := p.Traits(a)
	out := text

	if p.rng.Float64() < GlyphChance && len(t.Glyphs) > 0 {
		g := t.Glyphs[p.pick(len(t.Glyphs))]
		if candidate := g + " " + out + " " + g; utf8.RuneCountInString(candidate) <= maxLen {
			out = candidate
		}
	}

	if p.rng.Float64() < ASCIIArtChance && len(t.ASCIIArt) > 0 {
		art := t.ASCIIArt[p.pick(len(t.ASCIIArt))]
		if candidate := out + "\n" + art; utf8.RuneCountInString(candidate) <= maxLen {
			out = candidate
		}
	}
	return out
}

func (p *Personality) pick(n int) int {
	i := int(p.rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
