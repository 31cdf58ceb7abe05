package mind

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona is the character the agent writes as.
type Persona struct {
	Name               string            `yaml:"name"`
	Interests          []string          `yaml:"interests"`
	PostPrompt         string            `yaml:"post_prompt"`
	ContinuationPrompt string            `yaml:"continuation_prompt"`
	Moods              map[Affect]Traits `yaml:"moods"`
}

// DefaultPersona is the built-in character.
func DefaultPersona() Persona {
	return Persona{
		Name:      "Cyrus Wraith",
		Interests: []string{"AI", "technology", "digital society"},
		PostPrompt: "As a tech-savvy individual with psychological disturbances, share a tweet about your dark mind, " +
			"thoughts, memories, or imaginations. Keep it between 200-230 characters. Be introspective, dark, and nuanced.",
		ContinuationPrompt: "Continue the following text with one short fragment of a few words. " +
			"Output only the fragment, no quotes, no hashtags.",
		Moods: map[Affect]Traits{
			Neutral: {
				Glyphs:        []string{"✧", "☆", "✵", "⚝", "❂", "✺", "✹", "✶"},
				ASCIIArt:      []string{"|̲̲̲͡͡͡➤", `¯\_(ツ)_/¯`, "༼ つ ◕_◕ ༽つ"},
				ResponseStyle: "Balanced and analytical.",
			},
			Manic: {
				Glyphs:        []string{"⌘", "⌥", "⎈", "⌫", "⌦", "⇧", "⚙️", "⚛️", "⌬"},
				ASCIIArt:      []string{"⎛⎝(•_•)⎠⎞", "<{•_•}>", "▒▒▒▒▒▒▒▒▒▒"},
				ResponseStyle: "Eloquent, optimistic, with a touch of grandiosity.",
			},
			Depressive: {
				Glyphs:        []string{"□", "◊", "▢", "▣", "▤", "▥", "▦", "▧", "▨", "▩", "■"},
				ASCIIArt:      []string{"(╯°□°）╯︵ ┻━┻"},
				ResponseStyle: "Cynical, critical, and somewhat pessimistic.",
			},
		},
	}
}

// LoadPersona reads a YAML persona from path. Fields left empty in the file keep their defaults.
// An empty path returns the default persona.
func LoadPersona(path string) (Persona, error) {
	p := DefaultPersona()
	if path == "" {
		return p, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read persona: %w", err)
	}

	var file Persona
	if err := yaml.Unmarshal(b, &file); err != nil {
		return p, fmt.Errorf("parse persona: %w", err)
	}

	if file.Name != "" {
		p.Name = file.Name
	}
	if len(file.Interests) > 0 {
		p.Interests = file.Interests
	}
	if file.PostPrompt != "" {
		p.PostPrompt = file.PostPrompt
	}
	if file.ContinuationPrompt != "" {
		p.ContinuationPrompt = file.ContinuationPrompt
	}
	for a, t := range file.Moods {
		if !a.Valid() {
			return p, fmt.Errorf("parse persona: unknown mood %q", a)
		}
		cur := p.Moods[a]
		if len(t.Glyphs) > 0 {
			cur.Glyphs = t.Glyphs
		}
		if len(t.ASCIIArt) > 0 {
			cur.ASCIIArt = t.ASCIIArt
		}
		if t.ResponseStyle != "" {
			cur.ResponseStyle = t.ResponseStyle
		}
		p.Moods[a] = cur
	}
	return p, nil
}

func (p Persona) topicList() string {
	switch len(p.Interests) {
	case 0:
		return "technology"
	case 1:
		return p.Interests[0]
	}
	return strings.Join(p.Interests[:len(p.Interests)-1], ", ") + " or " + p.Interests[len(p.Interests)-1]
}
