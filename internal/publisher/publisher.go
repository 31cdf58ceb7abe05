// Package publisher drives the compose flow for one post.
package publisher

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keshon/wraith/internal/browser"
	"github.com/keshon/wraith/internal/mind"
	"github.com/keshon/wraith/pkg/retrylimit"
)

// Selectors locate the composer.
type Selectors struct {
	Compose string
	TextBox string
	Submit  string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Compose: `[data-testid="SideNav_NewTweet_Button"]`,
		TextBox: `[data-testid="tweetTextarea_0"]`,
		Submit:  `[data-testid="tweetButton"]`,
	}
}

// Timing bounds each compose step. Typing gets Wait plus PerChar for every character.
type Timing struct {
	Wait    time.Duration // per element and per click
	PerChar time.Duration // typing delay of the page
	Settle  time.Duration // after submit
}

func DefaultTiming() Timing {
	return Timing{Wait: 5 * time.Second, PerChar: 100 * time.Millisecond, Settle: 3 * time.Second}
}

// Notifier receives every published post.
type Notifier interface {
	Notify(ctx context.Context, content string)
}

// Publisher publishes onto an established session. It never retries.
type Publisher struct {
	memory    *mind.Memory
	saver     mind.Saver
	notifier  Notifier
	selectors Selectors
	timing    Timing
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	log       zerolog.Logger
}

// New creates a Publisher. saver and notifier may be nil.
func New(memory *mind.Memory, saver mind.Saver, notifier Notifier, logger zerolog.Logger) *Publisher {
	return &Publisher{
		memory:    memory,
		saver:     saver,
		notifier:  notifier,
		selectors: DefaultSelectors(),
		timing:    DefaultTiming(),
		now:       time.Now,
		sleep:     retrylimit.Sleep,
		log:       logger.With().Str("component", "publisher").Logger(),
	}
}

func (p *Publisher) WithSelectors(s Selectors) *Publisher {
	p.selectors = s
	return p
}

func (p *Publisher) WithTiming(t Timing) *Publisher {
	p.timing = t
	return p
}

// Publish posts content and reports whether it went through. Failures are logged.
func (p *Publisher) Publish(ctx context.Context, page browser.Page, content string) bool {
	log := p.log.With().Str("publish_id", uuid.NewString()).Logger()

	if err := p.compose(ctx, page, content); err != nil {
		log.Error().Err(err).Msg("failed to post")
		return false
	}

	p.memory.LastPostTime = p.now()
	if p.saver != nil {
		if err := p.saver.Save(); err != nil {
			log.Error().Err(err).Msg("failed to save state after posting")
		}
	}
	log.Info().Str("content", content).Msg("posted")

	if p.notifier != nil {
		p.notifier.Notify(ctx, content)
	}
	return true
}

func (p *Publisher) compose(ctx context.Context, page browser.Page, content string) error {
	s, t := p.selectors, p.timing
	typing := t.Wait + time.Duration(utf8.RuneCountInString(content))*t.PerChar

	if err := step(ctx, t.Wait, func(ctx context.Context) error { return page.WaitVisible(ctx, s.Compose) }); err != nil {
		return fmt.Errorf("compose button: %w", err)
	}
	if err := step(ctx, t.Wait, func(ctx context.Context) error { return page.Click(ctx, s.Compose) }); err != nil {
		return fmt.Errorf("open composer: %w", err)
	}

	if err := step(ctx, t.Wait, func(ctx context.Context) error { return page.WaitVisible(ctx, s.TextBox) }); err != nil {
		return fmt.Errorf("text box: %w", err)
	}
	if err := step(ctx, typing, func(ctx context.Context) error { return page.Type(ctx, s.TextBox, content) }); err != nil {
		return fmt.Errorf("type post: %w", err)
	}

	if err := step(ctx, t.Wait, func(ctx context.Context) error { return page.WaitVisible(ctx, s.Submit) }); err != nil {
		return fmt.Errorf("submit button: %w", err)
	}
	if err := step(ctx, t.Wait, func(ctx context.Context) error { return page.Click(ctx, s.Submit) }); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	return p.sleep(ctx, t.Settle)
}

// step runs fn under its own timeout.
func step(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}
