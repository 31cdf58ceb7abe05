// Package session logs the agent into the target site.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keshon/wraith/internal/browser"
	"github.com/keshon/wraith/internal/config"
	"github.com/keshon/wraith/pkg/retrylimit"
)

// ErrNotConfirmed means credentials were submitted but no logged-in marker appeared in time.
var ErrNotConfirmed = errors.New("login not confirmed")

// Selectors locate the login form. Confirm lists alternative logged-in markers; any one wins.
type Selectors struct {
	Identity          string
	SecondaryIdentity string
	Secret            string
	Confirm           []string
}

// DefaultSelectors match the current login flow.
func DefaultSelectors() Selectors {
	return Selectors{
		Identity:          `input[autocomplete="username"]`,
		SecondaryIdentity: `input[data-testid="ocfEnterTextTextInput"]`,
		Secret:            `input[type="password"]`,
		Confirm:           []string{`[data-testid="primaryColumn"]`, `a[href="/home"]`},
	}
}

// Timing holds the per-step waits of one attempt.
type Timing struct {
	MaxAttempts     int
	Backoff         time.Duration // between attempts
	Navigate        time.Duration
	Settle          time.Duration // after navigation
	Field           time.Duration // identity and secret fields
	SecondaryField  time.Duration // the optional verification prompt
	AfterSubmit     time.Duration // pause after each Enter
	AfterSecret     time.Duration // pause before awaiting confirmation
	ConfirmDeadline time.Duration
}

// DefaultTiming returns the production timings.
func DefaultTiming() Timing {
	return Timing{
		MaxAttempts:     3,
		Backoff:         10 * time.Second,
		Navigate:        60 * time.Second,
		Settle:          5 * time.Second,
		Field:           30 * time.Second,
		SecondaryField:  5 * time.Second,
		AfterSubmit:     2 * time.Second,
		AfterSecret:     8 * time.Second,
		ConfirmDeadline: 10 * time.Second,
	}
}

// Outcome tags the result of Establish.
type Outcome int

const (
	NotAttempted Outcome = iota
	Established
	ExhaustedRetries
)

func (o Outcome) String() string {
	switch o {
	case Established:
		return "established"
	case ExhaustedRetries:
		return "exhausted_retries"
	}
	return "not_attempted"
}

// Result is what Establish reports.
type Result struct {
	Outcome  Outcome
	Attempts int
	Err      error // last attempt error, nil when established
}

// OK reports whether a session was established.
func (r Result) OK() bool { return r.Outcome == Established }

// Manager runs the login state machine with bounded attempts.
type Manager struct {
	loginURL  string
	creds     config.Credentials
	selectors Selectors
	timing    Timing
	sleep     func(ctx context.Context, d time.Duration) error
	log       zerolog.Logger
}

// NewManager creates a Manager with default selectors and timing.
func NewManager(loginURL string, creds config.Credentials, logger zerolog.Logger) *Manager {
	return &Manager{
		loginURL:  loginURL,
		creds:     creds,
		selectors: DefaultSelectors(),
		timing:    DefaultTiming(),
		sleep:     retrylimit.Sleep,
		log:       logger.With().Str("component", "session").Logger(),
	}
}

// WithSelectors overrides the form selectors.
func (m *Manager) WithSelectors(s Selectors) *Manager {
	m.selectors = s
	return m
}

// WithTiming overrides the step timings.
func (m *Manager) WithTiming(t Timing) *Manager {
	m.timing = t
	return m
}

// Establish logs in on page. A successful attempt ends the loop; failed attempts are logged and
// retried after the backoff until MaxAttempts is reached.
func (m *Manager) Establish(ctx context.Context, page browser.Page) Result {
	policy := retrylimit.Fixed(m.timing.MaxAttempts, m.timing.Backoff)
	policy.Sleep = m.sleep
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		m.log.Warn().Int("attempt", attempt).Dur("backoff", wait).Msg("retrying login")
	}

	res := retrylimit.Attempt(ctx, policy, func(ctx context.Context, attempt int) error {
		log := m.log.With().Int("attempt", attempt).Str("attempt_id", uuid.NewString()).Logger()
		log.Info().Msg("starting login process")
		err := m.attempt(ctx, page, log)
		if err != nil {
			log.Error().Err(err).Msg("login attempt failed")
			return err
		}
		log.Info().Msg("login succeeded")
		return nil
	})

	out := Result{Attempts: res.Attempts, Err: res.Err}
	switch res.Outcome {
	case retrylimit.Succeeded:
		out.Outcome = Established
	case retrylimit.Exhausted:
		out.Outcome = ExhaustedRetries
		m.log.Error().Err(res.Err).Int("attempts", res.Attempts).Msg("all login attempts failed")
	default:
		out.Outcome = NotAttempted
	}
	return out
}

func (m *Manager) attempt(ctx context.Context, page browser.Page, log zerolog.Logger) error {
	s, t := m.selectors, m.timing

	if err := step(ctx, t.Navigate, func(ctx context.Context) error { return page.Navigate(ctx, m.loginURL) }); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	if err := m.sleep(ctx, t.Settle); err != nil {
		return err
	}

	if err := m.submit(ctx, page, s.Identity, m.creds.Identity, t.Field); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	log.Info().Msg("identity entered")

	if m.creds.SecondaryIdentity == "" {
		log.Info().Msg("no secondary identity configured, skipping prompt")
	} else if err := m.secondary(ctx, page, log); err != nil {
		return err
	}

	if err := m.submit(ctx, page, s.Secret, m.creds.Secret, t.Field); err != nil {
		return fmt.Errorf("secret: %w", err)
	}
	log.Info().Msg("secret entered")
	if err := m.sleep(ctx, t.AfterSecret); err != nil {
		return err
	}

	return m.confirm(ctx, page)
}

// secondary answers the optional verification prompt. Its absence is not an error.
func (m *Manager) secondary(ctx context.Context, page browser.Page, log zerolog.Logger) error {
	s, t := m.selectors, m.timing
	err := step(ctx, t.SecondaryField, func(ctx context.Context) error { return page.WaitVisible(ctx, s.SecondaryIdentity) })
	switch {
	case err == nil:
		if err := m.submit(ctx, page, s.SecondaryIdentity, m.creds.SecondaryIdentity, t.Field); err != nil {
			return fmt.Errorf("secondary identity: %w", err)
		}
		log.Info().Msg("secondary identity entered")
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		log.Info().Msg("no secondary identity prompt")
	}
	return nil
}

// submit waits for the field, types value and presses Enter.
func (m *Manager) submit(ctx context.Context, page browser.Page, selector, value string, wait time.Duration) error {
	err := step(ctx, wait, func(ctx context.Context) error {
		if err := page.WaitVisible(ctx, selector); err != nil {
			return err
		}
		if err := page.Type(ctx, selector, value); err != nil {
			return err
		}
		return page.PressEnter(ctx)
	})
	if err != nil {
		return err
	}
	return m.sleep(ctx, m.timing.AfterSubmit)
}

// confirm races every confirmation marker against the deadline. The first marker to become
// visible wins; the deadline resolves to ErrNotConfirmed.
func (m *Manager) confirm(ctx context.Context, page browser.Page) error {
	ctx, cancel := context.WithTimeout(ctx, m.timing.ConfirmDeadline)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	found := make(chan string, len(m.selectors.Confirm))
	for _, sel := range m.selectors.Confirm {
		wg.Add(1)
		go func(sel string) {
			defer wg.Done()
			if page.WaitVisible(ctx, sel) == nil {
				found <- sel
			}
		}(sel)
	}

	select {
	case sel := <-found:
		m.log.Debug().Str("marker", sel).Msg("login confirmed")
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrNotConfirmed
		}
		return ctx.Err()
	}
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
