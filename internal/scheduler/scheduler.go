// Package scheduler runs the post cycle until the context ends.
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/wraith/internal/browser"
	"github.com/keshon/wraith/internal/mind"
	"github.com/keshon/wraith/pkg/retrylimit"
)

// Generator produces the next post, or false to skip the cycle.
type Generator interface {
	Generate(ctx context.Context) (string, bool)
}

// Publisher posts onto the live session.
type Publisher interface {
	Publish(ctx context.Context, page browser.Page, content string) bool
}

// Config sets the cadence.
type Config struct {
	Interval   time.Duration
	Variance   time.Duration // uniform jitter, +/-
	StaleAfter time.Duration // 0 disables the staleness check
}

// Scheduler owns the loop. It is not safe for concurrent use.
type Scheduler struct {
	gen    Generator
	pub    Publisher
	page   browser.Page
	memory *mind.Memory
	saver  mind.Saver
	cfg    Config
	rng    mind.Rand
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	log    zerolog.Logger
}

// New creates a Scheduler that publishes on page.
func New(gen Generator, pub Publisher, page browser.Page, memory *mind.Memory, saver mind.Saver, cfg Config, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		gen:    gen,
		pub:    pub,
		page:   page,
		memory: memory,
		saver:  saver,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		sleep:  retrylimit.Sleep,
		log:    logger.With().Str("component", "scheduler").Logger(),
	}
}

// Run loops generate, publish, wait. It returns nil when ctx ends and an error when a cycle panics.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().
		Dur("interval", s.cfg.Interval).
		Dur("variance", s.cfg.Variance).
		Msg("scheduler started")

	for {
		if ctx.Err() != nil {
			s.log.Info().Msg("scheduler stopped")
			return nil
		}
		if err := s.cycle(ctx); err != nil {
			return err
		}
		wait := s.Next()
		s.log.Debug().Dur("wait", wait).Msg("next post scheduled")
		if err := s.sleep(ctx, wait); err != nil {
			s.log.Info().Msg("scheduler stopped")
			return nil
		}
	}
}

// Next returns the jittered delay before the following cycle.
func (s *Scheduler) Next() time.Duration {
	offset := time.Duration((s.rng.Float64()*2 - 1) * float64(s.cfg.Variance))
	d := s.cfg.Interval + offset
	if d < 0 {
		return 0
	}
	return d
}

func (s *Scheduler) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("post cycle panicked")
			err = fmt.Errorf("post cycle panicked: %v", r)
		}
	}()

	if post, ok := s.gen.Generate(ctx); ok {
		if !s.pub.Publish(ctx, s.page, post) {
			s.log.Warn().Msg("failed to post")
		}
	}

	s.checkStale()
	return nil
}

func (s *Scheduler) checkStale() {
	if s.cfg.StaleAfter <= 0 || s.memory == nil {
		return
	}
	since := s.now().Sub(s.memory.LastPostTime)
	if since <= s.cfg.StaleAfter {
		return
	}
	s.log.Warn().Dur("since_last_post", since).Msg("no post for a long time")
	if s.saver != nil {
		if err := s.saver.Save(); err != nil {
			s.log.Error().Err(err).Msg("failed to save state")
		}
	}
}
