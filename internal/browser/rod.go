package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// Options configure the Chrome instance.
type Options struct {
	Bin            string // empty lets rod download or find a browser
	Headless       bool
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	TypingDelay    time.Duration // pause between typed characters, 0 types at once
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		ViewportWidth:  1280,
		ViewportHeight: 800,
		TypingDelay:    100 * time.Millisecond,
	}
}

// Browser owns a launched Chrome process. Close must be called on every exit path.
type Browser struct {
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
	log      zerolog.Logger
}

// Launch starts Chrome and connects to it.
func Launch(opts Options, logger zerolog.Logger) (*Browser, error) {
	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(true).
		Set(flags.Flag("disable-setuid-sandbox")).
		Set(flags.Flag("disable-notifications")).
		Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", opts.ViewportWidth, opts.ViewportHeight))
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	log := logger.With().Str("component", "browser").Logger()
	log.Info().Bool("headless", opts.Headless).Msg("browser started")
	return &Browser{opts: opts, launcher: l, browser: b, log: log}, nil
}

// NewPage opens a blank tab with the configured user agent and viewport.
func (b *Browser) NewPage() (*RodPage, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if b.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.opts.UserAgent}); err != nil {
			b.log.Warn().Err(err).Msg("failed to set user agent")
		}
	}
	if b.opts.ViewportWidth > 0 && b.opts.ViewportHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             b.opts.ViewportWidth,
			Height:            b.opts.ViewportHeight,
			DeviceScaleFactor: 1.0,
		}); err != nil {
			b.log.Warn().Err(err).Msg("failed to set viewport")
		}
	}
	return &RodPage{page: page, typingDelay: b.opts.TypingDelay}, nil
}

// Close shuts Chrome down and removes its temporary profile.
func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	b.log.Info().Msg("browser closed")
	return err
}

// RodPage implements Page on a rod tab.
type RodPage struct {
	page        *rod.Page
	typingDelay time.Duration
}

func (p *RodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return pg.WaitLoad()
}

func (p *RodPage) WaitVisible(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	return el.WaitVisible()
}

func (p *RodPage) Type(ctx context.Context, selector, text string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	if p.typingDelay <= 0 {
		return el.Input(text)
	}
	if err := el.Focus(); err != nil {
		return err
	}
	pg := p.page.Context(ctx)
	for _, r := range text {
		if err := pg.InsertText(string(r)); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.typingDelay):
		}
	}
	return nil
}

func (p *RodPage) Click(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *RodPage) PressEnter(ctx context.Context) error {
	return p.page.Context(ctx).Keyboard.Press(input.Enter)
}
