// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
)

// Page is a scripted browser.Page. Selectors listed as visible resolve at once; any other
// wait blocks until its context ends, which is how step timeouts are exercised.
type Page struct {
	mu       sync.Mutex
	visible  map[string]bool
	failures map[string]error
	blocked  map[string]bool
	calls    []string
	navs     int

	// OnNavigate runs before every navigation with the 1-based navigation count.
	OnNavigate func(n int, p *Page)
}

// NewPage returns a Page where the given selectors are visible.
func NewPage(visible ...string) *Page {
	p := &Page{visible: map[string]bool{}, failures: map[string]error{}, blocked: map[string]bool{}}
	p.Show(visible...)
	return p
}

// Show makes selectors visible.
func (p *Page) Show(selectors ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		p.visible[s] = true
	}
}

// Hide makes selectors invisible.
func (p *Page) Hide(selectors ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		delete(p.visible, s)
	}
}

// Fail makes actions on key return err. key is a selector, "navigate" or "enter".
func (p *Page) Fail(key string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failures, key)
		return
	}
	p.failures[key] = err
}

// Block makes Type and Click on selector hang until their context ends.
func (p *Page) Block(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocked[selector] = true
}

// Calls returns the recorded actions in order.
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Navigations returns how many times Navigate was called.
func (p *Page) Navigations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.navs
}

func (p *Page) record(format string, args ...any) {
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.navs++
	n, hook := p.navs, p.OnNavigate
	p.record("navigate %s", url)
	p.mu.Unlock()

	if hook != nil {
		hook(n, p)
	}
	return p.failure("navigate")
}

func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	p.mu.Lock()
	p.record("wait %s", selector)
	ok := p.visible[selector]
	p.mu.Unlock()

	if ok {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (p *Page) Type(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	p.record("type %s %s", selector, text)
	p.mu.Unlock()
	return p.act(ctx, selector)
}

func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	p.record("click %s", selector)
	p.mu.Unlock()
	return p.act(ctx, selector)
}

func (p *Page) PressEnter(ctx context.Context) error {
	p.mu.Lock()
	p.record("enter")
	p.mu.Unlock()
	return p.failure("enter")
}

func (p *Page) act(ctx context.Context, selector string) error {
	p.mu.Lock()
	blocked := p.blocked[selector]
	p.mu.Unlock()
	if blocked {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.failure(selector)
}

func (p *Page) failure(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures[key]
}
