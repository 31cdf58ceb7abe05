// Package browser drives a headless Chrome through go-rod.
package browser

import "context"

// Page is the small surface of a browser tab the agent needs. Every call blocks until it
// succeeds or ctx is done; callers bound each step with a context timeout.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	PressEnter(ctx context.Context) error
}
