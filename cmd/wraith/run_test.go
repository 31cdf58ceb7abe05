package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/wraith/internal/browser"
	"github.com/keshon/wraith/internal/browser/browsertest"
	"github.com/keshon/wraith/internal/session"
)

// fakeBrowser swaps the Chrome launcher for an empty scripted page.
func fakeBrowser(t *testing.T) (*browsertest.Page, *int) {
	t.Helper()
	page := browsertest.NewPage()
	closed := 0

	prevOpen, prevTiming := openPage, loginTiming
	openPage = func(browser.Options) (browser.Page, func() error, error) {
		return page, func() error { closed++; return nil }, nil
	}
	loginTiming = func() session.Timing {
		return session.Timing{
			MaxAttempts:     3,
			Backoff:         time.Millisecond,
			Navigate:        time.Second,
			Field:           10 * time.Millisecond,
			SecondaryField:  10 * time.Millisecond,
			ConfirmDeadline: 10 * time.Millisecond,
		}
	}
	t.Cleanup(func() {
		openPage, loginTiming = prevOpen, prevTiming
		if logCloser != nil {
			_ = logCloser.Close()
			logCloser = nil
		}
	})
	return page, &closed
}

func testEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("STATE_FILE", filepath.Join(dir, "state.json"))
	t.Setenv("PERSONA_FILE", "")
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("TWITTER_USERNAME", "")
}

func TestRunExhaustedLoginExitsNonZero(t *testing.T) {
	testEnv(t)
	t.Setenv("TWITTER_EMAIL", "wraith@example.com")
	t.Setenv("TWITTER_PASSWORD", "hunter2")
	page, closed := fakeBrowser(t)

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	defer rootCmd.SetErr(nil)

	code := execute(context.Background(), []string{"run"})

	assert.Equal(t, 1, code)
	assert.Equal(t, 3, page.Navigations())
	assert.Equal(t, 1, *closed, "browser released on the failure path")
	assert.Contains(t, stderr.String(), "exhausted_retries")
}

func TestRunWithoutCredentialsNeverLaunches(t *testing.T) {
	testEnv(t)
	t.Setenv("TWITTER_EMAIL", "")
	t.Setenv("TWITTER_PASSWORD", "")
	page, closed := fakeBrowser(t)

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	defer rootCmd.SetErr(nil)

	code := execute(context.Background(), []string{"run"})

	require.Equal(t, 1, code)
	assert.Zero(t, page.Navigations())
	assert.Zero(t, *closed)
	assert.Contains(t, stderr.String(), "TWITTER_EMAIL")
}
