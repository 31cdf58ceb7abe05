package ai

import (
	"regexp"
	"strings"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinking removes <think>...</think> blocks emitted by reasoning models and trims the rest.
func StripThinking(reply string) string {
	reply = thinkBlock.ReplaceAllString(reply, "")
	return strings.TrimSpace(reply)
}

func truncate(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}
