package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/keshon/wraith/pkg/retrylimit"
)

// ErrEmptyResponse is returned when the service answers without text.
var ErrEmptyResponse = errors.New("ollama returned an empty response")

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama http %d: %s", e.Code, e.Body)
}

// StatusCode implements retrylimit.HTTPError.
func (e *StatusError) StatusCode() int { return e.Code }

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options requestOptions `json:"options"`
}

type requestOptions struct {
	Options
	NumPredict int `json:"num_predict,omitempty"` // ollama's own name for the token budget
}

type generateResponse struct {
	Response string `json:"response"`
}

// OllamaClient calls a local Ollama /api/generate endpoint.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
	limiter *retrylimit.AdaptiveLimiter
}

// NewOllamaClient creates a client for model at baseURL (e.g. http://localhost:11434).
func NewOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		limiter: retrylimit.NewAdaptiveLimiter(2, 0.2, 5, 0.5, 0.5),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *OllamaClient) WithHTTPClient(hc *http.Client) *OllamaClient {
	c.client = hc
	return c
}

// Model returns the model name requests are sent with.
func (c *OllamaClient) Model() string { return c.model }

// Generate sends one non-streaming generation request.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := c.generate(ctx, prompt, opts)
	c.limiter.Observe(err)
	return out, err
}

func (c *OllamaClient) generate(ctx context.Context, prompt string, opts Options) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: requestOptions{Options: opts, NumPredict: opts.MaxTokens},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Body: truncate(respBody)}
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal: %w body=%s", err, truncate(respBody))
	}
	reply := StripThinking(parsed.Response)
	if reply == "" {
		return "", ErrEmptyResponse
	}
	return reply, nil
}
