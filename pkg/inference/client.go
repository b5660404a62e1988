// Package inference wraps the external text-generation service: one
// HTTP call per attempt with a hard timeout, bounded retry with
// exponential backoff for transient failures, and strict parsing of the
// free-text model output into typed operation payloads.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/riskline-ai/riskline/pkg/config"
)

// ErrServiceUnavailable marks a transient upstream failure that survived
// all retry attempts. The orchestrator maps it to the fallback path.
var ErrServiceUnavailable = errors.New("inference service unavailable")

// ErrMalformedResponse marks upstream output that could not be parsed or
// validated. Never retried; parsing problems are not transient.
var ErrMalformedResponse = errors.New("malformed inference response")

// Generation is the raw outcome of a successful upstream call.
type Generation struct {
	Text    string
	Tokens  int
	Elapsed time.Duration
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient   *http.Client
	url          string
	apiKey       string
	modelID      string
	maxNewTokens int
	temperature  float64
	maxAttempts  int
	backoffBase  time.Duration
}

// New creates a Client from the model configuration.
func New(cfg config.ModelConfig) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		url:          cfg.URL,
		apiKey:       cfg.APIKey,
		modelID:      cfg.ID,
		maxNewTokens: cfg.MaxNewTokens,
		temperature:  cfg.Temperature,
		maxAttempts:  cfg.MaxAttempts,
		backoffBase:  cfg.BackoffBase,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.modelID }

// MaxNewTokens returns the completion-size bound used for cost estimates.
func (c *Client) MaxNewTokens() int { return c.maxNewTokens }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage,omitempty"`
}

// backoffState is the bounded retry state machine: attempt count plus
// the next delay, doubling per transition.
type backoffState struct {
	attempt   int
	nextDelay time.Duration
}

func (b *backoffState) wait(ctx context.Context) error {
	timer := time.NewTimer(b.nextDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	b.attempt++
	b.nextDelay *= 2
	return nil
}

// Invoke sends the prompt upstream and returns the raw generation.
// Transport errors, timeouts, and 5xx responses are retried up to the
// attempt bound; anything else fails immediately.
func (c *Client) Invoke(ctx context.Context, prompt string) (Generation, error) {
	start := time.Now()
	bo := backoffState{attempt: 1, nextDelay: c.backoffBase}

	var lastErr error
	for bo.attempt <= c.maxAttempts {
		gen, retryable, err := c.attempt(ctx, prompt)
		if err == nil {
			gen.Elapsed = time.Since(start)
			return gen, nil
		}
		lastErr = err
		if !retryable {
			return Generation{}, err
		}
		log.Printf("inference attempt %d/%d failed: %v", bo.attempt, c.maxAttempts, err)
		if bo.attempt == c.maxAttempts {
			break
		}
		if werr := bo.wait(ctx); werr != nil {
			return Generation{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, werr)
		}
	}

	return Generation{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, lastErr)
}

// attempt performs a single upstream call. The second return value
// reports whether the failure is transient.
func (c *Client) attempt(ctx context.Context, prompt string) (Generation, bool, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.modelID,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxNewTokens,
	})
	if err != nil {
		return Generation{}, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Generation{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Generation{}, true, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Generation{}, true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return Generation{}, true, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return Generation{}, false, fmt.Errorf("%w: upstream returned %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return Generation{}, false, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(chat.Choices) == 0 {
		return Generation{}, false, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	text := chat.Choices[0].Message.Content
	tokens := estimateTokens(prompt, text)
	if chat.Usage != nil && chat.Usage.TotalTokens > 0 {
		tokens = chat.Usage.TotalTokens
	}

	return Generation{Text: text, Tokens: tokens}, false, nil
}

// estimateTokens approximates token usage from character length when the
// upstream omits usage data. The divisor is deliberately conservative.
func estimateTokens(prompt, completion string) int {
	return (len(prompt) + len(completion)) / 4
}

// EstimatePromptTokens approximates the token cost of a prompt plus the
// configured completion bound, for pre-call budget admission.
func (c *Client) EstimatePromptTokens(prompt string) int {
	return len(prompt)/4 + c.maxNewTokens
}
