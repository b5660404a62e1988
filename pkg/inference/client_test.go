package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskline-ai/riskline/pkg/config"
)

func newTestClient(t *testing.T, upstream http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	cfg := config.Default().Model
	cfg.URL = srv.URL
	cfg.Timeout = time.Second
	cfg.BackoffBase = time.Millisecond
	return New(cfg), srv
}

func chatCompletion(content string, totalTokens int) string {
	return fmt.Sprintf(`{
		"model": "ibm/granite-3-2-8b-instruct",
		"choices": [{"message": {"role": "assistant", "content": %q}}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": %d}
	}`, content, totalTokens)
}

func TestInvokeSuccess(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, chatCompletion(`{"risk_score": 0.8}`, 42))
	})

	gen, err := c.Invoke(context.Background(), "analyze this")
	if err != nil {
		t.Fatal(err)
	}
	if gen.Tokens != 42 {
		t.Errorf("expected upstream usage 42 tokens, got %d", gen.Tokens)
	}
	if gen.Text != `{"risk_score": 0.8}` {
		t.Errorf("unexpected text: %s", gen.Text)
	}
}

func TestInvokeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, chatCompletion("ok", 20))
	})

	gen, err := c.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
	if gen.Text != "ok" {
		t.Errorf("unexpected text %q", gen.Text)
	}
}

func TestInvokeExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Invoke(context.Background(), "prompt")
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls.Load())
	}
}

func TestInvokeDoesNotRetryMalformedBody(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "this is not json")
	})

	_, err := c.Invoke(context.Background(), "prompt")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("malformed responses must not be retried, got %d attempts", calls.Load())
	}
}

func TestInvokeTimesOutPerAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := config.Default().Model
	cfg.URL = srv.URL
	cfg.Timeout = 20 * time.Millisecond
	cfg.BackoffBase = time.Millisecond
	c := New(cfg)

	_, err := c.Invoke(context.Background(), "prompt")
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable after timeouts, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 timed-out attempts, got %d", calls.Load())
	}
}

func TestInvokeHonorsContextCancellation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Invoke(ctx, "prompt"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestEstimatePromptTokens(t *testing.T) {
	cfg := config.Default().Model
	cfg.MaxNewTokens = 300
	c := New(cfg)

	if got := c.EstimatePromptTokens("xxxxxxxx"); got != 2+300 {
		t.Errorf("expected 302, got %d", got)
	}
}
