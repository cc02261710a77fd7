// Resilient model caller. Caller wraps a Provider with the retry, pacing,
// and prompt-hygiene policy every model call in the application goes
// through:
//
//   - MaxTokens is clamped to the configured ceiling before sending.
//   - Oversized prompts are truncated per message, keeping the tail.
//   - An unconditional pacing delay runs before the first attempt.
//   - Rate limits wait the provider-suggested time when given, otherwise
//     base*4^attempt. Other failures wait base*3^attempt.
//   - An empty or whitespace-only completion is replaced with a sentinel
//     message and returned as success. It is not retried.
//   - When all attempts fail the returned error wraps ErrExhausted.
//
// All waits are cancellable through the request context.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrExhausted is returned (wrapped) when every retry attempt has failed.
var ErrExhausted = errors.New("llm: retry attempts exhausted")

// EmptyResponseSentinel replaces empty or whitespace-only completions so
// downstream formatting never renders a blank answer.
const EmptyResponseSentinel = "[LLM ERROR] No response generated. Please try again or check model/provider settings."

// RetryConfig tunes the Caller. Zero values are replaced by defaults
// in NewCaller.
type RetryConfig struct {
	MaxAttempts     int           // default 5
	BaseDelay       time.Duration // default 10s
	InitialPacing   time.Duration // default 5s, applied before every first attempt
	PromptCharLimit int           // default 6000, total chars across messages
	PromptKeepChars int           // default 4000, tail kept per message when truncating
	MaxTokens       int           // default 1024, server-side ceiling for req.MaxTokens
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 10 * time.Second
	}
	if c.InitialPacing < 0 {
		c.InitialPacing = 0
	} else if c.InitialPacing == 0 {
		c.InitialPacing = 5 * time.Second
	}
	if c.PromptCharLimit <= 0 {
		c.PromptCharLimit = 6000
	}
	if c.PromptKeepChars <= 0 {
		c.PromptKeepChars = 4000
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	return c
}

// Caller is the resilient front door to a Provider.
type Caller struct {
	provider Provider
	cfg      RetryConfig
}

// NewCaller wraps provider with the retry policy in cfg.
func NewCaller(provider Provider, cfg RetryConfig) *Caller {
	return &Caller{provider: provider, cfg: cfg.withDefaults()}
}

// Call performs a chat completion with pacing, retries, and prompt hygiene.
// It never panics on failure; exhaustion returns an error wrapping
// ErrExhausted.
func (c *Caller) Call(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req = c.prepare(req)

	// Pace before the first attempt, unconditionally. Keeps bursty
	// aggregator traffic under free-tier rate limits.
	if err := sleepCtx(ctx, c.cfg.InitialPacing); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			// Backoff grows with the index of the attempt that failed.
			if err := sleepCtx(ctx, c.backoff(lastErr, attempt-1)); err != nil {
				return nil, err
			}
		}

		resp, err := c.provider.ChatCompletion(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		// An empty completion is a terminal outcome, not a transient
		// failure. Retrying it would burn quota for the same result.
		if strings.TrimSpace(resp.Content) == "" {
			resp.Content = EmptyResponseSentinel
		}
		return resp, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrExhausted, c.cfg.MaxAttempts, lastErr)
}

// prepare clamps MaxTokens and truncates oversized prompts.
func (c *Caller) prepare(req ChatRequest) ChatRequest {
	if req.MaxTokens <= 0 || req.MaxTokens > c.cfg.MaxTokens {
		req.MaxTokens = c.cfg.MaxTokens
	}

	total := 0
	for _, m := range req.Messages {
		total += len(m.Content)
	}
	if total <= c.cfg.PromptCharLimit {
		return req
	}

	// Keep the tail of each message. The most recent evidence and the
	// question itself sit at the end of the prompt.
	msgs := make([]Message, len(req.Messages))
	copy(msgs, req.Messages)
	for i, m := range msgs {
		if len(m.Content) > c.cfg.PromptKeepChars {
			msgs[i].Content = m.Content[len(m.Content)-c.cfg.PromptKeepChars:]
		}
	}
	req.Messages = msgs
	return req
}

// backoff computes the wait after the failure with the given 0-based
// attempt index. Rate limits honor the provider-suggested wait when
// present, otherwise grow base*4^attempt. All other errors grow
// base*3^attempt.
func (c *Caller) backoff(err error, attempt int) time.Duration {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		if rle.RetryAfter != nil {
			return time.Duration(*rle.RetryAfter * float64(time.Second))
		}
		return time.Duration(float64(c.cfg.BaseDelay) * math.Pow(4, float64(attempt)))
	}
	return time.Duration(float64(c.cfg.BaseDelay) * math.Pow(3, float64(attempt)))
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
