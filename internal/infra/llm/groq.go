// Groq HTTP adapter. GroqProvider calls Groq's OpenAI-compatible REST API:
//   - POST {base}/chat/completions — non-streaming chat completion
//   - GET  {base}/models           — health check
//
// Rate-limit responses (HTTP 429) are surfaced as *RateLimitError so the
// caller can honor the provider-suggested wait instead of a blind backoff.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RateLimitError indicates the provider rejected the request with HTTP 429.
// RetryAfter carries the provider-suggested wait in seconds when the error
// body included one ("try again in 3.5s"), nil otherwise.
type RateLimitError struct {
	Message    string
	RetryAfter *float64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("groq rate limited: %s", e.Message)
}

// IsRateLimit reports whether err is (or wraps) a rate-limit error.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// retryAfterRe extracts the suggested wait from Groq 429 error messages,
// e.g. "Rate limit reached ... Please try again in 7.66s."
var retryAfterRe = regexp.MustCompile(`try again in ([0-9.]+)s`)

// GroqProvider implements Provider against the Groq cloud API.
// Groq exposes no embeddings endpoint, so Embed always fails.
type GroqProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGroqProvider creates a GroqProvider with a 60s default timeout.
func NewGroqProvider(baseURL, apiKey, model string) *GroqProvider {
	return &GroqProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ─── internal Groq JSON types (OpenAI wire format) ───────────────────────────

type groqChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatRequest struct {
	Model       string            `json:"model"`
	Messages    []groqChatMessage `json:"messages"`
	Temperature float32           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Stream      bool              `json:"stream"`
}

type groqChatResponse struct {
	Choices []struct {
		Message      groqChatMessage `json:"message"`
		FinishReason string          `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type groqErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ─── Provider implementation ─────────────────────────────────────────────────

// ChatCompletion performs a non-streaming chat via POST /chat/completions.
func (p *GroqProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	msgs := make([]groqChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = groqChatMessage(m)
	}

	body, err := json.Marshal(groqChatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, err
	}

	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("groq chat: build request: %w", err)
	}
	httpReq.Header.Set(headerContentType, mimeJSON)
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("groq chat: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, parseRateLimit(resp.Body)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("groq chat: status %d: %s", resp.StatusCode, readErrorMessage(resp.Body))
	}

	var groqResp groqChatResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&groqResp); decodeErr != nil {
		return nil, fmt.Errorf("decode chat response: %w", decodeErr)
	}
	if len(groqResp.Choices) == 0 {
		return nil, fmt.Errorf("groq chat: empty choices")
	}
	return &ChatResponse{
		Content:    groqResp.Choices[0].Message.Content,
		StopReason: groqResp.Choices[0].FinishReason,
		Tokens:     groqResp.Usage.TotalTokens,
	}, nil
}

// Embed is not supported by the Groq API.
func (p *GroqProvider) Embed(_ context.Context, _ EmbedRequest) (*EmbedResponse, error) {
	return nil, fmt.Errorf("groq: embeddings not supported")
}

// ModelInfo returns static metadata for this provider/model.
func (p *GroqProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "groq",
		Version:   "v1",
		MaxTokens: 32768,
	}
}

// HealthCheck calls GET /models — returns nil if the API key is valid and
// the service is reachable.
func (p *GroqProvider) HealthCheck(ctx context.Context) error {
	url := p.baseURL + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("groq healthcheck: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("groq healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("groq healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// parseRateLimit builds a RateLimitError from a 429 body, extracting the
// suggested wait when the error message carries one.
func parseRateLimit(body io.Reader) *RateLimitError {
	msg := readErrorMessage(body)
	rle := &RateLimitError{Message: msg}
	if m := retryAfterRe.FindStringSubmatch(msg); m != nil {
		if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
			rle.RetryAfter = &secs
		}
	}
	return rle
}

// readErrorMessage extracts the message from an OpenAI-style error body,
// falling back to the raw body text.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return "unreadable error body"
	}
	var parsed groqErrorResponse
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
