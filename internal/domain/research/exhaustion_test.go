package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akhawaja/medassist/internal/domain/evidence"
	"github.com/akhawaja/medassist/internal/infra/llm"
)

// rateLimitedProvider always answers with a throttling error carrying no
// suggested wait.
type rateLimitedProvider struct {
	calls int
}

func (p *rateLimitedProvider) ChatCompletion(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	p.calls++
	return nil, &llm.RateLimitError{Message: "Rate limit reached."}
}

func (p *rateLimitedProvider) Embed(context.Context, llm.EmbedRequest) (*llm.EmbedResponse, error) {
	return nil, errors.New("not implemented")
}
func (p *rateLimitedProvider) ModelInfo() llm.ModelMeta          { return llm.ModelMeta{} }
func (p *rateLimitedProvider) HealthCheck(context.Context) error { return nil }

// A provider that never recovers drains the whole retry budget and then
// surfaces the temporary-unavailability answer, exercising the real
// resilient caller end to end.
func TestAnswer_RateLimitedUntilExhaustion(t *testing.T) {
	t.Parallel()

	provider := &rateLimitedProvider{}
	caller := llm.NewCaller(provider, llm.RetryConfig{
		MaxAttempts:   4,
		BaseDelay:     time.Millisecond,
		InitialPacing: time.Millisecond,
	})

	lit := &stubSearcher{items: []evidence.Item{litItem("12121212", "A study")}}
	svc := NewService(Config{Literature: lit, Guidelines: &stubSearcher{}, Caller: caller})

	ans, err := svc.Answer(context.Background(), "anything")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("err = %v, want ErrModelUnavailable", err)
	}
	if provider.calls != 4 {
		t.Errorf("provider calls = %d, want exactly the configured 4 attempts", provider.calls)
	}
	if ans.Text != unavailableAnswer {
		t.Errorf("answer = %q, want the unavailable message", ans.Text)
	}
}
