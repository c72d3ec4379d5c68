package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/llmerrors"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/middleware/resilience/circuit"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		attempt int
		want    time.Duration
	}{
		{"first attempt has no delay", DefaultConfig, 1, 0},
		{"fixed delay", DefaultConfig, 2, 3 * time.Second},
		{"fixed delay later", DefaultConfig, 3, 3 * time.Second},
		{"doubling", Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}, 4, 400 * time.Millisecond},
		{"capped", Config{InitialDelay: 100 * time.Millisecond, MaxDelay: 250 * time.Millisecond, BackoffFactor: 2}, 5, 250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Exponential(tt.cfg)(tt.attempt))
		})
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	err := NoDelay(3).Do(context.Background(), func(_ context.Context, attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoExhausts(t *testing.T) {
	var retried []int
	p := NoDelay(3)
	p.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }

	boom := errors.New("boom")
	err := p.Do(context.Background(), func(context.Context, int) error { return boom })

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoNonRetryableReturnsImmediately(t *testing.T) {
	p := NoDelay(5)
	p.Classifier = LLMClassifier

	calls := 0
	authErr := llmerrors.NewError(llmerrors.ErrorTypeAuth, "bad key")
	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return authErr
	})
	assert.Same(t, authErr, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursCancellationBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Policy{MaxAttempts: 3, Backoff: Fixed(time.Hour), Classifier: Always}

	calls := 0
	err := p.Do(ctx, func(context.Context, int) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestLLMClassifier(t *testing.T) {
	assert.True(t, LLMClassifier(errors.New("plain")))
	assert.True(t, LLMClassifier(llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "429")))
	assert.False(t, LLMClassifier(&circuit.Error{State: circuit.Open}))
	assert.False(t, LLMClassifier(context.Canceled))
}

type flakyClient struct {
	failures int
	calls    int
}

func (f *flakyClient) Complete(context.Context, llm.CompletionRequest) (llm.CompletionResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeTransient, "reset")
	}
	return llm.CompletionResponse{Content: "done"}, nil
}

func (f *flakyClient) GetModelName() string { return "flaky" }

func TestMiddleware(t *testing.T) {
	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hello")})

	t.Run("recovers", func(t *testing.T) {
		base := &flakyClient{failures: 2}
		client := llm.Chain(base, Middleware(NoDelay(3)))
		resp, err := client.Complete(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "done", resp.Content)
		assert.Equal(t, 3, base.calls)
		assert.Equal(t, "flaky", client.GetModelName())
	})

	t.Run("service unavailable after budget", func(t *testing.T) {
		base := &flakyClient{failures: 10}
		client := llm.Chain(base, Middleware(NoDelay(2)))
		_, err := client.Complete(context.Background(), req)
		assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeServiceUnavailable))
		assert.Equal(t, 2, base.calls)
	})
}
