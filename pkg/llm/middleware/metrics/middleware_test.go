package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/llmerrors"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/middleware/resilience/circuit"
)

type observation struct {
	model     string
	prompt    int
	success   bool
	errorType string
}

type captureRecorder struct {
	mu  sync.Mutex
	obs []observation
}

func (c *captureRecorder) ObserveRequest(model string, promptTokens, _ int, success bool, errorType string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs = append(c.obs, observation{model, promptTokens, success, errorType})
}
func (c *captureRecorder) IncThrottle(string, string) {}
func (c *captureRecorder) ObserveQueueWait(string, time.Duration) {}
func (c *captureRecorder) ObserveTitle(string) {}

type stub struct{ err error }

func (s stub) Complete(context.Context, llm.CompletionRequest) (llm.CompletionResponse, error) {
	if s.err != nil {
		return llm.CompletionResponse{}, s.err
	}
	return llm.CompletionResponse{Content: "documentation"}, nil
}

func (s stub) GetModelName() string { return "llama3:8b" }

func TestMiddlewareRecords(t *testing.T) {
	rec := &captureRecorder{}
	fixed := func(llm.CompletionRequest, llm.CompletionResponse) (int, int) { return 7, 3 }
	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("title")})

	ok := llm.Chain(stub{}, Middleware(rec, fixed, nil))
	_, err := ok.Complete(context.Background(), req)
	require.NoError(t, err)

	failing := llm.Chain(stub{err: llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "429")}, Middleware(rec, fixed, nil))
	_, err = failing.Complete(context.Background(), req)
	require.Error(t, err)

	require.Len(t, rec.obs, 2)
	assert.Equal(t, observation{"llama3:8b", 7, true, ""}, rec.obs[0])
	assert.Equal(t, observation{"llama3:8b", 0, false, "rate_limit"}, rec.obs[1])
}

func TestErrorLabel(t *testing.T) {
	assert.Equal(t, "", ErrorLabel(nil))
	assert.Equal(t, "circuit_breaker", ErrorLabel(&circuit.Error{State: circuit.Open}))
	assert.Equal(t, "canceled", ErrorLabel(fmt.Errorf("x: %w", context.Canceled)))
	assert.Equal(t, "timeout", ErrorLabel(context.DeadlineExceeded))
	assert.Equal(t, "unknown", ErrorLabel(errors.New("odd")))
}

func TestDefaultUsageExtractor(t *testing.T) {
	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("Write documentation for Smart Irrigation System")})
	p, c := DefaultUsageExtractor(req, llm.CompletionResponse{Content: "Project Overview: ..."})
	assert.Positive(t, p)
	assert.Positive(t, c)
}
