package circuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestBreakerTransitions(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	b := newWithClock(Config{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute}, clock.now)

	assert.True(t, b.Allow())
	b.Record(false)
	assert.Equal(t, Closed, b.State())
	b.Record(false)
	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())

	clock.t = clock.t.Add(time.Minute)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.State())

	b.Record(false)
	assert.Equal(t, Open, b.State(), "failure while half-open re-opens")

	clock.t = clock.t.Add(time.Minute)
	require.True(t, b.Allow())
	b.Record(true)
	assert.Equal(t, Closed, b.State())
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New(Config{FailureThreshold: 2, Timeout: time.Minute})
	b.Record(false)
	b.Record(true)
	b.Record(false)
	assert.Equal(t, Closed, b.State())

	b.Reset()
	assert.Equal(t, Closed, b.State())
}

type stubClient struct {
	err   error
	calls int
}

func (s *stubClient) Complete(context.Context, llm.CompletionRequest) (llm.CompletionResponse, error) {
	s.calls++
	return llm.CompletionResponse{Content: "ok"}, s.err
}

func (s *stubClient) GetModelName() string { return "stub" }

func TestMiddlewareRejectsWhenOpen(t *testing.T) {
	base := &stubClient{err: errors.New("boom")}
	client := llm.Chain(base, Middleware(New(Config{FailureThreshold: 1, Timeout: time.Hour})))
	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hi")})

	_, err := client.Complete(context.Background(), req)
	require.Error(t, err)

	_, err = client.Complete(context.Background(), req)
	var circuitErr *Error
	require.ErrorAs(t, err, &circuitErr)
	assert.Equal(t, Open, circuitErr.State)
	assert.Equal(t, "stub", circuitErr.Model)
	assert.Equal(t, 1, base.calls)
}
