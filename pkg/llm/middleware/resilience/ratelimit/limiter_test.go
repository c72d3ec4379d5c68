package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
)

func TestUnlimited(t *testing.T) {
	l := New(Config{})
	release, _, err := l.Acquire(context.Background(), 1_000_000)
	require.NoError(t, err)
	release()
}

func TestConcurrencyCap(t *testing.T) {
	l := New(Config{MaxConcurrency: 1})

	release, _, err := l.Acquire(context.Background(), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = l.Acquire(ctx, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release2, _, err := l.Acquire(context.Background(), 0)
	require.NoError(t, err)
	release2()
}

func TestTokenBucketBlocksWhenEmpty(t *testing.T) {
	l := New(Config{TokensPerMinute: 60})

	release, _, err := l.Acquire(context.Background(), 60)
	require.NoError(t, err)
	release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, err = l.Acquire(ctx, 30)
	assert.Error(t, err, "bucket refills at one token per second")
}

type countingClient struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countingClient) Complete(context.Context, llm.CompletionRequest) (llm.CompletionResponse, error) {
	n := c.inFlight.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	c.inFlight.Add(-1)
	return llm.CompletionResponse{Content: "ok"}, nil
}

func (c *countingClient) GetModelName() string { return "counting" }

func TestMiddlewareLimitsConcurrency(t *testing.T) {
	base := &countingClient{}
	client := llm.Chain(base, Middleware(New(Config{MaxConcurrency: 2}), func(llm.CompletionRequest) int { return 1 }, nil))
	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("x")})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Complete(context.Background(), req)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, base.peak.Load(), int32(2))
}
