// Package retry provides bounded retry policies for LLM calls and any other
// fallible unit of work.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/llmerrors"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/middleware/resilience/circuit"
)

// Config defines configuration for retry behavior.
type Config struct {
	MaxAttempts   int           `json:"max_attempts"`   // Maximum number of attempts (including initial)
	InitialDelay  time.Duration `json:"initial_delay"`  // Delay before the second attempt
	MaxDelay      time.Duration `json:"max_delay"`      // Maximum delay between attempts
	BackoffFactor float64       `json:"backoff_factor"` // 1.0 gives a fixed delay
	Jitter        bool          `json:"jitter"`         // Spread delays by +/-10%
}

// DefaultConfig is three attempts with a fixed three second pause between them.
//
//nolint:gochecknoglobals // Sensible default config pattern
var DefaultConfig = Config{
	MaxAttempts:   3,
	InitialDelay:  3 * time.Second,
	MaxDelay:      3 * time.Second,
	BackoffFactor: 1.0,
	Jitter:        false,
}

// Classifier determines if an error should be retried.
type Classifier func(error) bool

// BackoffFunc returns the pause before the given attempt (attempt >= 2).
type BackoffFunc func(attempt int) time.Duration

// Always retries every error except caller cancellation.
func Always(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// LLMClassifier retries classified-retryable LLM errors and never retries an
// open circuit, leaving recovery to the breaker.
func LLMClassifier(err error) bool {
	var circuitErr *circuit.Error
	if errors.As(err, &circuitErr) {
		return false
	}
	return llmerrors.IsRetryable(err)
}

// Fixed returns a backoff that always waits d.
func Fixed(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// Exponential returns a backoff derived from cfg.
func Exponential(cfg Config) BackoffFunc {
	return func(attempt int) time.Duration {
		if attempt <= 1 {
			return 0
		}
		factor := cfg.BackoffFactor
		if factor <= 0 {
			factor = 1
		}
		delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(factor, float64(attempt-2)))
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		if cfg.Jitter && delay > 0 {
			spread := float64(delay) * 0.1
			delay += time.Duration((rand.Float64()*2 - 1) * spread) //nolint:gosec // jitter does not need crypto rand
		}
		return delay
	}
}

// Policy encapsulates retry configuration and logic.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	Classifier  Classifier

	// OnRetry, when set, is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// NewPolicy creates a policy from config. A nil classifier retries everything.
func NewPolicy(config Config, classifier Classifier) *Policy {
	if classifier == nil {
		classifier = Always
	}
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Policy{
		MaxAttempts: attempts,
		Backoff:     Exponential(config),
		Classifier:  classifier,
	}
}

// NoDelay returns a policy with the given attempt bound and no pauses.
func NoDelay(attempts int) *Policy {
	return &Policy{MaxAttempts: attempts, Backoff: Fixed(0), Classifier: Always}
}

// ExhaustedError is returned by Do when every attempt failed with a retryable error.
type ExhaustedError struct {
	Err      error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs fn until it succeeds, returns a non-retryable error, exhausts the
// attempt budget, or ctx is cancelled. Cancellation is observed between
// attempts; an attempt in progress is never abandoned by Do itself.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	classify := p.Classifier
	if classify == nil {
		classify = Always
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			var delay time.Duration
			if p.Backoff != nil {
				delay = p.Backoff(attempt)
			}
			if p.OnRetry != nil {
				p.OnRetry(attempt-1, lastErr, delay)
			}
			if err := sleep(ctx, delay); err != nil {
				return fmt.Errorf("retry cancelled: %w", err)
			}
		} else if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !classify(err) {
			return err
		}
	}
	return &ExhaustedError{Err: lastErr, Attempts: maxAttempts}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
