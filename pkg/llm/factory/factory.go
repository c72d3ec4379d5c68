// Package factory builds provider clients wrapped in the resilience middleware chain.
package factory

import (
	"fmt"
	"sync"
	"time"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/config"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/internal/providers/anthropic"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/internal/providers/google"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/internal/providers/ollama"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/internal/providers/openaiofficial"
	llmmetrics "github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/middleware/metrics"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/middleware/resilience/circuit"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/middleware/resilience/ratelimit"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/middleware/resilience/retry"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/middleware/resilience/timeout"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/logx"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/metrics"
)

// Factory creates LLM clients. Clients for the same provider share one
// circuit breaker and one rate limiter.
type Factory struct {
	cfg      *config.Config
	secrets  config.Secrets
	recorder metrics.Recorder
	logger   *logx.Logger

	mu       sync.Mutex
	breakers map[string]circuit.Breaker
	limiters map[string]*ratelimit.Limiter
}

// New creates a factory. A nil recorder disables metrics.
func New(cfg *config.Config, secrets config.Secrets, recorder metrics.Recorder, logger *logx.Logger) *Factory {
	if recorder == nil {
		recorder = metrics.Nop()
	}
	if logger == nil {
		logger = logx.NewLogger("llm")
	}
	return &Factory{
		cfg:      cfg,
		secrets:  secrets,
		recorder: recorder,
		logger:   logger,
		breakers: make(map[string]circuit.Breaker),
		limiters: make(map[string]*ratelimit.Limiter),
	}
}

// Client returns a client for model without retries; callers that retry
// on their own (the generation coordinator) use this. Requests rejected by
// the open breaker fail with *circuit.Error before reaching the provider.
//
// Chain: Metrics -> CircuitBreaker -> RateLimit -> Timeout -> provider.
func (f *Factory) Client(model string) (llm.LLMClient, error) {
	raw, provider, err := f.raw(model)
	if err != nil {
		return nil, err
	}
	breaker, limiter := f.shared(provider)
	return llm.Chain(raw,
		llmmetrics.Middleware(f.recorder, nil, f.logger),
		circuit.Middleware(breaker),
		ratelimit.Middleware(limiter, nil, f.recorder),
		timeout.Middleware(f.cfg.Timeout.Duration),
	), nil
}

// RetryingClient returns a client that also retries retryable failures
// with the configured policy.
//
// Chain: Metrics -> CircuitBreaker -> Retry -> RateLimit -> Timeout -> provider.
func (f *Factory) RetryingClient(model string) (llm.LLMClient, error) {
	raw, provider, err := f.raw(model)
	if err != nil {
		return nil, err
	}
	breaker, limiter := f.shared(provider)
	policy := f.RetryPolicy()
	return llm.Chain(raw,
		llmmetrics.Middleware(f.recorder, nil, f.logger),
		circuit.Middleware(breaker),
		retry.Middleware(policy),
		ratelimit.Middleware(limiter, nil, f.recorder),
		timeout.Middleware(f.cfg.Timeout.Duration),
	), nil
}

// RetryPolicy builds the configured retry policy using the LLM error classifier.
func (f *Factory) RetryPolicy() *retry.Policy {
	rc := f.cfg.Retry
	policy := retry.NewPolicy(retry.Config{
		MaxAttempts:   rc.MaxAttempts,
		InitialDelay:  rc.InitialDelay.Duration,
		MaxDelay:      rc.MaxDelay.Duration,
		BackoffFactor: rc.BackoffFactor,
		Jitter:        rc.Jitter,
	}, retry.LLMClassifier)
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		f.logger.Warn("attempt %d failed, retrying in %s: %v", attempt, delay, err)
	}
	return policy
}

// Provider returns the provider name for model.
func (f *Factory) Provider(model string) (string, error) {
	return config.ModelProvider(model)
}

// Breaker returns the shared circuit breaker for provider.
func (f *Factory) Breaker(provider string) circuit.Breaker {
	b, _ := f.shared(provider)
	return b
}

func (f *Factory) shared(provider string) (circuit.Breaker, *ratelimit.Limiter) {
	f.mu.Lock()
	defer f.mu.Unlock()

	breaker, ok := f.breakers[provider]
	if !ok {
		cb := f.cfg.CircuitBreaker
		breaker = circuit.New(circuit.Config{
			FailureThreshold: cb.FailureThreshold,
			SuccessThreshold: cb.SuccessThreshold,
			Timeout:          cb.Timeout.Duration,
		})
		f.breakers[provider] = breaker
	}

	limiter, ok := f.limiters[provider]
	if !ok {
		limiter = ratelimit.New(ratelimit.Config{
			TokensPerMinute: f.cfg.RateLimit.TokensPerMinute,
			MaxConcurrency:  f.cfg.RateLimit.MaxConcurrency,
		})
		f.limiters[provider] = limiter
	}
	return breaker, limiter
}

func (f *Factory) raw(model string) (llm.LLMClient, string, error) {
	provider, err := config.ModelProvider(model)
	if err != nil {
		return nil, "", fmt.Errorf("failed to determine provider for model %s: %w", model, err)
	}
	key, err := f.cfg.APIKey(provider, f.secrets)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get API key for provider %s: %w", provider, err)
	}

	name := config.ModelName(model)
	var client llm.LLMClient
	switch provider {
	case config.ProviderOllama:
		c, err := ollama.NewClient(key, name, nil)
		if err != nil {
			return nil, "", err //nolint:wrapcheck // already descriptive
		}
		client = c
	case config.ProviderAnthropic:
		client = anthropic.NewClient(key, name)
	case config.ProviderOpenAI:
		client = openaiofficial.NewClient(key, name)
	case config.ProviderGoogle:
		client = google.NewClient(key, name)
	default:
		return nil, "", fmt.Errorf("unsupported provider: %s", provider)
	}
	return client, provider, nil
}
