package ratelimit

import (
	"context"
	"strings"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/metrics"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/tokens"
)

// TokenEstimator predicts the prompt size of a request.
type TokenEstimator func(req llm.CompletionRequest) int

// EstimatePrompt counts prompt tokens with tiktoken.
func EstimatePrompt(req llm.CompletionRequest) int {
	var b strings.Builder
	for i := range req.Messages {
		b.WriteString(req.Messages[i].Content)
		b.WriteByte('\n')
	}
	return tokens.Count(b.String())
}

// Middleware acquires capacity from limiter before every request. The
// reservation covers the estimated prompt plus the request's MaxTokens.
func Middleware(limiter *Limiter, estimator TokenEstimator, recorder metrics.Recorder) llm.Middleware {
	if estimator == nil {
		estimator = EstimatePrompt
	}
	if recorder == nil {
		recorder = metrics.Nop()
	}

	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				model := next.GetModelName()

				release, wait, err := limiter.Acquire(ctx, estimator(req)+req.MaxTokens)
				recorder.ObserveQueueWait(model, wait)
				if err != nil {
					recorder.IncThrottle(model, "rate_limit")
					return llm.CompletionResponse{}, err
				}
				defer release()

				return next.Complete(ctx, req) //nolint:wrapcheck // pass through
			},
			next.GetModelName,
		)
	}
}
