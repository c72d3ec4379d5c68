package retry

import (
	"context"
	"errors"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/llmerrors"
)

// Middleware wraps an LLM client so that each Complete call is retried
// according to policy. Exhausted retries surface as a ServiceUnavailable error.
func Middleware(policy *Policy) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				var resp llm.CompletionResponse
				err := policy.Do(ctx, func(ctx context.Context, _ int) error {
					var callErr error
					resp, callErr = next.Complete(ctx, req)
					return callErr
				})
				var exhausted *ExhaustedError
				if errors.As(err, &exhausted) {
					return llm.CompletionResponse{}, llmerrors.NewServiceUnavailableError(exhausted.Err, exhausted.Attempts)
				}
				if err != nil {
					return llm.CompletionResponse{}, err
				}
				return resp, nil
			},
			next.GetModelName,
		)
	}
}
