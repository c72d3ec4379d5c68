package circuit

import (
	"context"
	"errors"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
)

// Middleware rejects requests while the breaker is open. Caller cancellation
// is not counted as a provider failure.
func Middleware(breaker Breaker) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				if !breaker.Allow() {
					return llm.CompletionResponse{}, &Error{Model: next.GetModelName(), State: breaker.State()}
				}

				resp, err := next.Complete(ctx, req)
				if err != nil && errors.Is(err, context.Canceled) {
					return resp, err
				}
				breaker.Record(err == nil)
				return resp, err //nolint:wrapcheck // pass through
			},
			next.GetModelName,
		)
	}
}
