// Package openaiofficial implements llm.LLMClient with the official OpenAI SDK (Responses API).
package openaiofficial

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/llmerrors"
)

// Client wraps the OpenAI SDK.
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates an OpenAI client with SDK retries disabled.
func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	return &Client{client: openai.NewClient(all...), model: model}
}

// Complete sends system messages as instructions and the rest as input text.
func (o *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	system, rest := llm.SplitSystem(in.Messages)
	if len(rest) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, "no user message to send")
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(int64(in.MaxTokens)),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(flatten(rest))},
	}
	if system != "" {
		params.Instructions = openai.String(system)
	}
	if supportsTemperature(o.model) {
		params.Temperature = openai.Float(float64(in.Temperature))
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return llm.CompletionResponse{}, err //nolint:wrapcheck // caller cancellation passes through
		}
		return llm.CompletionResponse{}, classifyError(err)
	}

	content := resp.OutputText()
	if content == "" {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "received empty response from OpenAI")
	}
	return llm.CompletionResponse{Content: content, StopReason: string(resp.Status)}, nil
}

// GetModelName returns the configured model.
func (o *Client) GetModelName() string {
	return o.model
}

// flatten renders a short conversation as a single input string.
func flatten(messages []llm.CompletionMessage) string {
	if len(messages) == 1 {
		return messages[0].Content
	}
	var b strings.Builder
	for i := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if messages[i].Role == llm.RoleAssistant {
			b.WriteString("Assistant: ")
		}
		b.WriteString(messages[i].Content)
	}
	return b.String()
}

// Reasoning models reject the temperature parameter.
func supportsTemperature(model string) bool {
	m := strings.ToLower(model)
	return !(strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4") || strings.HasPrefix(m, "gpt-5"))
}

func classifyError(err error) *llmerrors.Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return llmerrors.Classify(err, apiErr.StatusCode, "openai")
	}
	return llmerrors.Classify(err, 0, "openai")
}
