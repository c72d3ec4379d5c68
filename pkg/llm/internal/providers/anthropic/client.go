// Package anthropic implements llm.LLMClient with the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/llmerrors"
)

// Client wraps the Anthropic SDK.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClient creates a Claude client. SDK-level retries are disabled because
// retry policy is owned by the caller.
func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	return &Client{
		client: anthropic.NewClient(all...),
		model:  anthropic.Model(model),
	}
}

// Complete sends the conversation and concatenates the text blocks of the reply.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	system, rest := llm.SplitSystem(in.Messages)
	turns := alternate(rest)
	if len(turns) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, "no user message to send")
	}

	messages := make([]anthropic.MessageParam, 0, len(turns))
	for i := range turns {
		block := anthropic.NewTextBlock(turns[i].Content)
		if turns[i].Role == llm.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   int64(in.MaxTokens),
		Temperature: anthropic.Float(float64(in.Temperature)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return llm.CompletionResponse{}, err //nolint:wrapcheck // caller cancellation passes through
		}
		return llm.CompletionResponse{}, classifyError(err)
	}

	var text strings.Builder
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			text.WriteString(resp.Content[i].AsText().Text)
		}
	}
	if text.Len() == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "received empty response from Claude API")
	}

	return llm.CompletionResponse{
		Content:    text.String(),
		StopReason: string(resp.StopReason),
	}, nil
}

// GetModelName returns the configured model.
func (c *Client) GetModelName() string {
	return string(c.model)
}

// alternate merges consecutive messages with the same role, which the
// Messages API rejects, and drops leading assistant turns.
func alternate(messages []llm.CompletionMessage) []llm.CompletionMessage {
	out := make([]llm.CompletionMessage, 0, len(messages))
	for i := range messages {
		msg := messages[i]
		if len(out) == 0 && msg.Role != llm.RoleUser {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Role == msg.Role {
			out[len(out)-1].Content += "\n\n" + msg.Content
			continue
		}
		out = append(out, msg)
	}
	return out
}

func classifyError(err error) *llmerrors.Error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llmerrors.Classify(err, apiErr.StatusCode, "anthropic")
	}
	return llmerrors.Classify(err, 0, "anthropic")
}
