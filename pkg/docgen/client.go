// Package docgen generates per-title project documentation and drives the
// resumable, bounded-concurrency generation run.
package docgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/llmerrors"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/templates"
)

// DefaultWordLimit caps the length requested from the model.
const DefaultWordLimit = 300

// GenerateOptions tunes a single documentation request.
type GenerateOptions struct {
	Temperature float32
}

// DocumentationClient produces documentation text for a project title.
type DocumentationClient interface {
	Generate(ctx context.Context, title string, opts GenerateOptions) (string, error)
}

// LLMClient generates documentation by prompting a language model.
type LLMClient struct {
	client    llm.LLMClient
	renderer  *templates.Renderer
	maxTokens int
	wordLimit int
}

// ClientOption configures an LLMClient.
type ClientOption func(*LLMClient)

// WithMaxTokens bounds the completion length.
func WithMaxTokens(n int) ClientOption {
	return func(c *LLMClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithWordLimit changes the word limit stated in the prompt.
func WithWordLimit(n int) ClientOption {
	return func(c *LLMClient) {
		if n > 0 {
			c.wordLimit = n
		}
	}
}

// NewLLMClient wraps client as a DocumentationClient.
func NewLLMClient(client llm.LLMClient, opts ...ClientOption) (*LLMClient, error) {
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	c := &LLMClient{
		client:    client,
		renderer:  renderer,
		maxTokens: llm.DefaultMaxTokens,
		wordLimit: DefaultWordLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Prompt renders the documentation prompt for title.
func (c *LLMClient) Prompt(title string) (string, error) {
	return c.renderer.Render(templates.DocumentationTemplate, &templates.TemplateData{ //nolint:wrapcheck // renderer errors carry context
		Title:     title,
		WordLimit: c.wordLimit,
	})
}

// Generate implements DocumentationClient.
func (c *LLMClient) Generate(ctx context.Context, title string, opts GenerateOptions) (string, error) {
	prompt, err := c.Prompt(title)
	if err != nil {
		return "", err
	}

	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage(prompt)})
	req.MaxTokens = c.maxTokens
	req.Temperature = opts.Temperature

	resp, err := c.client.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate %q: %w", title, err)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, fmt.Sprintf("empty documentation for %q", title))
	}
	return text, nil
}
