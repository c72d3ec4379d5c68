package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/llmerrors"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/templates"
)

// Mode records how an answer was produced.
type Mode string

// Answer modes, in the order they are tried.
const (
	ModeExact     Mode = "exact"
	ModeSimilar   Mode = "similar"
	ModeGenerated Mode = "generated"
)

// Answer is the response to a query.
type Answer struct {
	Query   string
	Mode    Mode
	Text    string
	Sources []string
}

// Answerer answers questions from the index, falling back to the model.
type Answerer struct {
	Index     *Index
	Client    llm.LLMClient
	TopK      int
	MaxRank   float64 // accept similar hits with bm25 rank <= MaxRank; zero accepts any match
	MaxTokens int

	renderer *templates.Renderer
}

// NewAnswerer creates an Answerer over ix using client for completions.
func NewAnswerer(ix *Index, client llm.LLMClient, topK int, maxRank float64) (*Answerer, error) {
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	if topK <= 0 {
		topK = 3
	}
	return &Answerer{
		Index:     ix,
		Client:    client,
		TopK:      topK,
		MaxRank:   maxRank,
		MaxTokens: llm.DefaultMaxTokens,
		renderer:  renderer,
	}, nil
}

// Answer tries, in order: projects whose title contains the query, the
// closest indexed passages, and finally fresh generation.
func (a *Answerer) Answer(ctx context.Context, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is empty")
	}

	docs, err := a.Index.FindTitles(ctx, query, 10)
	if err != nil {
		return nil, err
	}
	if len(docs) > 0 {
		passages := []templates.Passage{{Title: docs[0].Title, Text: docs[0].Documentation}}
		a.Index.logger.Info("exact title match: %s", docs[0].Title)
		return a.complete(ctx, query, ModeExact, templates.AnswerExactTemplate, passages)
	}

	hits, err := a.Index.Search(ctx, query, a.TopK)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 && (a.MaxRank == 0 || hits[0].Rank <= a.MaxRank) {
		passages := make([]templates.Passage, len(hits))
		for i, h := range hits {
			passages[i] = templates.Passage{Title: h.Title, Text: h.Content}
		}
		a.Index.logger.Info("similar project found (best rank %.3f)", hits[0].Rank)
		return a.complete(ctx, query, ModeSimilar, templates.AnswerSimilarTemplate, passages)
	}

	a.Index.logger.Warn("project not found, generating new project info")
	return a.complete(ctx, query, ModeGenerated, templates.AnswerGenerateTemplate, nil)
}

func (a *Answerer) complete(ctx context.Context, query string, mode Mode, name templates.PromptTemplate, passages []templates.Passage) (*Answer, error) {
	prompt, err := a.renderer.Render(name, &templates.TemplateData{Query: query, Passages: passages})
	if err != nil {
		return nil, err //nolint:wrapcheck // renderer errors carry context
	}

	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage(prompt)})
	if a.MaxTokens > 0 {
		req.MaxTokens = a.MaxTokens
	}
	resp, err := a.Client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to answer %q: %w", query, err)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return nil, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "empty answer")
	}

	sources := make([]string, 0, len(passages))
	seen := make(map[string]bool, len(passages))
	for _, p := range passages {
		if !seen[p.Title] {
			seen[p.Title] = true
			sources = append(sources, p.Title)
		}
	}
	return &Answer{Query: query, Mode: mode, Text: text, Sources: sources}, nil
}

// WriteAnswer overwrites path with a framed record of the question and answer.
func WriteAnswer(path string, ans *Answer, now time.Time) error {
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Time: %s\n\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Question:\n%s\n\n", ans.Query)
	b.WriteString("Answer:\n")
	b.WriteString(ans.Text + "\n")
	b.WriteString(rule + "\n")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil { //nolint:gosec // answer text is not secret
		return fmt.Errorf("failed to write answer: %w", err)
	}
	return nil
}

// ReadAnswer returns the answer body of a file written by WriteAnswer, or
// the whole file when it has no frame.
func ReadAnswer(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	text := string(data)
	if _, after, ok := strings.Cut(text, "\nAnswer:\n"); ok {
		text = strings.TrimSuffix(strings.TrimSpace(after), strings.Repeat("=", 60))
	}
	return strings.TrimSpace(text), nil
}
