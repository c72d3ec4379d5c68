// Package storyboard turns project documentation into a fixed number of
// narrated scenes and writes the hand-off files for speech and image tools.
package storyboard

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/logx"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/templates"
)

// DefaultScenes is the scene count requested when none is configured.
const DefaultScenes = 15

//go:embed scenes.schema.json
var sceneSchema string

// arrayPattern finds the outermost JSON array of objects in a response.
var arrayPattern = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

// Scene is one storyboard frame.
type Scene struct {
	Number    int    `json:"scene_number"`
	Title     string `json:"scene_title"`
	Narration string `json:"narration_prompt"`
	Visual    string `json:"visual_prompt"`
}

// ParseError reports a model response that did not contain valid scenes.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse storyboard: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Generator asks a model for a storyboard.
type Generator struct {
	Client    llm.LLMClient
	Scenes    int
	MaxTokens int

	renderer *templates.Renderer
	logger   *logx.Logger
}

// NewGenerator creates a generator for the given scene count.
func NewGenerator(client llm.LLMClient, scenes, maxTokens int) (*Generator, error) {
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	if scenes <= 0 {
		scenes = DefaultScenes
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Generator{
		Client:    client,
		Scenes:    scenes,
		MaxTokens: maxTokens,
		renderer:  renderer,
		logger:    logx.NewLogger("storyboard"),
	}, nil
}

// Generate requests the scenes for brief. The raw response is returned
// with any *ParseError so callers can keep it.
func (g *Generator) Generate(ctx context.Context, brief *Brief) ([]Scene, string, error) {
	want := g.Scenes
	if brief.Scenes > 0 {
		want = brief.Scenes
	}

	prompt, err := g.renderer.Render(templates.StoryboardTemplate, &templates.TemplateData{
		Title:    brief.Title,
		Audience: brief.Audience,
		Tone:     brief.Tone,
		Content:  brief.Content,
		Scenes:   want,
	})
	if err != nil {
		return nil, "", err //nolint:wrapcheck // renderer errors carry context
	}

	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage(prompt)})
	req.MaxTokens = g.MaxTokens
	req.Temperature = llm.TemperatureCreative

	g.logger.Info("generating %d-scene storyboard with %s", want, g.Client.GetModelName())
	resp, err := g.Client.Complete(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("storyboard request failed: %w", err)
	}
	raw := strings.TrimSpace(resp.Content)

	scenes, err := ParseScenes(raw)
	if err != nil {
		return nil, raw, err
	}
	if len(scenes) != want {
		g.logger.Warn("model returned %d scenes instead of %d", len(scenes), want)
	}
	return scenes, raw, nil
}

// ParseScenes extracts, validates and decodes the scene array in raw.
func ParseScenes(raw string) ([]Scene, error) {
	payload := arrayPattern.FindString(raw)
	if payload == "" {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("no JSON array found")}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(sceneSchema),
		gojsonschema.NewStringLoader(payload),
	)
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("schema violations: %s", strings.Join(problems, "; "))}
	}

	var scenes []Scene
	if err := json.Unmarshal([]byte(payload), &scenes); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return scenes, nil
}
