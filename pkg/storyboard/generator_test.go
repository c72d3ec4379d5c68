package storyboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
)

type scriptedClient struct {
	reply   string
	err     error
	lastReq llm.CompletionRequest
}

func (c *scriptedClient) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	c.lastReq = req
	if c.err != nil {
		return llm.CompletionResponse{}, c.err
	}
	return llm.CompletionResponse{Content: c.reply}, nil
}

func (c *scriptedClient) GetModelName() string {
	return "scripted"
}

func sceneJSON(n int) string {
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, fmt.Sprintf(
			`{"scene_number": %d, "scene_title": "Part %d", "narration_prompt": "Say %d", "visual_prompt": "Show %d"}`,
			i, i, i, i))
	}
	return "[" + strings.Join(parts, ",\n") + "]"
}

func TestParseScenes(t *testing.T) {
	raw := "Here is your storyboard:\n" + sceneJSON(2) + "\nEnjoy!"
	scenes, err := ParseScenes(raw)
	require.NoError(t, err)
	require.Len(t, scenes, 2)
	assert.Equal(t, Scene{Number: 2, Title: "Part 2", Narration: "Say 2", Visual: "Show 2"}, scenes[1])
}

func TestParseScenesErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no array", "I cannot help with that."},
		{"malformed json", `[{"scene_number": 1, "scene_title": }]`},
		{"missing field", `[{"scene_number": 1, "scene_title": "A", "narration_prompt": "B"}]`},
		{"wrong type", `[{"scene_number": "one", "scene_title": "A", "narration_prompt": "B", "visual_prompt": "C"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenes(tt.raw)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.raw, perr.Raw)
		})
	}
}

func TestGenerate(t *testing.T) {
	client := &scriptedClient{reply: sceneJSON(3)}
	gen, err := NewGenerator(client, 3, 0)
	require.NoError(t, err)

	scenes, raw, err := gen.Generate(context.Background(), &Brief{Title: "Irrigation", Content: "Sensors water crops."})
	require.NoError(t, err)
	assert.Len(t, scenes, 3)
	assert.Equal(t, sceneJSON(3), raw)

	prompt := client.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "EXACTLY 3 scenes")
	assert.Contains(t, prompt, "Sensors water crops.")
	assert.Equal(t, float32(llm.TemperatureCreative), client.lastReq.Temperature)
	assert.Equal(t, 4096, client.lastReq.MaxTokens)
}

func TestGenerateBriefOverridesSceneCount(t *testing.T) {
	client := &scriptedClient{reply: sceneJSON(2)}
	gen, err := NewGenerator(client, 15, 0)
	require.NoError(t, err)

	scenes, _, err := gen.Generate(context.Background(), &Brief{Scenes: 2, Content: "x"})
	require.NoError(t, err)
	assert.Len(t, scenes, 2)
	assert.Contains(t, client.lastReq.Messages[0].Content, "EXACTLY 2 scenes")
}

func TestGenerateCountMismatchIsNotFatal(t *testing.T) {
	gen, err := NewGenerator(&scriptedClient{reply: sceneJSON(4)}, 15, 0)
	require.NoError(t, err)

	scenes, _, err := gen.Generate(context.Background(), &Brief{Content: "x"})
	require.NoError(t, err)
	assert.Len(t, scenes, 4)
}

func TestGenerateParseFailureReturnsRaw(t *testing.T) {
	gen, err := NewGenerator(&scriptedClient{reply: "  Scene one: a field at dawn  "}, 15, 0)
	require.NoError(t, err)

	scenes, raw, err := gen.Generate(context.Background(), &Brief{Content: "x"})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Nil(t, scenes)
	assert.Equal(t, "Scene one: a field at dawn", raw)
}

func TestGenerateClientError(t *testing.T) {
	boom := errors.New("connection refused")
	gen, err := NewGenerator(&scriptedClient{err: boom}, 15, 0)
	require.NoError(t, err)

	_, raw, err := gen.Generate(context.Background(), &Brief{Content: "x"})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, raw)
}
