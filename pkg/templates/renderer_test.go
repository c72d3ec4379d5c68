package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDocumentation(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(DocumentationTemplate, &TemplateData{Title: "Smart Irrigation System", WordLimit: 300})
	require.NoError(t, err)

	assert.Contains(t, out, "Project Title: Smart Irrigation System")
	assert.Contains(t, out, "Keep response under 300 words")
	assert.Contains(t, out, "- No diagrams")
	for _, s := range Sections {
		assert.Contains(t, out, s+":")
	}
	assert.Less(t, strings.Index(out, "Project Overview:"), strings.Index(out, "Future Scope:"))
	assert.NotContains(t, out, "{{")
}

func TestRenderAnswerTemplates(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	data := &TemplateData{
		Query: "traffic",
		Passages: []Passage{
			{Title: "Traffic Prediction", Text: "Predicts congestion."},
			{Title: "Smart Parking", Text: "Finds free spots."},
		},
	}

	exact, err := r.Render(AnswerExactTemplate, data)
	require.NoError(t, err)
	assert.Contains(t, exact, "Project Title: Traffic Prediction\nPredicts congestion.")
	assert.Contains(t, exact, `write "Not mentioned"`)

	similar, err := r.Render(AnswerSimilarTemplate, data)
	require.NoError(t, err)
	assert.Contains(t, similar, "Project Title: Smart Parking\nFinds free spots.")

	generated, err := r.Render(AnswerGenerateTemplate, data)
	require.NoError(t, err)
	assert.Contains(t, generated, "traffic")
	assert.Contains(t, generated, "Project Title:\nProject Overview:")
}

func TestRenderStoryboard(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(StoryboardTemplate, &TemplateData{Scenes: 15, Content: "Project Overview: irrigation", Tone: "hopeful"})
	require.NoError(t, err)
	assert.Contains(t, out, "Generate EXACTLY 15 scenes")
	assert.Contains(t, out, "Exactly 15 items")
	assert.Contains(t, out, "Tone: hopeful")
	assert.NotContains(t, out, "Audience:")
	assert.True(t, strings.HasSuffix(out, "Project Content:\nProject Overview: irrigation\n"))
}

func TestRenderUnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	_, err = r.Render("missing.tpl.md", &TemplateData{})
	require.Error(t, err)
}
