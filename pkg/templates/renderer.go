// Package templates renders the prompts sent to the language model.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed *.tpl.md
var templateFS embed.FS

// Sections are the headings every generated document uses, in order.
//
//nolint:gochecknoglobals // fixed document outline
var Sections = []string{
	"Project Overview",
	"Objective",
	"Domain",
	"Software Requirements",
	"Hardware Requirements",
	"Workflow",
	"System Architecture",
	"Input",
	"Output",
	"Implementation Steps",
	"Benefits",
	"Future Scope",
}

// PromptTemplate names an embedded template.
type PromptTemplate string

const (
	// DocumentationTemplate asks for documentation of one project title.
	DocumentationTemplate PromptTemplate = "documentation.tpl.md"
	// AnswerExactTemplate restates documentation of an exactly matched project.
	AnswerExactTemplate PromptTemplate = "answer_exact.tpl.md"
	// AnswerSimilarTemplate answers from the closest indexed passages.
	AnswerSimilarTemplate PromptTemplate = "answer_similar.tpl.md"
	// AnswerGenerateTemplate describes a project that is not indexed.
	AnswerGenerateTemplate PromptTemplate = "answer_generate.tpl.md"
	// StoryboardTemplate asks for a fixed number of scenes as JSON.
	StoryboardTemplate PromptTemplate = "storyboard.tpl.md"
)

// Passage is one titled piece of context.
type Passage struct {
	Title string
	Text  string
}

// TemplateData holds every value a prompt template may reference.
type TemplateData struct {
	Title     string
	Query     string
	Content   string
	Audience  string
	Tone      string
	Passages  []Passage
	Scenes    int
	WordLimit int
}

// Renderer holds the parsed prompt templates.
type Renderer struct {
	templates map[PromptTemplate]*template.Template
}

// NewRenderer parses all embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[PromptTemplate]*template.Template),
	}

	names := []PromptTemplate{
		DocumentationTemplate,
		AnswerExactTemplate,
		AnswerSimilarTemplate,
		AnswerGenerateTemplate,
		StoryboardTemplate,
	}
	for _, name := range names {
		content, err := templateFS.ReadFile(string(name))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}

		tmpl, err := template.New(string(name)).Funcs(template.FuncMap{
			"sections": outline,
		}).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// MustRenderer is NewRenderer for package-level initialisation; the
// templates are embedded so a parse failure is a build defect.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the named template with data.
func (r *Renderer) Render(name PromptTemplate, data *TemplateData) (string, error) {
	tmpl, exists := r.templates[name]
	if !exists {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func outline() string {
	var b strings.Builder
	for i, s := range Sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s)
		b.WriteByte(':')
	}
	return b.String()
}
