package storyboard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var frontmatterDelimiter = regexp.MustCompile(`^---\s*$`)

// ErrEmptyBrief is returned when a brief has no project content.
var ErrEmptyBrief = errors.New("brief has no project content")

// Brief is the project material a storyboard is written from. The
// optional YAML front matter sets presentation hints.
type Brief struct {
	Title    string `yaml:"title"`
	Audience string `yaml:"audience"`
	Tone     string `yaml:"tone"`
	Scenes   int    `yaml:"scenes" validate:"omitempty,gte=1,lte=100"`

	Content string `yaml:"-" validate:"required"`
}

// ParseBrief reads a brief. Front matter is optional; when present it must
// be delimited by "---" lines at the top of the text.
func ParseBrief(text string) (*Brief, error) {
	frontmatter, body, err := splitFrontmatter(text)
	if err != nil {
		return nil, err
	}

	brief := &Brief{}
	if frontmatter != "" {
		if err := yaml.Unmarshal([]byte(frontmatter), brief); err != nil {
			return nil, fmt.Errorf("failed to parse brief front matter: %w", err)
		}
	}
	brief.Content = strings.TrimSpace(body)
	if brief.Content == "" {
		return nil, ErrEmptyBrief
	}
	if err := validator.New().Struct(brief); err != nil {
		return nil, fmt.Errorf("invalid brief: %w", err)
	}
	return brief, nil
}

// splitFrontmatter separates leading YAML front matter from the body.
// Text without an opening delimiter is all body.
//
//nolint:gocritic // Separate return values are clearer than a struct for this simple case.
func splitFrontmatter(text string) (frontmatter string, body string, err error) {
	lines := strings.Split(strings.TrimLeft(text, "\ufeff"), "\n")
	if len(lines) == 0 || !frontmatterDelimiter.MatchString(strings.TrimSpace(lines[0])) {
		return "", text, nil
	}

	for i := 1; i < len(lines); i++ {
		if frontmatterDelimiter.MatchString(strings.TrimSpace(lines[i])) {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), nil
		}
	}
	return "", "", errors.New("missing front matter closing delimiter (---)")
}
