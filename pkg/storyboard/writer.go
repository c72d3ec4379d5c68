package storyboard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Output file names.
const (
	StoryboardFile = "storyboard.txt"
	NarrationFile  = "narration.txt"
	VisualFile     = "visual_prompts.txt"
	ScenesFile     = "scenes.json"
)

// Write replaces the four storyboard files in dir.
func Write(dir string, scenes []Scene) error {
	var board, narration, visual strings.Builder
	rule := strings.Repeat("=", 80)
	for _, s := range scenes {
		fmt.Fprintf(&board, "Scene %d: %s\n\n", s.Number, s.Title)
		fmt.Fprintf(&board, "Narration:\n%s\n\n", s.Narration)
		fmt.Fprintf(&board, "Visual:\n%s\n\n", s.Visual)
		board.WriteString(rule + "\n\n")

		fmt.Fprintf(&narration, "Scene %d: %s\n\n", s.Number, s.Narration)
		fmt.Fprintf(&visual, "Scene %d:\n%s\n\n", s.Number, s.Visual)
	}

	data, err := json.MarshalIndent(scenes, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenes: %w", err)
	}

	return writeAll(dir, map[string]string{
		StoryboardFile: board.String(),
		NarrationFile:  narration.String(),
		VisualFile:     visual.String(),
		ScenesFile:     string(data) + "\n",
	})
}

// WriteRaw keeps an unparsable response in storyboard.txt and empties the
// other outputs so no stale scenes survive.
func WriteRaw(dir, raw string) error {
	return writeAll(dir, map[string]string{
		StoryboardFile: raw,
		NarrationFile:  "",
		VisualFile:     "",
		ScenesFile:     "",
	})
}

func writeAll(dir string, files map[string]string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil { //nolint:gosec // outputs are not secret
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
