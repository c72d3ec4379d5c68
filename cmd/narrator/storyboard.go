package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/config"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/knowledge"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/logx"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/store"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/storyboard"
)

var storyboardCmd = &cobra.Command{
	Use:   "storyboard",
	Short: "Write a narrated storyboard for a project",
	Long:  "Asks the model for a fixed number of scenes and writes storyboard.txt, narration.txt, visual_prompts.txt and scenes.json. The brief is a file, a stored project title, or by default the last query answer.",
	Args:  cobra.NoArgs,
	RunE:  runStoryboard,
}

var (
	storyBrief  string
	storyTitle  string
	storyScenes int
	storyOut    string
	storyModel  string
)

func init() {
	storyboardCmd.Flags().StringVarP(&storyBrief, "brief", "b", "", "Brief file with optional YAML front matter")
	storyboardCmd.Flags().StringVarP(&storyTitle, "title", "t", "", "Use the stored documentation of this project")
	storyboardCmd.Flags().IntVarP(&storyScenes, "scenes", "n", 0, "Number of scenes (default: config storyboard.scenes)")
	storyboardCmd.Flags().StringVarP(&storyOut, "out", "o", "", "Output directory (default: config storyboard.output_dir)")
	storyboardCmd.Flags().StringVarP(&storyModel, "model", "m", "", "Model name")
	storyboardCmd.MarkFlagsMutuallyExclusive("brief", "title")

	rootCmd.AddCommand(storyboardCmd)
}

func runStoryboard(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if storyScenes > 0 {
		cfg.Storyboard.Scenes = storyScenes
	}
	if storyOut != "" {
		cfg.Storyboard.OutputDir = storyOut
	}
	if storyModel != "" {
		cfg.Model = storyModel
	}
	e, err := newEnv(cfg)
	if err != nil {
		return err
	}

	brief, err := resolveBrief(cfg, storyBrief, storyTitle)
	if err != nil {
		return err
	}

	client, err := e.factory.RetryingClient(cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	gen, err := storyboard.NewGenerator(client, cfg.Storyboard.Scenes, cfg.Storyboard.MaxTokens)
	if err != nil {
		return err //nolint:wrapcheck // template errors carry context
	}

	scenes, raw, err := gen.Generate(cmd.Context(), brief)
	var parseErr *storyboard.ParseError
	if errors.As(err, &parseErr) {
		if writeErr := storyboard.WriteRaw(cfg.Storyboard.OutputDir, raw); writeErr != nil {
			logx.Warnf("failed to save raw storyboard: %v", writeErr)
		}
		return fmt.Errorf("%w (raw response saved to %s)", err, cfg.Storyboard.OutputDir)
	}
	if err != nil {
		return err //nolint:wrapcheck // generator errors are already wrapped
	}

	if err := storyboard.Write(cfg.Storyboard.OutputDir, scenes); err != nil {
		return err //nolint:wrapcheck // write errors name the file
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d scenes to %s\n", len(scenes), cfg.Storyboard.OutputDir)
	e.writeMetrics()
	return nil
}

// resolveBrief picks the storyboard input: a brief file, a stored title, or
// the last saved query answer.
func resolveBrief(cfg *config.Config, briefPath, title string) (*storyboard.Brief, error) {
	switch {
	case briefPath != "":
		data, err := os.ReadFile(briefPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read brief: %w", err)
		}
		return storyboard.ParseBrief(string(data)) //nolint:wrapcheck // parse errors are descriptive

	case title != "":
		st := store.Open(cfg.Output)
		defer st.Close() //nolint:errcheck // Close in defer is safe
		results, err := st.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", cfg.Output, err)
		}
		r, ok := findResult(results, title)
		if !ok {
			return nil, fmt.Errorf("no documentation for %q in %s", title, cfg.Output)
		}
		if r.Failed() {
			return nil, fmt.Errorf("documentation for %q failed; rerun generate first", r.Title)
		}
		return &storyboard.Brief{Title: r.Title, Content: r.Documentation}, nil

	default:
		answer, err := knowledge.ReadAnswer(cfg.Index.Output)
		if err != nil {
			return nil, fmt.Errorf("no brief given and no saved answer: %w", err)
		}
		if answer == "" {
			return nil, storyboard.ErrEmptyBrief
		}
		return &storyboard.Brief{Content: answer}, nil
	}
}

// findResult matches title exactly, then ignoring case.
func findResult(results []store.DocumentationResult, title string) (store.DocumentationResult, bool) {
	title = strings.TrimSpace(title)
	for _, r := range results {
		if r.Title == title {
			return r, true
		}
	}
	for _, r := range results {
		if strings.EqualFold(r.Title, title) {
			return r, true
		}
	}
	return store.DocumentationResult{}, false
}
