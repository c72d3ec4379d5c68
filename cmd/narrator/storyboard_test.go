package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/config"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/knowledge"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/store"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/storyboard"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output = filepath.Join(dir, "project_knowledge.json")
	cfg.Index.Output = filepath.Join(dir, "rag_output.txt")
	return cfg
}

func seedStore(t *testing.T, path string, results ...store.DocumentationResult) {
	t.Helper()
	st := store.Open(path)
	_, err := st.Load()
	require.NoError(t, err)
	for _, r := range results {
		require.NoError(t, st.AppendAndFlush(r))
	}
	require.NoError(t, st.Close())
}

func TestResolveBriefFromFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "brief.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Drone Mapping\nscenes: 4\n---\nDrones map fields.\n"), 0o600))

	brief, err := resolveBrief(cfg, path, "")
	require.NoError(t, err)
	assert.Equal(t, "Drone Mapping", brief.Title)
	assert.Equal(t, 4, brief.Scenes)
	assert.Equal(t, "Drones map fields.", brief.Content)
}

func TestResolveBriefFromTitle(t *testing.T) {
	cfg := testConfig(t)
	seedStore(t, cfg.Output,
		store.Success("Smart Irrigation System", "Project Overview: sensors."),
		store.Failure("Traffic Prediction"),
	)

	brief, err := resolveBrief(cfg, "", "smart irrigation system")
	require.NoError(t, err)
	assert.Equal(t, "Smart Irrigation System", brief.Title)
	assert.Equal(t, "Project Overview: sensors.", brief.Content)

	_, err = resolveBrief(cfg, "", "Traffic Prediction")
	assert.ErrorContains(t, err, "failed")

	_, err = resolveBrief(cfg, "", "Unknown")
	assert.ErrorContains(t, err, "no documentation")
}

func TestResolveBriefFromSavedAnswer(t *testing.T) {
	cfg := testConfig(t)
	ans := &knowledge.Answer{Query: "irrigation", Mode: knowledge.ModeExact, Text: "Project Overview: water."}
	require.NoError(t, knowledge.WriteAnswer(cfg.Index.Output, ans, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	brief, err := resolveBrief(cfg, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Project Overview: water.", brief.Content)
}

func TestResolveBriefWithoutInput(t *testing.T) {
	cfg := testConfig(t)
	_, err := resolveBrief(cfg, "", "")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(cfg.Index.Output, []byte("  \n"), 0o600))
	_, err = resolveBrief(cfg, "", "")
	assert.ErrorIs(t, err, storyboard.ErrEmptyBrief)
}
