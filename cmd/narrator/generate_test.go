package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/config"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/docgen"
)

func TestGenerateFlagsApplyOnlyChanged(t *testing.T) {
	var f generateFlags
	cmd := &cobra.Command{Use: "generate"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--source", "projects.txt",
		"--concurrency", "6",
		"--retry-delay", "0s",
		"--attempts", "5",
	}))

	cfg := config.Default()
	f.apply(cmd, cfg)

	assert.Equal(t, "projects.txt", cfg.Source)
	assert.Equal(t, 6, cfg.Concurrency)
	assert.Equal(t, 6, cfg.RateLimit.MaxConcurrency)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.Retry.InitialDelay.Duration)
	assert.Equal(t, config.DefaultOutput, cfg.Output)
	assert.Equal(t, config.DefaultModel, cfg.Model)
	assert.Equal(t, config.DefaultTimeout, cfg.Timeout.Duration)
}

func TestGenerateZeroFlagsSurviveEnv(t *testing.T) {
	var f generateFlags
	cmd := &cobra.Command{Use: "generate"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--retry-delay", "0s", "--timeout", "0s"}))

	cfg := config.Default()
	f.apply(cmd, cfg)
	e, err := newEnv(cfg)
	require.NoError(t, err)

	assert.Zero(t, e.cfg.Timeout.Duration)
	assert.Zero(t, e.cfg.Retry.InitialDelay.Duration)
	assert.Zero(t, e.factory.RetryPolicy().Backoff(2))
	assert.Zero(t, e.factory.RetryPolicy().Backoff(3))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &docgen.Report{
		RunID:       "run-1",
		Total:       5,
		AlreadyDone: 2,
		Completed:   2,
		Failed:      1,
		Duration:    1500 * time.Millisecond,
	}, "project_knowledge.json")

	out := buf.String()
	assert.Contains(t, out, "Run run-1 finished in 1.5s")
	assert.Contains(t, out, "already done:      2")
	assert.Contains(t, out, "newly completed:   2")
	assert.Contains(t, out, "failed:            1")
	assert.NotContains(t, out, "pending")
	assert.Contains(t, out, "Results saved to project_knowledge.json")
}

func TestPrintSummaryShowsPending(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &docgen.Report{Total: 3, Skipped: 3}, "out.jsonl")
	assert.Contains(t, buf.String(), "pending (resume):  3")
}
