package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/config"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/docgen"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/eventlog"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/middleware/resilience/retry"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/logx"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/store"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/titles"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Document every project title in the source",
	Long:  "Extracts project titles from the source document and generates documentation for each title not already in the output store. Results are flushed one at a time, so an interrupted run resumes where it stopped.",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

// generateFlags are the generate overrides of config values.
type generateFlags struct {
	source          string
	output          string
	model           string
	concurrency     int
	timeout         time.Duration
	attempts        int
	retryDelay      time.Duration
	retryClassified bool
	events          string
}

var genFlags generateFlags

func init() {
	genFlags.register(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

func (f *generateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "Source document (PDF, HTML or text)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Result store (.json snapshot or .jsonl log)")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Model name, optionally prefixed with provider/")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "c", 0, "Maximum titles generated at once")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Timeout for a single LLM call")
	cmd.Flags().IntVar(&f.attempts, "attempts", 0, "Attempts per title before it is recorded as failed")
	cmd.Flags().DurationVar(&f.retryDelay, "retry-delay", 0, "Pause between attempts")
	cmd.Flags().BoolVar(&f.retryClassified, "retry-classified", false, "Only retry errors the provider marks as transient")
	cmd.Flags().StringVar(&f.events, "events", "", "Title state event log directory (default: .narrator/logs next to the config; \"-\" disables)")
}

// apply copies the flags the user set onto cfg.
func (f *generateFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("source") {
		cfg.Source = f.source
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("model") {
		cfg.Model = f.model
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
		if cfg.RateLimit.MaxConcurrency < f.concurrency {
			cfg.RateLimit.MaxConcurrency = f.concurrency
		}
	}
	if changed("timeout") {
		cfg.Timeout.Duration = f.timeout
	}
	if changed("attempts") {
		cfg.Retry.MaxAttempts = f.attempts
	}
	if changed("retry-delay") {
		cfg.Retry.InitialDelay.Duration = f.retryDelay
		cfg.Retry.MaxDelay.Duration = f.retryDelay
	}
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	genFlags.apply(cmd, cfg)
	e, err := newEnv(cfg)
	if err != nil {
		return err
	}

	list, err := titles.FromFile(ctx, cfg.Source)
	if err != nil {
		return err //nolint:wrapcheck // ExtractionError names the source
	}
	logx.Infof("found %d project titles in %s", len(list), cfg.Source)

	client, err := e.factory.Client(cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	docs, err := docgen.NewLLMClient(client, docgen.WithMaxTokens(cfg.MaxTokens))
	if err != nil {
		return err //nolint:wrapcheck // template errors carry context
	}

	policy := e.factory.RetryPolicy()
	if !genFlags.retryClassified {
		policy.Classifier = retry.Always
	}

	st := store.Open(cfg.Output)
	defer st.Close() //nolint:errcheck // Close in defer is safe

	observe := func(title string, state docgen.State) {
		logx.Debug(ctx, "docgen", "%s: %s", state, title)
	}
	if genFlags.events != "-" {
		dir := genFlags.events
		if dir == "" {
			dir = filepath.Join(projectDir(), config.SecretsDir, "logs")
		}
		events, err := eventlog.NewWriter(dir)
		if err != nil {
			return err //nolint:wrapcheck // writer errors name the directory
		}
		defer events.Close() //nolint:errcheck // Close in defer is safe
		observe = func(title string, state docgen.State) {
			logx.Debug(ctx, "docgen", "%s: %s", state, title)
			if err := events.Record(eventlog.Event{Title: title, State: state.String()}); err != nil {
				logx.Warnf("failed to record event for %q: %v", title, err)
			}
		}
	}

	coord := docgen.NewCoordinator(docs, st,
		docgen.WithRetryPolicy(policy),
		docgen.WithCallTimeout(cfg.Timeout.Duration),
		docgen.WithTemperature(cfg.Temperature),
		docgen.WithRecorder(e.recorder),
		docgen.WithObserver(observe),
	)

	report, runErr := coord.Run(ctx, list, cfg.Concurrency)
	if report != nil {
		printSummary(cmd.OutOrStdout(), report, st.Path())
	}
	e.writeMetrics()
	return runErr //nolint:wrapcheck // coordinator errors are already wrapped
}

// printSummary reports what the run did.
func printSummary(w io.Writer, r *docgen.Report, path string) {
	fmt.Fprintf(w, "Run %s finished in %s\n", r.RunID, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  titles:            %d\n", r.Total)
	fmt.Fprintf(w, "  already done:      %d\n", r.AlreadyDone)
	fmt.Fprintf(w, "  newly completed:   %d\n", r.Completed)
	fmt.Fprintf(w, "  failed:            %d\n", r.Failed)
	if r.Skipped > 0 {
		fmt.Fprintf(w, "  pending (resume):  %d\n", r.Skipped)
	}
	fmt.Fprintf(w, "Results saved to %s\n", path)
}
