package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/knowledge"
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Answer a question about a project from the knowledge index",
	Long:  "Answers from the project whose title matches the question, else from the closest indexed passages, else by generating fresh documentation. The answer is printed and written to the query output file.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

var (
	queryOut   string
	queryTopK  int
	queryModel string
)

func init() {
	queryCmd.Flags().StringVar(&queryOut, "out", "", "Answer file (default: config index.output)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "Passages used for similar answers")
	queryCmd.Flags().StringVarP(&queryModel, "model", "m", "", "Model name")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if queryOut != "" {
		cfg.Index.Output = queryOut
	}
	if queryTopK > 0 {
		cfg.Index.TopK = queryTopK
	}
	if queryModel != "" {
		cfg.Model = queryModel
	}
	e, err := newEnv(cfg)
	if err != nil {
		return err
	}

	ix, err := knowledge.Open(cfg.Index.Path)
	if err != nil {
		return err //nolint:wrapcheck // open errors name the database
	}
	defer ix.Close() //nolint:errcheck // Close in defer is safe

	client, err := e.factory.RetryingClient(cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	answerer, err := knowledge.NewAnswerer(ix, client, cfg.Index.TopK, cfg.Index.MaxRank)
	if err != nil {
		return err //nolint:wrapcheck // template errors carry context
	}
	answerer.MaxTokens = cfg.MaxTokens

	ans, err := answerer.Answer(ctx, question)
	if err != nil {
		return err //nolint:wrapcheck // answer errors are already wrapped
	}
	if err := knowledge.WriteAnswer(cfg.Index.Output, ans, time.Now()); err != nil {
		return err //nolint:wrapcheck // write errors name the file
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s] %s\n\n%s\n", ans.Mode, question, ans.Text)
	if len(ans.Sources) > 0 {
		fmt.Fprintf(out, "\nSources: %s\n", strings.Join(ans.Sources, ", "))
	}
	fmt.Fprintf(out, "\nSaved to %s\n", cfg.Index.Output)
	e.writeMetrics()
	return nil
}
