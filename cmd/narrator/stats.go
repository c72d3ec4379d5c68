package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show LLM usage scraped by Prometheus",
	Long:  "Queries a Prometheus server that scrapes narrator metrics (for example through the node_exporter textfile collector) for token, request and title totals.",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var (
	statsPrometheusURL string
	statsByModel       bool
)

func init() {
	statsCmd.Flags().StringVar(&statsPrometheusURL, "prometheus", "http://localhost:9090", "Prometheus server URL")
	statsCmd.Flags().BoolVar(&statsByModel, "by-model", false, "Break totals down by model")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	qs, err := metrics.NewQueryService(statsPrometheusURL)
	if err != nil {
		return err //nolint:wrapcheck // client errors name the URL
	}
	out := cmd.OutOrStdout()

	if !statsByModel {
		usage, err := qs.GetUsage(cmd.Context())
		if err != nil {
			return err //nolint:wrapcheck // query errors are already wrapped
		}
		printUsage(out, usage)
		return nil
	}

	byModel, err := qs.GetUsageByModel(cmd.Context())
	if err != nil {
		return err //nolint:wrapcheck // query errors are already wrapped
	}
	models := make([]string, 0, len(byModel))
	for m := range byModel {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		printUsage(out, byModel[m])
	}
	return nil
}

func printUsage(w io.Writer, u *metrics.Usage) {
	if u.Model != "" {
		fmt.Fprintf(w, "%s\n", u.Model)
	}
	fmt.Fprintf(w, "  requests:           %d\n", u.Requests)
	fmt.Fprintf(w, "  prompt tokens:      %d\n", u.PromptTokens)
	fmt.Fprintf(w, "  completion tokens:  %d\n", u.CompletionTokens)
	fmt.Fprintf(w, "  total tokens:       %d\n", u.TotalTokens)
	statuses := make([]string, 0, len(u.Titles))
	for s := range u.Titles {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(w, "  titles %-12s %d\n", s+":", u.Titles[s])
	}
}
