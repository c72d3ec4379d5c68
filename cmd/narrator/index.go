package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/knowledge"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/store"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the knowledge index from the result store",
	Long:  "Rebuilds the sqlite full-text index from every successful result in the output store. Failed titles are left out.",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

var (
	indexStorePath string
	indexDBPath    string
)

func init() {
	indexCmd.Flags().StringVarP(&indexStorePath, "store", "o", "", "Result store to index (default: config output)")
	indexCmd.Flags().StringVar(&indexDBPath, "db", "", "Index database path (default: config index.path)")

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if indexStorePath != "" {
		cfg.Output = indexStorePath
	}
	if indexDBPath != "" {
		cfg.Index.Path = indexDBPath
	}

	st := store.Open(cfg.Output)
	defer st.Close() //nolint:errcheck // Close in defer is safe
	results, err := st.Load()
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", cfg.Output, err)
	}

	ix, err := knowledge.Open(cfg.Index.Path, knowledge.WithChunking(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap))
	if err != nil {
		return err //nolint:wrapcheck // open errors name the database
	}
	defer ix.Close() //nolint:errcheck // Close in defer is safe

	start := time.Now()
	stats, err := ix.Build(cmd.Context(), results)
	if err != nil {
		return err //nolint:wrapcheck // build errors are already wrapped
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d projects (%d chunks, ~%d tokens) into %s in %s; skipped %d failed\n",
		stats.Documents, stats.Chunks, stats.Tokens, cfg.Index.Path, time.Since(start).Round(time.Millisecond), stats.Skipped)
	return nil
}
