// Package main implements the narrator CLI: project documentation
// generation, knowledge queries and storyboards.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/config"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/logx"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/version"
)

var (
	configPath string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:           "narrator",
	Short:         "Generate project documentation, answers and storyboards with an LLM",
	Long:          "narrator extracts project titles from a source document, documents each one with an LLM into a resumable store, and builds a searchable knowledge index and narrated storyboards from the results.",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if debugMode {
			logx.SetDebug(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFile, "Path to narrator.json")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
