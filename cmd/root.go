package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapvocab",
		Short: "Photo vocabulary learning backend with LLM-powered scene analysis",
		Long: `Snapvocab turns photos into vocabulary-learning material.

Submitted photos are analyzed by a vision LLM, which extracts annotated
words and a descriptive sentence. Scenes and their derived unique-word
index are persisted and sampled into daily review tasks.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}
