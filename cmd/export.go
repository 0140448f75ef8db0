package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/snapvocab/snapvocab/internal/config"
	"github.com/snapvocab/snapvocab/internal/export"
	"github.com/snapvocab/snapvocab/internal/learning"
	"github.com/snapvocab/snapvocab/internal/store"
	"github.com/snapvocab/snapvocab/internal/words"
)

func newExportCmd() *cobra.Command {
	var configPath string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export learning records and word statistics as parquet",
		Long: `Reads the persisted scenes and learning history and writes two
parquet files to the output directory:

  learning_records.parquet  one row per recorded daily task
  word_stats.parquet        one row per unique word across all scenes`,
		Example: `  # Export to ./exports
  snapvocab export --output exports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}

			blobs, err := store.OpenBlobStore(filepath.Join(fileCfg.DataDir, "snapvocab.db"))
			if err != nil {
				return err
			}
			defer blobs.Close()

			scenes := store.NewSceneStore(blobs)
			scenes.Load()
			index := words.NewIndex(blobs)
			learningManager := learning.NewManager(blobs, index)
			index.SetStatusSource(learningManager.WordStatus)
			index.Rebuild(scenes.Scenes())

			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			records := learningManager.Records()
			if err := export.WriteLearningRecords(filepath.Join(outputDir, "learning_records.parquet"), records); err != nil {
				return err
			}
			stats := index.All()
			if err := export.WriteWordStats(filepath.Join(outputDir, "word_stats.parquet"), stats); err != nil {
				return err
			}

			slog.Info("Export complete", "records", len(records), "words", len(stats), "dir", outputDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "snapvocab.yml", "Path to YAML config file")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "exports", "Directory to write parquet files into")

	return cmd
}
