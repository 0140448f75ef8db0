// Package export writes learning analytics as parquet files for
// offline analysis (e.g. building contribution heatmaps).
package export

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/snapvocab/snapvocab/internal/models"
)

// LearningRecordRow is one completed (or abandoned) daily task.
type LearningRecordRow struct {
	ID             string  `parquet:"id"`
	Date           string  `parquet:"date"`
	CompletedWords int32   `parquet:"completed_words"`
	TotalWords     int32   `parquet:"total_words"`
	CompletionRate float64 `parquet:"completion_rate"`
}

// WordStatRow summarizes one unique word across scenes.
type WordStatRow struct {
	Word            string `parquet:"word"`
	PhoneticSymbols string `parquet:"phoneticsymbols"`
	Explanation     string `parquet:"explanation"`
	SceneCount      int32  `parquet:"scene_count"`
	Favorite        bool   `parquet:"favorite"`
	LearningStatus  string `parquet:"learning_status"`
}

// WriteLearningRecords writes all completion records to path.
func WriteLearningRecords(path string, records []models.LearningRecord) error {
	rows := make([]LearningRecordRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, LearningRecordRow{
			ID:             r.ID,
			Date:           r.Date.Format(time.DateOnly),
			CompletedWords: int32(r.CompletedWords),
			TotalWords:     int32(r.TotalWords),
			CompletionRate: r.CompletionRate(),
		})
	}
	return writeRows(path, rows)
}

// WriteWordStats writes per-word aggregates to path.
func WriteWordStats(path string, words []models.UniqueWord) error {
	rows := make([]WordStatRow, 0, len(words))
	for _, w := range words {
		rows = append(rows, WordStatRow{
			Word:            w.Word,
			PhoneticSymbols: w.PhoneticSymbols,
			Explanation:     w.Explanation,
			SceneCount:      int32(len(w.SceneIDs)),
			Favorite:        w.Favorite,
			LearningStatus:  string(w.LearningStatus),
		})
	}
	return writeRows(path, rows)
}

func writeRows[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[T](file)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			writer.Close()
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	slog.Info("Wrote parquet export", "path", path, "rows", len(rows))
	return nil
}
