package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/snapvocab/snapvocab/internal/models"
)

func TestWriteLearningRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.parquet")
	records := []models.LearningRecord{
		{ID: "r1", Date: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), CompletedWords: 7, TotalWords: 10},
		{ID: "r2", Date: time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC), CompletedWords: 10, TotalWords: 10},
	}

	if err := WriteLearningRecords(path, records); err != nil {
		t.Fatalf("WriteLearningRecords failed: %v", err)
	}

	rows, err := parquet.ReadFile[LearningRecordRow](path)
	if err != nil {
		t.Fatalf("failed to read parquet file back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("read %d rows, want 2", len(rows))
	}
	if rows[0].Date != "2026-03-14" {
		t.Errorf("date = %s, want 2026-03-14", rows[0].Date)
	}
	if rows[0].CompletionRate != 0.7 {
		t.Errorf("completion rate = %v, want 0.7", rows[0].CompletionRate)
	}
}

func TestWriteWordStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.parquet")
	stats := []models.UniqueWord{
		{
			Word:            "stool",
			PhoneticSymbols: "/stuːl/",
			Explanation:     "凳子",
			SceneIDs:        []string{"a", "b"},
			Favorite:        true,
			LearningStatus:  models.WordMastered,
		},
	}

	if err := WriteWordStats(path, stats); err != nil {
		t.Fatalf("WriteWordStats failed: %v", err)
	}

	rows, err := parquet.ReadFile[WordStatRow](path)
	if err != nil {
		t.Fatalf("failed to read parquet file back: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("read %d rows, want 1", len(rows))
	}
	if rows[0].SceneCount != 2 || !rows[0].Favorite || rows[0].LearningStatus != "mastered" {
		t.Errorf("row = %+v, want scene_count=2 favorite=true status=mastered", rows[0])
	}
}

func TestWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	if err := WriteLearningRecords(path, nil); err != nil {
		t.Fatalf("WriteLearningRecords failed on empty input: %v", err)
	}
	rows, err := parquet.ReadFile[LearningRecordRow](path)
	if err != nil {
		t.Fatalf("failed to read parquet file back: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("read %d rows from empty export, want 0", len(rows))
	}
}
