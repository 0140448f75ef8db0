package models

import (
	"strconv"
	"strings"
	"time"
)

// SceneStatus tracks whether a scene's analysis has finished.
type SceneStatus string

const (
	SceneAnalyzing SceneStatus = "analyzing"
	SceneCompleted SceneStatus = "completed"
)

// TaskStatus is the lifecycle of an image analysis task.
type TaskStatus string

const (
	TaskWaiting    TaskStatus = "waiting"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Point is a normalized image coordinate, both axes in [0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp returns the point with both coordinates limited to [0,1].
func (p Point) Clamp() Point {
	return Point{X: clamp01(p.X), Y: clamp01(p.Y)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// WordItem is one vocabulary annotation tied to a point in a scene image.
// Word text acts as the natural key within a scene's word list.
type WordItem struct {
	Word            string `json:"word"`
	PhoneticSymbols string `json:"phoneticsymbols"`
	Explanation     string `json:"explanation"`
	Location        string `json:"location"`
	CustomPosition  *Point `json:"customPosition,omitempty"`
}

// OriginalPosition parses the "x, y" location string returned by the
// analysis service. Malformed input falls back to the image center.
func (w WordItem) OriginalPosition() Point {
	parts := strings.Split(w.Location, ",")
	if len(parts) != 2 {
		return Point{X: 0.5, Y: 0.5}
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return Point{X: 0.5, Y: 0.5}
	}
	return Point{X: x, Y: y}.Clamp()
}

// Position resolves the effective display position: a user-dragged
// custom position wins over the parsed original location.
func (w WordItem) Position() Point {
	if w.CustomPosition != nil {
		return w.CustomPosition.Clamp()
	}
	return w.OriginalPosition()
}

// Sentence is the immutable descriptive sentence for a scene.
type Sentence struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

// Scene is one analyzed photo plus its extracted words and sentence.
// Scenes are replaced wholesale on update; word lists are never mutated
// in place so concurrent writers cannot interleave partial updates.
type Scene struct {
	ID           string      `json:"id"`
	ImagePath    string      `json:"image_path,omitempty"`
	AssetID      string      `json:"asset_id,omitempty"`
	Words        []WordItem  `json:"words"`
	Sentence     Sentence    `json:"sentence"`
	CreatedAt    time.Time   `json:"created_at"`
	Status       SceneStatus `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// AnalysisResult is the parsed payload of one image analysis.
type AnalysisResult struct {
	Words    []WordItem `json:"words"`
	Sentence Sentence   `json:"sentence"`
}

// AnalysisTask is a queued image waiting for (or undergoing) analysis.
// Image bytes are held in memory only and never serialized.
type AnalysisTask struct {
	ID           string     `json:"id"`
	Image        []byte     `json:"-"`
	AssetID      string     `json:"asset_id,omitempty"`
	Status       TaskStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UniqueWord aggregates every occurrence of one word text across scenes.
// It is derived by the word index and never persisted directly; phonetics
// and explanation come from the first occurrence encountered.
type UniqueWord struct {
	ID              string     `json:"id"`
	Word            string     `json:"word"`
	PhoneticSymbols string     `json:"phoneticsymbols"`
	Explanation     string     `json:"explanation"`
	SceneIDs        []string   `json:"scene_ids"`
	Favorite        bool       `json:"favorite"`
	LearningStatus  WordStatus `json:"learning_status"`
}

// OwnedBy reports whether the word occurs in the given scene.
func (u *UniqueWord) OwnedBy(sceneID string) bool {
	for _, id := range u.SceneIDs {
		if id == sceneID {
			return true
		}
	}
	return false
}

// LearningStatus is the lifecycle of a daily learning task.
type LearningStatus string

const (
	LearningNotStarted LearningStatus = "notStarted"
	LearningInProgress LearningStatus = "inProgress"
	LearningCompleted  LearningStatus = "completed"
)

// WordStatus is the per-word review state within a learning task.
// It is authoritative; UniqueWord only carries a snapshot of it.
type WordStatus string

const (
	WordNotLearned WordStatus = "notLearned"
	WordNeedReview WordStatus = "needReview"
	WordMastered   WordStatus = "mastered"
)

// LearningWord is one word sampled into a daily learning task.
type LearningWord struct {
	ID              string     `json:"id"`
	Word            string     `json:"word"`
	PhoneticSymbols string     `json:"phoneticsymbols"`
	Explanation     string     `json:"explanation"`
	SceneID         string     `json:"scene_id"`
	Status          WordStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}

// LearningTask is one day's review batch.
type LearningTask struct {
	ID        string         `json:"id"`
	Date      time.Time      `json:"date"`
	Words     []LearningWord `json:"words"`
	Status    LearningStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// LearningRecord is an immutable completion snapshot, one per task lifecycle.
type LearningRecord struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	CompletedWords int       `json:"completed_words"`
	TotalWords     int       `json:"total_words"`
}

// CompletionRate is the completed/total ratio, 0 for an empty task.
func (r LearningRecord) CompletionRate() float64 {
	if r.TotalWords == 0 {
		return 0
	}
	return float64(r.CompletedWords) / float64(r.TotalWords)
}

const (
	MinWordsPerLesson = 5
	MaxWordsPerLesson = 100
)

// LearningSettings controls daily task generation.
type LearningSettings struct {
	WordsPerLesson int `json:"words_per_lesson"`
}

// DefaultLearningSettings returns the out-of-box settings.
func DefaultLearningSettings() LearningSettings {
	return LearningSettings{WordsPerLesson: 10}
}

// Clamp bounds WordsPerLesson into [MinWordsPerLesson, MaxWordsPerLesson].
func (s LearningSettings) Clamp() LearningSettings {
	if s.WordsPerLesson < MinWordsPerLesson {
		s.WordsPerLesson = MinWordsPerLesson
	}
	if s.WordsPerLesson > MaxWordsPerLesson {
		s.WordsPerLesson = MaxWordsPerLesson
	}
	return s
}
