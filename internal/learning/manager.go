// Package learning derives daily review tasks from the word index and
// tracks per-word review progress.
package learning

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snapvocab/snapvocab/internal/models"
	"github.com/snapvocab/snapvocab/internal/store"
	"github.com/snapvocab/snapvocab/internal/words"
)

const (
	tasksKey    = "learning_tasks"
	settingsKey = "learning_settings"
	recordsKey  = "learning_records"
)

// Manager owns learning tasks, settings and completion records. All
// three survive restarts as JSON blobs.
type Manager struct {
	mu       sync.Mutex
	tasks    []models.LearningTask
	settings models.LearningSettings
	records  []models.LearningRecord

	blobs *store.BlobStore
	index *words.Index
}

// NewManager loads persisted learning state. Missing or unreadable
// blobs fall back to empty state and default settings.
func NewManager(blobs *store.BlobStore, index *words.Index) *Manager {
	m := &Manager{
		settings: models.DefaultLearningSettings(),
		blobs:    blobs,
		index:    index,
	}
	loadJSON(blobs, tasksKey, &m.tasks)
	loadJSON(blobs, recordsKey, &m.records)

	var saved models.LearningSettings
	if loadJSON(blobs, settingsKey, &saved) && saved.WordsPerLesson != 0 {
		m.settings = saved.Clamp()
	}
	return m
}

// GenerateDailyTask creates today's review batch by sampling the first
// words-per-lesson entries of the word index. It is a no-op when a
// task already exists for the current calendar day or when the index
// is empty; both return nil.
func (m *Manager) GenerateDailyTask() *models.LearningTask {
	// Sample the index before taking m.mu: a concurrent index rebuild
	// consults WordStatus, which also takes m.mu.
	all := m.index.All()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasTodayTaskLocked() {
		slog.Info("Daily learning task already exists, skipping generation")
		return nil
	}

	if len(all) == 0 {
		slog.Info("No words available for a learning task")
		return nil
	}

	count := m.settings.Clamp().WordsPerLesson
	if count > len(all) {
		count = len(all)
	}

	now := time.Now()
	learningWords := make([]models.LearningWord, 0, count)
	for _, uw := range all[:count] {
		sceneID := ""
		if len(uw.SceneIDs) > 0 {
			sceneID = uw.SceneIDs[0]
		}
		learningWords = append(learningWords, models.LearningWord{
			ID:              uuid.NewString(),
			Word:            uw.Word,
			PhoneticSymbols: uw.PhoneticSymbols,
			Explanation:     uw.Explanation,
			SceneID:         sceneID,
			Status:          models.WordNotLearned,
			CreatedAt:       now,
		})
	}

	task := models.LearningTask{
		ID:        uuid.NewString(),
		Date:      now,
		Words:     learningWords,
		Status:    models.LearningNotStarted,
		CreatedAt: now,
	}
	m.tasks = append(m.tasks, task)
	m.saveTasksLocked()

	slog.Info("Daily learning task created", "task_id", task.ID, "words", len(task.Words))
	return &task
}

// HasTodayTask reports whether a task exists for the current day.
func (m *Manager) HasTodayTask() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasTodayTaskLocked()
}

func (m *Manager) hasTodayTaskLocked() bool {
	now := time.Now()
	for _, t := range m.tasks {
		if sameDay(t.Date, now) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Tasks returns a copy of all learning tasks.
func (m *Manager) Tasks() []models.LearningTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.LearningTask, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// DeleteTask removes a learning task by id.
func (m *Manager) DeleteTask(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			m.saveTasksLocked()
			return true
		}
	}
	return false
}

// UpdateWordStatus sets one word's review status and recomputes the
// owning task's status: completed once no word is notLearned, else
// inProgress.
func (m *Manager) UpdateWordStatus(taskID, wordID string, status models.WordStatus) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.tasks {
		if m.tasks[i].ID != taskID {
			continue
		}
		for j := range m.tasks[i].Words {
			if m.tasks[i].Words[j].ID != wordID {
				continue
			}
			// Rewrite the full word list so snapshots returned by Tasks,
			// which share the old backing array, never see the write.
			updated := make([]models.LearningWord, len(m.tasks[i].Words))
			copy(updated, m.tasks[i].Words)
			updated[j].Status = status
			m.tasks[i].Words = updated

			allLearned := true
			for _, w := range updated {
				if w.Status == models.WordNotLearned {
					allLearned = false
					break
				}
			}
			if allLearned {
				m.tasks[i].Status = models.LearningCompleted
			} else {
				m.tasks[i].Status = models.LearningInProgress
			}

			m.saveTasksLocked()
			return true
		}
	}
	return false
}

// RecordLearning appends the immutable completion snapshot for a task,
// called once when the task is finished or abandoned.
func (m *Manager) RecordLearning(taskID string) (models.LearningRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tasks {
		if t.ID != taskID {
			continue
		}
		completed := 0
		for _, w := range t.Words {
			if w.Status != models.WordNotLearned {
				completed++
			}
		}
		record := models.LearningRecord{
			ID:             uuid.NewString(),
			Date:           t.Date,
			CompletedWords: completed,
			TotalWords:     len(t.Words),
		}
		m.records = append(m.records, record)
		m.saveRecordsLocked()
		return record, true
	}
	return models.LearningRecord{}, false
}

// Records returns a copy of all completion records.
func (m *Manager) Records() []models.LearningRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.LearningRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Settings returns the current learning settings.
func (m *Manager) Settings() models.LearningSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// UpdateSettings clamps and persists new settings.
func (m *Manager) UpdateSettings(s models.LearningSettings) models.LearningSettings {
	m.mu.Lock()
	m.settings = s.Clamp()
	clamped := m.settings
	data, err := json.Marshal(clamped)
	m.mu.Unlock()

	if err != nil {
		slog.Error("Failed to encode learning settings", "err", err)
		return clamped
	}
	if err := m.blobs.Put(settingsKey, data); err != nil {
		slog.Error("Failed to persist learning settings", "err", err)
	}
	return clamped
}

// WordStatus returns the review status of a word in the most recent
// task containing it, for display on unique words. Words not in any
// task are notLearned.
func (m *Manager) WordStatus(word string) models.WordStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.tasks) - 1; i >= 0; i-- {
		for _, w := range m.tasks[i].Words {
			if w.Word == word {
				return w.Status
			}
		}
	}
	return models.WordNotLearned
}

func (m *Manager) saveTasksLocked() {
	data, err := json.Marshal(m.tasks)
	if err != nil {
		slog.Error("Failed to encode learning tasks", "err", err)
		return
	}
	if err := m.blobs.Put(tasksKey, data); err != nil {
		slog.Error("Failed to persist learning tasks", "err", err)
	}
}

func (m *Manager) saveRecordsLocked() {
	data, err := json.Marshal(m.records)
	if err != nil {
		slog.Error("Failed to encode learning records", "err", err)
		return
	}
	if err := m.blobs.Put(recordsKey, data); err != nil {
		slog.Error("Failed to persist learning records", "err", err)
	}
}

func loadJSON(blobs *store.BlobStore, key string, out any) bool {
	data, err := blobs.Get(key)
	if err != nil {
		slog.Error("Failed to load learning state", "key", key, "err", err)
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Error("Failed to decode learning state", "key", key, "err", err)
		return false
	}
	return true
}
