// Package queue schedules submitted photos for analysis with bounded
// concurrency and writes completed results into the scene store.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snapvocab/snapvocab/internal/analysis"
	"github.com/snapvocab/snapvocab/internal/models"
	"github.com/snapvocab/snapvocab/internal/store"
)

// DefaultMaxConcurrent caps simultaneous in-flight analyses.
const DefaultMaxConcurrent = 2

// Queue is a FIFO list of analysis tasks, newest first for display.
// Waiting tasks start strictly in submission order as slots free up;
// at most maxConcurrent tasks are ever in processing. A pipeline
// failure marks its task failed and never disturbs the other tasks.
type Queue struct {
	mu            sync.Mutex
	tasks         []models.AnalysisTask
	processing    int
	maxConcurrent int

	ctx      context.Context
	analyzer analysis.Analyzer
	scenes   *store.SceneStore
	images   *store.ImageStore
}

// New creates a queue. maxConcurrent values below 1 fall back to
// DefaultMaxConcurrent. ctx bounds the lifetime of all analyses.
func New(ctx context.Context, analyzer analysis.Analyzer, scenes *store.SceneStore, images *store.ImageStore, maxConcurrent int) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Queue{
		maxConcurrent: maxConcurrent,
		ctx:           ctx,
		analyzer:      analyzer,
		scenes:        scenes,
		images:        images,
	}
}

// Submit enqueues an image for analysis and returns the new task.
func (q *Queue) Submit(image []byte, assetID string) models.AnalysisTask {
	task := models.AnalysisTask{
		ID:        uuid.NewString(),
		Image:     image,
		AssetID:   assetID,
		Status:    models.TaskWaiting,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	q.tasks = append([]models.AnalysisTask{task}, q.tasks...)
	q.mu.Unlock()

	slog.Info("Analysis task submitted", "task_id", task.ID, "bytes", len(image))
	q.dispatch()
	return task
}

// Tasks returns a copy of the task list, newest first.
func (q *Queue) Tasks() []models.AnalysisTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.AnalysisTask, len(q.tasks))
	copy(out, q.tasks)
	return out
}

// Has reports whether a task with the given id is queued.
func (q *Queue) Has(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// ProcessingCount returns the number of in-flight analyses.
func (q *Queue) ProcessingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processing
}

// Retry resets a failed task to waiting and re-signals the scheduler.
func (q *Queue) Retry(id string) bool {
	q.mu.Lock()
	found := false
	for i := range q.tasks {
		if q.tasks[i].ID == id && q.tasks[i].Status == models.TaskFailed {
			q.tasks[i].Status = models.TaskWaiting
			q.tasks[i].ErrorMessage = ""
			found = true
			break
		}
	}
	q.mu.Unlock()

	if found {
		slog.Info("Analysis task reset for retry", "task_id", id)
		q.dispatch()
	}
	return found
}

// Delete removes a waiting or failed task. In-flight tasks cannot be
// cancelled and stay queued until they settle.
func (q *Queue) Delete(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.tasks {
		if q.tasks[i].ID == id && q.tasks[i].Status != models.TaskProcessing {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// dispatch starts waiting tasks, oldest first, until the concurrency
// cap is reached or no waiting task remains.
func (q *Queue) dispatch() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.processing < q.maxConcurrent {
		// The list is newest-first, so the oldest waiting task is the
		// last match scanning from the back.
		idx := -1
		for i := len(q.tasks) - 1; i >= 0; i-- {
			if q.tasks[i].Status == models.TaskWaiting {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}

		q.tasks[idx].Status = models.TaskProcessing
		q.processing++
		task := q.tasks[idx]
		go q.run(task)
	}
}

// run executes one analysis. The store is touched only after all
// network work has finished, so no lock is held across a suspension.
func (q *Queue) run(task models.AnalysisTask) {
	result, err := q.analyzer.Analyze(q.ctx, task.Image, nil)
	if err != nil {
		q.settleFailure(task.ID, err)
	} else {
		q.settleSuccess(task, result)
	}
	q.dispatch()
}

func (q *Queue) settleSuccess(task models.AnalysisTask, result *models.AnalysisResult) {
	scene := models.Scene{
		ID:        uuid.NewString(),
		AssetID:   task.AssetID,
		Words:     result.Words,
		Sentence:  result.Sentence,
		CreatedAt: time.Now(),
		Status:    models.SceneCompleted,
	}

	if err := q.images.Save(scene.ID, task.Image); err != nil {
		slog.Warn("Failed to persist scene image", "scene_id", scene.ID, "err", err)
	} else {
		scene.ImagePath = q.images.Path(scene.ID)
	}

	q.scenes.Upsert(scene)

	q.mu.Lock()
	for i := range q.tasks {
		if q.tasks[i].ID == task.ID {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			break
		}
	}
	q.processing--
	q.mu.Unlock()

	slog.Info("Analysis task completed", "task_id", task.ID, "scene_id", scene.ID, "words", len(result.Words))
}

func (q *Queue) settleFailure(taskID string, err error) {
	q.mu.Lock()
	for i := range q.tasks {
		if q.tasks[i].ID == taskID {
			q.tasks[i].Status = models.TaskFailed
			q.tasks[i].ErrorMessage = err.Error()
			break
		}
	}
	q.processing--
	q.mu.Unlock()

	slog.Error("Analysis task failed", "task_id", taskID, "err", err)
}
