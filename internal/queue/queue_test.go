package queue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/snapvocab/snapvocab/internal/models"
	"github.com/snapvocab/snapvocab/internal/store"
)

// blockingAnalyzer parks every analysis until released, reporting each
// start on the started channel.
type blockingAnalyzer struct {
	started chan string
	release chan struct{}
	result  *models.AnalysisResult
	err     error
}

func (a *blockingAnalyzer) Analyze(ctx context.Context, image []byte, progress func(string)) (*models.AnalysisResult, error) {
	a.started <- string(image)
	<-a.release
	return a.result, a.err
}

func newTestQueue(t *testing.T, analyzer *blockingAnalyzer, maxConcurrent int) (*Queue, *store.SceneStore) {
	t.Helper()
	dir := t.TempDir()
	blobs, err := store.OpenBlobStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to open blob store: %v", err)
	}
	t.Cleanup(func() { blobs.Close() })

	scenes := store.NewSceneStore(blobs)
	images := store.NewImageStore(filepath.Join(dir, "images"))
	return New(context.Background(), analyzer, scenes, images, maxConcurrent), scenes
}

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestQueueConcurrencyCap(t *testing.T) {
	analyzer := &blockingAnalyzer{
		started: make(chan string, 3),
		release: make(chan struct{}),
		result:  &models.AnalysisResult{},
	}
	q, _ := newTestQueue(t, analyzer, 2)

	q.Submit([]byte("one"), "")
	q.Submit([]byte("two"), "")
	q.Submit([]byte("three"), "")

	// The two oldest submissions start; their goroutines race so the
	// start order between them is not observable.
	first, second := <-analyzer.started, <-analyzer.started
	if first == "three" || second == "three" {
		t.Errorf("started analyses = [%s, %s], third task ran before a slot freed", first, second)
	}
	if got := q.ProcessingCount(); got != 2 {
		t.Errorf("ProcessingCount() = %d, want 2", got)
	}

	// The third waits for a free slot.
	select {
	case got := <-analyzer.started:
		t.Fatalf("third analysis %s started above the concurrency cap", got)
	case <-time.After(50 * time.Millisecond):
	}

	// Freeing the in-flight analyses lets the third run.
	close(analyzer.release)
	if got := <-analyzer.started; got != "three" {
		t.Errorf("third started analysis = %s, want three", got)
	}

	waitUntil(t, "queue to drain", func() {
		return len(q.Tasks()) == 0 && q.ProcessingCount() == 0
	})
}

func TestQueueSuccessCreatesScene(t *testing.T) {
	analyzer := &blockingAnalyzer{
		started: make(chan string, 1),
		release: make(chan struct{}),
		result: &models.AnalysisResult{
			Words:    []models.WordItem{{Word: "lamp", Location: "0.4, 0.6"}},
			Sentence: models.Sentence{Text: "A lamp on a desk.", Translation: "桌上的台灯。"},
		},
	}
	q, scenes := newTestQueue(t, analyzer, 1)

	q.Submit([]byte("image-bytes"), "asset-1")
	<-analyzer.started
	close(analyzer.release)

	waitUntil(t, "task to settle", func() { return len(q.Tasks()) == 0 })

	got := scenes.Scenes()
	if len(got) != 1 {
		t.Fatalf("got %d scenes, want 1", len(got))
	}
	scene := got[0]
	if scene.Status != models.SceneCompleted {
		t.Errorf("scene status = %s, want completed", scene.Status)
	}
	if scene.AssetID != "asset-1" {
		t.Errorf("scene asset = %s, want asset-1", scene.AssetID)
	}
	if len(scene.Words) != 1 || scene.Words[0].Word != "lamp" {
		t.Errorf("scene words = %v, want [lamp]", scene.Words)
	}
	if scene.ImagePath == "" {
		t.Error("scene image path not set after successful save")
	}
}

func TestQueueFailureMarksTask(t *testing.T) {
	analyzer := &blockingAnalyzer{
		started: make(chan string, 2),
		release: make(chan struct{}),
		err:     errors.New("analysis blew up"),
	}
	q, scenes := newTestQueue(t, analyzer, 1)

	task := q.Submit([]byte("image"), "")
	<-analyzer.started
	close(analyzer.release)

	waitUntil(t, "task to fail", func() {
		tasks := q.Tasks()
		return len(tasks) == 1 && tasks[0].Status == models.TaskFailed
	})

	failed := q.Tasks()[0]
	if failed.ID != task.ID {
		t.Errorf("failed task id = %s, want %s", failed.ID, task.ID)
	}
	if failed.ErrorMessage != "analysis blew up" {
		t.Errorf("error message = %q, want the analyzer error", failed.ErrorMessage)
	}
	if got := scenes.Scenes(); len(got) != 0 {
		t.Errorf("failure created %d scenes, want 0", len(got))
	}

	// Retry puts the task back through the analyzer.
	analyzer.err = nil
	analyzer.result = &models.AnalysisResult{}
	if !q.Retry(task.ID) {
		t.Fatal("Retry returned false for a failed task")
	}
	<-analyzer.started

	waitUntil(t, "retried task to settle", func() { return len(q.Tasks()) == 0 })
	if got := scenes.Scenes(); len(got) != 1 {
		t.Errorf("retry produced %d scenes, want 1", len(got))
	}
}

func TestQueueRetryOnlyFailedTasks(t *testing.T) {
	analyzer := &blockingAnalyzer{
		started: make(chan string, 1),
		release: make(chan struct{}),
		result:  &models.AnalysisResult{},
	}
	q, _ := newTestQueue(t, analyzer, 1)

	task := q.Submit([]byte("image"), "")
	<-analyzer.started

	// The task is processing, not failed.
	if q.Retry(task.ID) {
		t.Error("Retry returned true for a processing task")
	}
	if q.Retry("missing") {
		t.Error("Retry returned true for an unknown task")
	}

	close(analyzer.release)
	waitUntil(t, "task to settle", func() { return len(q.Tasks()) == 0 })
}

func TestQueueDelete(t *testing.T) {
	analyzer := &blockingAnalyzer{
		started: make(chan string, 1),
		release: make(chan struct{}),
		result:  &models.AnalysisResult{},
	}
	q, _ := newTestQueue(t, analyzer, 1)

	running := q.Submit([]byte("running"), "")
	waiting := q.Submit([]byte("waiting"), "")
	<-analyzer.started

	// In-flight tasks cannot be removed, waiting ones can.
	if q.Delete(running.ID) {
		t.Error("Delete returned true for a processing task")
	}
	if !q.Delete(waiting.ID) {
		t.Error("Delete returned false for a waiting task")
	}
	if q.Has(waiting.ID) {
		t.Error("deleted task still queued")
	}

	close(analyzer.release)
	waitUntil(t, "queue to drain", func() { return len(q.Tasks()) == 0 })
}
