package store

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/snapvocab/snapvocab/internal/models"
)

const scenesKey = "saved_scenes"

// DefaultSaveDelay coalesces rapid successive mutations into one write.
const DefaultSaveDelay = 500 * time.Millisecond

// SceneStore owns the durable collection of analyzed scenes, newest
// first. Every mutation runs under one mutex, so read-modify-write
// cycles never interleave. Persistence is debounced: mutations schedule
// a save and FlushNow forces one (the host calls it on shutdown).
type SceneStore struct {
	mu          sync.Mutex
	scenes      []models.Scene
	version     uint64
	blobs       *BlobStore
	saveDelay   time.Duration
	saveTimer   *time.Timer
	subscribers []func()

	// saveMu serializes blob writes; savedVersion lets a straggling
	// timer callback detect that a newer snapshot already landed.
	saveMu       sync.Mutex
	savedVersion uint64
}

// NewSceneStore creates a store persisting through blobs.
func NewSceneStore(blobs *BlobStore) *SceneStore {
	return &SceneStore{
		blobs:     blobs,
		saveDelay: DefaultSaveDelay,
	}
}

// Subscribe registers fn to run after every collection change. Used to
// drive word index refreshes; fn is called outside the store lock.
func (s *SceneStore) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Load reads the persisted collection. A missing or unreadable blob
// leaves the store empty; the app stays usable either way.
func (s *SceneStore) Load() {
	data, err := s.blobs.Get(scenesKey)
	if err != nil {
		slog.Error("Failed to load scenes, starting empty", "err", err)
		return
	}
	if data == nil {
		slog.Info("No saved scenes found")
		return
	}

	var scenes []models.Scene
	if err := json.Unmarshal(data, &scenes); err != nil {
		slog.Error("Failed to decode saved scenes, starting empty", "err", err)
		return
	}

	s.mu.Lock()
	s.scenes = scenes
	s.mu.Unlock()
	slog.Info("Loaded scenes", "count", len(scenes))
}

// Scenes returns a copy of the collection, newest first.
func (s *SceneStore) Scenes() []models.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Scene, len(s.scenes))
	copy(out, s.scenes)
	return out
}

// Get returns the scene with the given id.
func (s *SceneStore) Get(id string) (models.Scene, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, scene := range s.scenes {
		if scene.ID == id {
			return scene, true
		}
	}
	return models.Scene{}, false
}

// Upsert replaces the scene with the same id wholesale, or inserts it
// as the newest scene. Schedules a save and notifies subscribers.
func (s *SceneStore) Upsert(scene models.Scene) {
	s.mu.Lock()
	replaced := false
	for i := range s.scenes {
		if s.scenes[i].ID == scene.ID {
			s.scenes[i] = scene
			replaced = true
			break
		}
	}
	if !replaced {
		s.scenes = append([]models.Scene{scene}, s.scenes...)
	}
	s.scheduleSaveLocked()
	subs := append([]func(){}, s.subscribers...)
	s.mu.Unlock()

	slog.Info("Scene upserted", "scene_id", scene.ID, "words", len(scene.Words), "replaced", replaced)
	for _, fn := range subs {
		fn()
	}
}

// Delete removes the scene by id. Returns false when the id is unknown.
func (s *SceneStore) Delete(id string) bool {
	s.mu.Lock()
	found := false
	for i := range s.scenes {
		if s.scenes[i].ID == id {
			s.scenes = append(s.scenes[:i], s.scenes[i+1:]...)
			found = true
			break
		}
	}
	var subs []func()
	if found {
		s.scheduleSaveLocked()
		subs = append([]func(){}, s.subscribers...)
	}
	s.mu.Unlock()

	if found {
		slog.Info("Scene deleted", "scene_id", id)
		for _, fn := range subs {
			fn()
		}
	}
	return found
}

// UpdateWordPosition sets the custom position of the first word whose
// text matches, searching scenes in stored order. The position is
// clamped to [0,1] and the save is debounced so rapid drag updates
// coalesce into one write. Matching is by word text across the whole
// store, not by (scene, word); duplicate texts resolve to the first
// scene that contains one.
func (s *SceneStore) UpdateWordPosition(word string, pos models.Point) bool {
	clamped := pos.Clamp()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.scenes {
		for j := range s.scenes[i].Words {
			if s.scenes[i].Words[j].Word != word {
				continue
			}
			// Rewrite the full word list so the scene is replaced as a
			// whole value, never partially mutated.
			words := make([]models.WordItem, len(s.scenes[i].Words))
			copy(words, s.scenes[i].Words)
			words[j].CustomPosition = &clamped
			updated := s.scenes[i]
			updated.Words = words
			s.scenes[i] = updated
			s.scheduleSaveLocked()
			return true
		}
	}
	return false
}

// ScheduleSave requests a debounced persist.
func (s *SceneStore) ScheduleSave() {
	s.mu.Lock()
	s.scheduleSaveLocked()
	s.mu.Unlock()
}

func (s *SceneStore) scheduleSaveLocked() {
	s.version++
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.saveDelay, s.persist)
}

// FlushNow cancels any pending debounced save and persists immediately.
func (s *SceneStore) FlushNow() {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.mu.Unlock()
	s.persist()
}

// persist serializes the whole collection to one buffer and replaces
// the stored blob in a single write. Image bytes never enter the blob;
// scenes reference their image files by id. A failed write is logged
// and superseded by the next save.
func (s *SceneStore) persist() {
	s.mu.Lock()
	snapshot := make([]models.Scene, len(s.scenes))
	copy(snapshot, s.scenes)
	version := s.version
	s.mu.Unlock()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if version < s.savedVersion {
		// A stopped-too-late timer raced a newer save; its snapshot
		// predates what is already on disk.
		return
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("Failed to encode scenes", "err", err)
		return
	}
	if err := s.blobs.Put(scenesKey, data); err != nil {
		slog.Error("Failed to persist scenes, will retry on next save", "err", err)
		return
	}
	s.savedVersion = version
	slog.Debug("Scenes persisted", "count", len(snapshot), "bytes", len(data))
}
