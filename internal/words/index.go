// Package words maintains the derived index of distinct word texts
// across all scenes. The index is a cache: it is rebuilt from the scene
// store on every change and is never the source of truth.
package words

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/snapvocab/snapvocab/internal/models"
	"github.com/snapvocab/snapvocab/internal/store"
)

const favoritesKey = "favorited_words"

// Index maps distinct word texts to the scenes containing them.
type Index struct {
	mu       sync.Mutex
	words    []models.UniqueWord
	blobs    *store.BlobStore
	statusFn func(word string) models.WordStatus
}

// NewIndex creates an empty index persisting favorites through blobs.
func NewIndex(blobs *store.BlobStore) *Index {
	return &Index{blobs: blobs}
}

// SetStatusSource plugs in the learning-status snapshot provider. The
// authoritative status lives with the learning tasks; the index only
// mirrors it onto unique words for display.
func (ix *Index) SetStatusSource(fn func(word string) models.WordStatus) {
	ix.mu.Lock()
	ix.statusFn = fn
	ix.mu.Unlock()
}

// Rebuild recomputes the index from the given scenes. Scenes are
// visited in stored order and each scene's words in list order: the
// first occurrence of a word text seeds its phonetics and explanation,
// later occurrences only add their scene to the owner set. The result
// is sorted by word text. Favorite flags are restored from the
// persisted favorites list after every rebuild.
func (ix *Index) Rebuild(scenes []models.Scene) {
	byText := make(map[string]int)
	var rebuilt []models.UniqueWord

	for _, scene := range scenes {
		for _, w := range scene.Words {
			if i, ok := byText[w.Word]; ok {
				if !rebuilt[i].OwnedBy(scene.ID) {
					rebuilt[i].SceneIDs = append(rebuilt[i].SceneIDs, scene.ID)
				}
				continue
			}
			byText[w.Word] = len(rebuilt)
			rebuilt = append(rebuilt, models.UniqueWord{
				ID:              uuid.NewString(),
				Word:            w.Word,
				PhoneticSymbols: w.PhoneticSymbols,
				Explanation:     w.Explanation,
				SceneIDs:        []string{scene.ID},
			})
		}
	}

	sort.Slice(rebuilt, func(i, j int) bool {
		return rebuilt[i].Word < rebuilt[j].Word
	})

	favorites := ix.loadFavorites()

	// The status source takes the learning manager's lock, so it must
	// run before ix.mu is held; only the final swap needs the lock.
	ix.mu.Lock()
	statusFn := ix.statusFn
	ix.mu.Unlock()

	for i := range rebuilt {
		rebuilt[i].Favorite = favorites[rebuilt[i].Word]
		rebuilt[i].LearningStatus = models.WordNotLearned
		if statusFn != nil {
			rebuilt[i].LearningStatus = statusFn(rebuilt[i].Word)
		}
	}

	ix.mu.Lock()
	ix.words = rebuilt
	ix.mu.Unlock()

	slog.Debug("Word index rebuilt", "unique_words", len(rebuilt), "scenes", len(scenes))
}

// RemoveScene drops the scene from every word's owner set and removes
// words left with no owners. Callers invoke this before or alongside
// the scene store deletion so the index never references a stale scene.
func (ix *Index) RemoveScene(sceneID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	// Fresh slices throughout: snapshots handed out by All share the
	// old backing arrays and must never see these writes.
	kept := make([]models.UniqueWord, 0, len(ix.words))
	for _, w := range ix.words {
		owners := make([]string, 0, len(w.SceneIDs))
		for _, id := range w.SceneIDs {
			if id != sceneID {
				owners = append(owners, id)
			}
		}
		if len(owners) > 0 {
			w.SceneIDs = owners
			kept = append(kept, w)
		}
	}
	ix.words = kept
}

// All returns a copy of the indexed words, sorted by word text.
func (ix *Index) All() []models.UniqueWord {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make([]models.UniqueWord, len(ix.words))
	copy(out, ix.words)
	return out
}

// Get returns the unique word with the given text.
func (ix *Index) Get(word string) (models.UniqueWord, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, w := range ix.words {
		if w.Word == word {
			return w, true
		}
	}
	return models.UniqueWord{}, false
}

// ToggleFavorite flips the favorite flag for a word text and persists
// the favorites list. Returns false when the word is not indexed.
func (ix *Index) ToggleFavorite(word string) bool {
	ix.mu.Lock()
	found := false
	var favorites []string
	for i := range ix.words {
		if ix.words[i].Word == word {
			ix.words[i].Favorite = !ix.words[i].Favorite
			found = true
		}
		if ix.words[i].Favorite {
			favorites = append(favorites, ix.words[i].Word)
		}
	}
	ix.mu.Unlock()

	if found {
		ix.saveFavorites(favorites)
	}
	return found
}

func (ix *Index) loadFavorites() map[string]bool {
	favorites := make(map[string]bool)
	data, err := ix.blobs.Get(favoritesKey)
	if err != nil {
		slog.Error("Failed to load favorites", "err", err)
		return favorites
	}
	if data == nil {
		return favorites
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		slog.Error("Failed to decode favorites", "err", err)
		return favorites
	}
	for _, w := range list {
		favorites[w] = true
	}
	return favorites
}

func (ix *Index) saveFavorites(favorites []string) {
	data, err := json.Marshal(favorites)
	if err != nil {
		slog.Error("Failed to encode favorites", "err", err)
		return
	}
	if err := ix.blobs.Put(favoritesKey, data); err != nil {
		slog.Error("Failed to persist favorites", "err", err)
	}
}
