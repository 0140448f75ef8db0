package words

import (
	"path/filepath"
	"testing"

	"github.com/snapvocab/snapvocab/internal/models"
	"github.com/snapvocab/snapvocab/internal/store"
)

func openTestBlobs(t *testing.T) *store.BlobStore {
	t.Helper()
	blobs, err := store.OpenBlobStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open blob store: %v", err)
	}
	t.Cleanup(func() { blobs.Close() })
	return blobs
}

func scene(id string, words ...models.WordItem) models.Scene {
	return models.Scene{ID: id, Words: words}
}

func word(text, explanation string) models.WordItem {
	return models.WordItem{Word: text, Explanation: explanation, Location: "0.5, 0.5"}
}

func TestRebuildDeduplicates(t *testing.T) {
	ix := NewIndex(openTestBlobs(t))

	ix.Rebuild([]models.Scene{
		scene("scene-1", word("lamp", "first lamp"), word("chair", "a chair")),
		scene("scene-2", word("lamp", "second lamp")),
	})

	all := ix.All()
	if len(all) != 2 {
		t.Fatalf("got %d unique words, want 2", len(all))
	}
	// Sorted by word text.
	if all[0].Word != "chair" || all[1].Word != "lamp" {
		t.Errorf("word order = [%s, %s], want [chair, lamp]", all[0].Word, all[1].Word)
	}

	lamp, ok := ix.Get("lamp")
	if !ok {
		t.Fatal("lamp not indexed")
	}
	// First occurrence seeds the explanation.
	if lamp.Explanation != "first lamp" {
		t.Errorf("lamp explanation = %q, want %q", lamp.Explanation, "first lamp")
	}
	if len(lamp.SceneIDs) != 2 {
		t.Errorf("lamp owned by %d scenes, want 2", len(lamp.SceneIDs))
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	ix := NewIndex(openTestBlobs(t))
	scenes := []models.Scene{scene("scene-1", word("lamp", "a lamp"))}

	ix.Rebuild(scenes)
	ix.Rebuild(scenes)

	if got := ix.All(); len(got) != 1 {
		t.Errorf("got %d unique words after double rebuild, want 1", len(got))
	}
}

func TestRemoveScene(t *testing.T) {
	ix := NewIndex(openTestBlobs(t))
	ix.Rebuild([]models.Scene{
		scene("scene-1", word("lamp", ""), word("chair", "")),
		scene("scene-2", word("lamp", "")),
	})

	ix.RemoveScene("scene-1")

	// chair lost its only owner and is gone.
	if _, ok := ix.Get("chair"); ok {
		t.Error("chair survived removal of its only scene")
	}

	// lamp keeps its remaining owner.
	lamp, ok := ix.Get("lamp")
	if !ok {
		t.Fatal("lamp dropped despite a remaining owner")
	}
	if len(lamp.SceneIDs) != 1 || lamp.SceneIDs[0] != "scene-2" {
		t.Errorf("lamp owners = %v, want [scene-2]", lamp.SceneIDs)
	}
}

func TestRemoveSceneLeavesSnapshotsIntact(t *testing.T) {
	ix := NewIndex(openTestBlobs(t))
	ix.Rebuild([]models.Scene{
		scene("scene-1", word("lamp", "")),
		scene("scene-2", word("lamp", "")),
	})

	snapshot := ix.All()
	if len(snapshot) != 1 || len(snapshot[0].SceneIDs) != 2 {
		t.Fatalf("snapshot = %v, want lamp owned by two scenes", snapshot)
	}

	ix.RemoveScene("scene-1")

	// The compaction must not write through the snapshot's owner slice.
	if snapshot[0].SceneIDs[0] != "scene-1" || snapshot[0].SceneIDs[1] != "scene-2" {
		t.Errorf("snapshot owners = %v, want [scene-1 scene-2] untouched by removal", snapshot[0].SceneIDs)
	}

	lamp, _ := ix.Get("lamp")
	if len(lamp.SceneIDs) != 1 || lamp.SceneIDs[0] != "scene-2" {
		t.Errorf("current owners = %v, want [scene-2]", lamp.SceneIDs)
	}
}

func TestToggleFavoritePersistsAcrossRebuild(t *testing.T) {
	blobs := openTestBlobs(t)
	ix := NewIndex(blobs)
	scenes := []models.Scene{scene("scene-1", word("lamp", ""), word("chair", ""))}
	ix.Rebuild(scenes)

	if ix.ToggleFavorite("missing") {
		t.Error("ToggleFavorite returned true for an unknown word")
	}
	if !ix.ToggleFavorite("lamp") {
		t.Fatal("ToggleFavorite returned false for a known word")
	}

	// A fresh index over the same blob store restores the flag.
	fresh := NewIndex(blobs)
	fresh.Rebuild(scenes)

	lamp, _ := fresh.Get("lamp")
	if !lamp.Favorite {
		t.Error("favorite flag lost after rebuild")
	}
	chair, _ := fresh.Get("chair")
	if chair.Favorite {
		t.Error("favorite flag leaked onto another word")
	}

	// Toggling again clears it.
	fresh.ToggleFavorite("lamp")
	again := NewIndex(blobs)
	again.Rebuild(scenes)
	lamp, _ = again.Get("lamp")
	if lamp.Favorite {
		t.Error("favorite flag survived a second toggle")
	}
}

func TestRebuildAppliesStatusSource(t *testing.T) {
	ix := NewIndex(openTestBlobs(t))
	ix.SetStatusSource(func(w string) models.WordStatus {
		if w == "lamp" {
			return models.WordMastered
		}
		return models.WordNotLearned
	})

	ix.Rebuild([]models.Scene{scene("scene-1", word("lamp", ""), word("chair", ""))})

	lamp, _ := ix.Get("lamp")
	if lamp.LearningStatus != models.WordMastered {
		t.Errorf("lamp status = %s, want mastered", lamp.LearningStatus)
	}
	chair, _ := ix.Get("chair")
	if chair.LearningStatus != models.WordNotLearned {
		t.Errorf("chair status = %s, want notLearned", chair.LearningStatus)
	}
}
