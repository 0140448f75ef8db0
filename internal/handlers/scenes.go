package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/snapvocab/snapvocab/internal/layout"
	"github.com/snapvocab/snapvocab/internal/models"
)

func (h *Handler) handleListScenes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.scenes.Scenes())
}

func (h *Handler) handleGetScene(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scenes.Get(mux.Vars(r)["id"])
	if !ok {
		h.writeError(w, "Scene not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, scene)
}

func (h *Handler) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// Drop the scene from the word index before the store deletion so
	// the index never references a stale scene.
	h.index.RemoveScene(id)

	if !h.scenes.Delete(id) {
		h.writeError(w, "Scene not found", http.StatusNotFound)
		return
	}
	if err := h.images.Delete(id); err != nil {
		h.writeError(w, "Failed to delete scene image: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]any{"deleted": id})
}

func (h *Handler) handleSceneImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.scenes.Get(id); !ok {
		h.writeError(w, "Scene not found", http.StatusNotFound)
		return
	}
	data, err := h.images.Load(id)
	if err != nil {
		h.writeError(w, "Scene image not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	if _, err := w.Write(data); err != nil {
		h.writeError(w, "Failed to write image", http.StatusInternalServerError)
	}
}

// handleSceneLayout computes non-overlapping card center positions for
// every word in a scene, for a client viewport of the given sizes.
func (h *Handler) handleSceneLayout(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scenes.Get(mux.Vars(r)["id"])
	if !ok {
		h.writeError(w, "Scene not found", http.StatusNotFound)
		return
	}

	var request struct {
		ImageWidth  float64 `json:"image_width"`
		ImageHeight float64 `json:"image_height"`
		CardWidth   float64 `json:"card_width"`
		CardHeight  float64 `json:"card_height"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.ImageWidth <= 0 || request.ImageHeight <= 0 || request.CardWidth <= 0 || request.CardHeight <= 0 {
		h.writeError(w, "image and card dimensions must be positive", http.StatusBadRequest)
		return
	}

	imageSize := layout.Size{Width: request.ImageWidth, Height: request.ImageHeight}
	cardSize := layout.Size{Width: request.CardWidth, Height: request.CardHeight}

	type placement struct {
		Word string  `json:"word"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
	}

	placements := make([]placement, 0, len(scene.Words))
	existing := make([]layout.Rect, 0, len(scene.Words))
	for _, word := range scene.Words {
		p := layout.PlaceCard(word.Position(), imageSize, cardSize, existing)
		existing = append(existing, layout.CenteredRect(p, cardSize))
		placements = append(placements, placement{Word: word.Word, X: p.X, Y: p.Y})
	}

	h.writeJSON(w, placements)
}

func (h *Handler) handleUpdateWordPosition(w http.ResponseWriter, r *http.Request) {
	word := mux.Vars(r)["word"]

	var request struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !h.scenes.UpdateWordPosition(word, models.Point{X: request.X, Y: request.Y}) {
		h.writeError(w, "Word not found in any scene", http.StatusNotFound)
		return
	}
	h.writeJSON(w, map[string]any{"word": word, "updated": true})
}
