package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handler) handleListWords(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.index.All())
}

func (h *Handler) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	word := mux.Vars(r)["word"]
	if !h.index.ToggleFavorite(word) {
		h.writeError(w, "Word not found", http.StatusNotFound)
		return
	}
	updated, _ := h.index.Get(word)
	h.writeJSON(w, updated)
}
