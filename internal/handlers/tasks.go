package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

// maxUploadBytes limits a submitted photo to 10MB.
const maxUploadBytes = 10 * 1024 * 1024

func (h *Handler) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("files")
	if err != nil {
		file, _, err = r.FormFile("file")
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	assetID := r.FormValue("asset_id")

	fileData, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(fileData) == 0 {
		h.writeError(w, "Empty image upload", http.StatusBadRequest)
		return
	}
	if len(fileData) >= maxUploadBytes {
		h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
		return
	}

	task := h.queue.Submit(fileData, assetID)

	h.writeJSON(w, map[string]any{
		"task_id": task.ID,
		"status":  task.Status,
		"message": "Image queued for analysis",
	})
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.queue.Tasks())
}

func (h *Handler) handleRetryTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.queue.Retry(id) {
		h.writeError(w, "No failed task with that id", http.StatusNotFound)
		return
	}
	h.writeJSON(w, map[string]any{"task_id": id, "status": "waiting"})
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.queue.Delete(id) {
		h.writeError(w, "Task not found or still processing", http.StatusNotFound)
		return
	}
	h.writeJSON(w, map[string]any{"deleted": id})
}
