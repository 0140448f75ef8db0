package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/snapvocab/snapvocab/internal/models"
)

func (h *Handler) handleGenerateLearningTask(w http.ResponseWriter, r *http.Request) {
	task := h.learning.GenerateDailyTask()
	if task == nil {
		// Either today's task already exists or there are no words yet.
		h.writeJSON(w, map[string]any{
			"created":        false,
			"has_today_task": h.learning.HasTodayTask(),
		})
		return
	}
	h.writeJSON(w, task)
}

func (h *Handler) handleListLearningTasks(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.learning.Tasks())
}

func (h *Handler) handleUpdateWordStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var request struct {
		Status models.WordStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	switch request.Status {
	case models.WordNotLearned, models.WordNeedReview, models.WordMastered:
	default:
		h.writeError(w, "Invalid word status", http.StatusBadRequest)
		return
	}

	if !h.learning.UpdateWordStatus(vars["taskId"], vars["wordId"], request.Status) {
		h.writeError(w, "Learning task or word not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, map[string]any{"updated": true})
}

func (h *Handler) handleRecordLearning(w http.ResponseWriter, r *http.Request) {
	record, ok := h.learning.RecordLearning(mux.Vars(r)["id"])
	if !ok {
		h.writeError(w, "Learning task not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, record)
}

func (h *Handler) handleDeleteLearningTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.learning.DeleteTask(id) {
		h.writeError(w, "Learning task not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, map[string]any{"deleted": id})
}

func (h *Handler) handleListLearningRecords(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.learning.Records())
}

func (h *Handler) handleGetLearningSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.learning.Settings())
}

func (h *Handler) handlePutLearningSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.LearningSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, h.learning.UpdateSettings(settings))
}
