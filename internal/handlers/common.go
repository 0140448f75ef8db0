package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/snapvocab/snapvocab/internal/config"
	"github.com/snapvocab/snapvocab/internal/learning"
	"github.com/snapvocab/snapvocab/internal/queue"
	"github.com/snapvocab/snapvocab/internal/store"
	"github.com/snapvocab/snapvocab/internal/words"
)

// Handler bundles the stores and services behind the HTTP API.
type Handler struct {
	scenes   *store.SceneStore
	images   *store.ImageStore
	index    *words.Index
	queue    *queue.Queue
	learning *learning.Manager
	config   *config.Manager
}

// New wires a handler to its collaborators.
func New(scenes *store.SceneStore, images *store.ImageStore, index *words.Index, q *queue.Queue, lm *learning.Manager, cfg *config.Manager) *Handler {
	return &Handler{
		scenes:   scenes,
		images:   images,
		index:    index,
		queue:    q,
		learning: lm,
		config:   cfg,
	}
}

// Router builds the API routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthcheck", h.handleHealthcheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/scenes", h.handleListScenes).Methods("GET")
	api.HandleFunc("/scenes/{id}", h.handleGetScene).Methods("GET")
	api.HandleFunc("/scenes/{id}", h.handleDeleteScene).Methods("DELETE")
	api.HandleFunc("/scenes/{id}/image", h.handleSceneImage).Methods("GET")
	api.HandleFunc("/scenes/{id}/layout", h.handleSceneLayout).Methods("POST")

	api.HandleFunc("/words", h.handleListWords).Methods("GET")
	api.HandleFunc("/words/{word}/favorite", h.handleToggleFavorite).Methods("POST")
	api.HandleFunc("/words/{word}/position", h.handleUpdateWordPosition).Methods("PUT")

	api.HandleFunc("/tasks", h.handleSubmitTask).Methods("POST")
	api.HandleFunc("/tasks", h.handleListTasks).Methods("GET")
	api.HandleFunc("/tasks/{id}/retry", h.handleRetryTask).Methods("POST")
	api.HandleFunc("/tasks/{id}", h.handleDeleteTask).Methods("DELETE")

	api.HandleFunc("/learning/tasks", h.handleGenerateLearningTask).Methods("POST")
	api.HandleFunc("/learning/tasks", h.handleListLearningTasks).Methods("GET")
	api.HandleFunc("/learning/tasks/{taskId}/words/{wordId}", h.handleUpdateWordStatus).Methods("PUT")
	api.HandleFunc("/learning/tasks/{id}/record", h.handleRecordLearning).Methods("POST")
	api.HandleFunc("/learning/tasks/{id}", h.handleDeleteLearningTask).Methods("DELETE")
	api.HandleFunc("/learning/records", h.handleListLearningRecords).Methods("GET")
	api.HandleFunc("/learning/settings", h.handleGetLearningSettings).Methods("GET")
	api.HandleFunc("/learning/settings", h.handlePutLearningSettings).Methods("PUT")

	api.HandleFunc("/config", h.handleGetConfig).Methods("GET")
	api.HandleFunc("/config", h.handlePutConfig).Methods("PUT")

	return r
}

func (h *Handler) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
