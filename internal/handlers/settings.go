package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/snapvocab/snapvocab/internal/config"
)

// redactedConfig mirrors ModelConfig but reports only whether keys are
// set, never the keys themselves.
type redactedConfig struct {
	Provider     config.Provider     `json:"provider"`
	EnglishLevel config.EnglishLevel `json:"english_level"`
	KimiKeySet   bool                `json:"kimi_key_set"`
	GeminiKeySet bool                `json:"gemini_key_set"`
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.config.Current()
	h.writeJSON(w, redactedConfig{
		Provider:     cfg.Provider,
		EnglishLevel: cfg.EnglishLevel,
		KimiKeySet:   cfg.APIKeys.Kimi != "",
		GeminiKeySet: cfg.APIKeys.Gemini != "",
	})
}

func (h *Handler) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Provider     *config.Provider     `json:"provider"`
		EnglishLevel *config.EnglishLevel `json:"english_level"`
		KimiAPIKey   *string              `json:"kimi_api_key"`
		GeminiAPIKey *string              `json:"gemini_api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	cfg := h.config.Current()
	if request.Provider != nil {
		switch *request.Provider {
		case config.ProviderKimi, config.ProviderGemini:
			cfg.Provider = *request.Provider
		default:
			h.writeError(w, "Unsupported provider", http.StatusBadRequest)
			return
		}
	}
	if request.EnglishLevel != nil {
		cfg.EnglishLevel = config.ParseEnglishLevel(string(*request.EnglishLevel))
	}
	if request.KimiAPIKey != nil {
		cfg.APIKeys.Kimi = *request.KimiAPIKey
	}
	if request.GeminiAPIKey != nil {
		cfg.APIKeys.Gemini = *request.GeminiAPIKey
	}
	h.config.Update(cfg)

	h.handleGetConfig(w, r)
}
