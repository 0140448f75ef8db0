// Package config holds the AI provider configuration and user-facing
// settings. Defaults come from an optional YAML file plus environment
// variables; runtime changes made through the API are persisted to the
// blob store and win over the file on the next start.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/snapvocab/snapvocab/internal/store"
	"gopkg.in/yaml.v3"
)

// Provider selects which analysis backend handles submitted images.
type Provider string

const (
	ProviderKimi   Provider = "kimi"
	ProviderGemini Provider = "gemini"
)

// EnglishLevel is the learner's target proficiency; it parameterizes
// the analysis prompt.
type EnglishLevel string

const (
	LevelCET4  EnglishLevel = "cet4"
	LevelCET6  EnglishLevel = "cet6"
	LevelIELTS EnglishLevel = "ielts"
	LevelTOEFL EnglishLevel = "toefl"
	LevelGRE   EnglishLevel = "gre"
)

// Description returns the level name used inside the analysis prompt.
func (l EnglishLevel) Description() string {
	switch l {
	case LevelCET6:
		return "CET-6"
	case LevelIELTS:
		return "IELTS"
	case LevelTOEFL:
		return "TOEFL"
	case LevelGRE:
		return "GRE"
	default:
		return "CET-4"
	}
}

// ParseEnglishLevel maps a string to a level, defaulting to CET-4.
func ParseEnglishLevel(s string) EnglishLevel {
	switch EnglishLevel(s) {
	case LevelCET6, LevelIELTS, LevelTOEFL, LevelGRE:
		return EnglishLevel(s)
	default:
		return LevelCET4
	}
}

// ModelAPIKeys holds one key per provider.
type ModelAPIKeys struct {
	Kimi   string `json:"kimi" yaml:"kimi"`
	Gemini string `json:"gemini" yaml:"gemini"`
}

// ModelConfig is the runtime-editable AI configuration.
type ModelConfig struct {
	Provider     Provider     `json:"provider" yaml:"provider"`
	APIKeys      ModelAPIKeys `json:"api_keys" yaml:"api_keys"`
	EnglishLevel EnglishLevel `json:"english_level" yaml:"english_level"`
}

// APIKey returns the key for the active provider.
func (c ModelConfig) APIKey() string {
	switch c.Provider {
	case ProviderGemini:
		return c.APIKeys.Gemini
	default:
		return c.APIKeys.Kimi
	}
}

const configKey = "ai_model_config"

// File is the on-disk bootstrap configuration.
type File struct {
	Model       ModelConfig `yaml:"model"`
	KimiBaseURL string      `yaml:"kimi_base_url"`
	DataDir     string      `yaml:"data_dir"`
}

// LoadFile reads the YAML config at path. A missing file yields
// defaults; environment variables override file values.
func LoadFile(path string) (File, error) {
	f := File{
		Model: ModelConfig{
			Provider:     ProviderKimi,
			EnglishLevel: LevelCET4,
		},
		KimiBaseURL: "https://kimi.moonshot.cn",
		DataDir:     "data",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return f, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &f); err != nil {
				return f, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if v := os.Getenv("SNAPVOCAB_PROVIDER"); v != "" {
		f.Model.Provider = Provider(v)
	}
	if v := os.Getenv("KIMI_API_KEY"); v != "" {
		f.Model.APIKeys.Kimi = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		f.Model.APIKeys.Gemini = v
	}
	if v := os.Getenv("KIMI_BASE_URL"); v != "" {
		f.KimiBaseURL = v
	}
	if v := os.Getenv("SNAPVOCAB_DATA_DIR"); v != "" {
		f.DataDir = v
	}
	if v := os.Getenv("SNAPVOCAB_ENGLISH_LEVEL"); v != "" {
		f.Model.EnglishLevel = ParseEnglishLevel(v)
	}

	return f, nil
}

// Manager serves the current model configuration and persists updates.
type Manager struct {
	mu    sync.Mutex
	cfg   ModelConfig
	blobs *store.BlobStore
}

// NewManager loads the persisted configuration, falling back to the
// given defaults when nothing is stored yet.
func NewManager(blobs *store.BlobStore, defaults ModelConfig) *Manager {
	m := &Manager{cfg: defaults, blobs: blobs}

	data, err := blobs.Get(configKey)
	if err != nil {
		slog.Error("Failed to load model config, using defaults", "err", err)
		return m
	}
	if data == nil {
		return m
	}
	var saved ModelConfig
	if err := json.Unmarshal(data, &saved); err != nil {
		slog.Error("Failed to decode model config, using defaults", "err", err)
		return m
	}
	// Keys provided through the environment win over stale stored keys.
	if saved.APIKeys.Kimi == "" {
		saved.APIKeys.Kimi = defaults.APIKeys.Kimi
	}
	if saved.APIKeys.Gemini == "" {
		saved.APIKeys.Gemini = defaults.APIKeys.Gemini
	}
	m.cfg = saved
	return m
}

// Current returns the active configuration.
func (m *Manager) Current() ModelConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Update replaces the configuration and persists it.
func (m *Manager) Update(cfg ModelConfig) {
	cfg.EnglishLevel = ParseEnglishLevel(string(cfg.EnglishLevel))
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()

	data, err := json.Marshal(cfg)
	if err != nil {
		slog.Error("Failed to encode model config", "err", err)
		return
	}
	if err := m.blobs.Put(configKey, data); err != nil {
		slog.Error("Failed to persist model config", "err", err)
	}
}
