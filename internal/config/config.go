// ABOUTME: Centralized configuration for the study agent
// ABOUTME: Loads from environment variables and an optional YAML vocabulary file
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// History backends
const (
	HistoryJSON   = "json"
	HistorySQLite = "sqlite"
	HistoryCharm  = "charm"
)

// Config holds all configuration for the study agent
type Config struct {
	// OpenAI-compatible API settings
	OpenAIKey      string
	OpenAIBaseURL  string
	ChatModel      string
	DocModel       string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Paths
	DataDir   string
	PDFDir    string
	VocabFile string

	// History settings
	HistoryBackend string
	HistoryBudget  int

	// Retrieval and search
	ScoreThreshold float64
	TopK           int
	WebResults     int

	// Charm settings
	CharmHost   string
	CharmDBName string
	AutoSync    bool

	LogLevel string

	// Router vocabulary overrides; empty fields keep the built-in defaults
	Vocabulary Vocabulary
}

// Vocabulary overrides the phrases the router matches on
type Vocabulary struct {
	FreshnessKeywords []string `yaml:"freshness_keywords"`
	NotFoundSentinel  string   `yaml:"not_found_sentinel"`
	UncertainPhrase   string   `yaml:"uncertain_phrase"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	dataDir := getEnv("STUDY_DATA_DIR", filepath.Join(xdg.DataHome, "study-agent"))

	cfg := &Config{
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		ChatModel:      getEnv("STUDY_CHAT_MODEL", "gpt-4o-mini"),
		DocModel:       getEnv("STUDY_DOC_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("STUDY_EMBEDDING_MODEL", "text-embedding-3-small"),
		Timeout:        getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:     getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:     getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		DataDir:        dataDir,
		PDFDir:         getEnv("STUDY_PDF_DIR", filepath.Join(dataDir, "pdfs")),
		VocabFile:      getEnv("STUDY_VOCAB_FILE", filepath.Join(dataDir, "vocabulary.yaml")),
		HistoryBackend: strings.ToLower(getEnv("STUDY_HISTORY_BACKEND", HistoryJSON)),
		HistoryBudget:  getEnvInt("STUDY_HISTORY_BUDGET", 12000),
		ScoreThreshold: getEnvFloat("STUDY_SCORE_THRESHOLD", 0.5),
		TopK:           getEnvInt("STUDY_TOP_K", 3),
		WebResults:     getEnvInt("STUDY_WEB_RESULTS", 4),
		CharmHost:      getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:    getEnv("CHARM_DB", "study-agent"),
		AutoSync:       getEnvBool("CHARM_AUTO_SYNC", true),
		LogLevel:       getEnv("STUDY_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	vocab, err := LoadVocabulary(cfg.VocabFile)
	if err != nil {
		return cfg, err
	}
	cfg.Vocabulary = vocab

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("STUDY_SCORE_THRESHOLD must be 0-1, got %f", c.ScoreThreshold)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("STUDY_TOP_K must be positive, got %d", c.TopK)
	}
	if c.WebResults <= 0 {
		return fmt.Errorf("STUDY_WEB_RESULTS must be positive, got %d", c.WebResults)
	}
	if c.HistoryBudget <= 0 {
		return fmt.Errorf("STUDY_HISTORY_BUDGET must be positive, got %d", c.HistoryBudget)
	}
	switch c.HistoryBackend {
	case HistoryJSON, HistorySQLite, HistoryCharm:
	default:
		return fmt.Errorf("STUDY_HISTORY_BACKEND must be json, sqlite or charm, got %q", c.HistoryBackend)
	}
	return nil
}

// RequireAPIKey returns an error when no API key is configured
func (c *Config) RequireAPIKey() error {
	if c.OpenAIKey == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}
	return nil
}

// HistoryPath returns the JSON history file location
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "user_history.json")
}

// HistoryDBPath returns the SQLite history database location
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// IndexPath returns the document index location
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "index.db")
}

// LoadVocabulary reads router vocabulary overrides from a YAML file.
// A missing file yields an empty Vocabulary.
func LoadVocabulary(path string) (Vocabulary, error) {
	var vocab Vocabulary

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return vocab, nil
		}
		return vocab, fmt.Errorf("reading vocabulary file: %w", err)
	}

	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return vocab, fmt.Errorf("parsing vocabulary file %s: %w", path, err)
	}

	for i, k := range vocab.FreshnessKeywords {
		vocab.FreshnessKeywords[i] = strings.ToLower(strings.TrimSpace(k))
	}
	return vocab, nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
