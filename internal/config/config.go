package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration
type Config struct {
	// Content sources
	Feeds  []FeedConfig  `json:"feeds"`
	Boards []BoardConfig `json:"boards"`

	// Pipeline tuning
	Quality     QualityConfig     `json:"quality"`
	Dedup       DedupConfig       `json:"dedup"`
	Correlation CorrelationConfig `json:"correlation"`
	Importance  ImportanceConfig  `json:"importance"`
	Session     SessionConfig     `json:"session"`

	// AI Models
	Models ModelConfig `json:"models"`
}

// FeedConfig describes one syndicated news feed.
type FeedConfig struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// BoardConfig describes one community-discussion board.
type BoardConfig struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
	MinScore int    `json:"min_score"`
	Limit    int    `json:"limit"`
}

// QualityConfig is the discussion-content quality policy.
type QualityConfig struct {
	MinAccountAgeDays int      `json:"min_account_age_days"`
	MinReputation     int      `json:"min_reputation"`
	MinEngagement     int      `json:"min_engagement"`
	ExcludedKeywords  []string `json:"excluded_keywords"`
	BotHeuristics     bool     `json:"bot_heuristics"`
}

// DedupConfig tunes the duplicate detector.
type DedupConfig struct {
	WindowHours    int     `json:"window_hours"`
	Threshold      float64 `json:"threshold"`
	StripStopWords bool    `json:"strip_stop_words"`
}

// CorrelationConfig tunes cross-source event grouping.
type CorrelationConfig struct {
	WindowHours int     `json:"window_hours"`
	Threshold   float64 `json:"threshold"`
	MaxTerms    int     `json:"max_terms"`
}

// ImportanceConfig tunes the composite importance score.
type ImportanceConfig struct {
	HalfLifeHours   float64            `json:"half_life_hours"`
	CategoryWeights map[string]float64 `json:"category_weights"`
}

// SessionConfig bounds interactive sessions.
type SessionConfig struct {
	MaxContextItems int     `json:"max_context_items"`
	MaxTurns        int     `json:"max_turns"`
	MinImportance   float64 `json:"min_importance"`
}

// ModelConfig holds AI model settings
type ModelConfig struct {
	Claude ModelSettings `json:"claude"`
	Ollama ModelSettings `json:"ollama"`
}

// ModelSettings for a single AI provider
type ModelSettings struct {
	Enabled  bool   `json:"enabled"`
	APIKey   string `json:"api_key,omitempty"`
	Endpoint string `json:"endpoint,omitempty"` // For Ollama or custom endpoints
	Model    string `json:"model,omitempty"`    // Specific model to use
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Feeds:  []FeedConfig{},
		Boards: []BoardConfig{},
		Quality: QualityConfig{
			MinAccountAgeDays: 30,
			MinReputation:     50,
			MinEngagement:     -2,
			ExcludedKeywords:  []string{"lmao", "/s", "this is a joke", "shitpost", "lol", "meme"},
			BotHeuristics:     true,
		},
		Dedup: DedupConfig{
			WindowHours:    72,
			Threshold:      0.90,
			StripStopWords: true,
		},
		Correlation: CorrelationConfig{
			WindowHours: 48,
			Threshold:   0.30,
			MaxTerms:    24,
		},
		Importance: ImportanceConfig{
			HalfLifeHours: 18,
			CategoryWeights: map[string]float64{
				"world_news":   1.2,
				"security":     1.3,
				"tech":         1.0,
				"cutting_edge": 1.1,
				"business":     1.0,
				"sports":       0.8,
			},
		},
		Session: SessionConfig{
			MaxContextItems: 8,
			MaxTurns:        10,
			MinImportance:   0.05,
		},
		Models: ModelConfig{
			Claude: ModelSettings{
				Enabled: true,
				Model:   "claude-sonnet-4-5-20250929",
			},
			Ollama: ModelSettings{
				Enabled:  false,
				Endpoint: "http://localhost:11434",
			},
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".quillstream", "config.json")
}

// DataPath returns the path to the corpus database
func DataPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".quillstream", "corpus.db")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from an explicit path, or returns defaults when the
// file does not exist. A corrupt file is an error rather than a silent reset.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.AutoPopulateFromEnv()

	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to an explicit path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // Restrictive permissions for API keys
}

// AutoPopulateFromEnv fills in API keys from environment variables
func (c *Config) AutoPopulateFromEnv() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && c.Models.Claude.APIKey == "" {
		c.Models.Claude.APIKey = key
		c.Models.Claude.Enabled = true
	}
	if ep := os.Getenv("OLLAMA_ENDPOINT"); ep != "" {
		c.Models.Ollama.Endpoint = ep
		c.Models.Ollama.Enabled = true
	}
}
