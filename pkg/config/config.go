package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Riskline configuration.
type Config struct {
	Listen      string          `yaml:"listen"`
	DBPath      string          `yaml:"db_path"`
	FrontendURL string          `yaml:"frontend_url"`
	Model       ModelConfig     `yaml:"model"`
	Budget      BudgetConfig    `yaml:"budget"`
	Cache       CacheConfig     `yaml:"cache"`
	Documents   DocumentsConfig `yaml:"documents"`
}

// ModelConfig defines the upstream text-generation service.
type ModelConfig struct {
	ID           string        `yaml:"id"`
	URL          string        `yaml:"url"`
	APIKey       string        `yaml:"api_key"`
	MaxNewTokens int           `yaml:"max_new_tokens"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"max_attempts"`
	BackoffBase  time.Duration `yaml:"backoff_base"`
}

// BudgetConfig controls spend admission.
type BudgetConfig struct {
	USD          float64 `yaml:"usd"`
	CostPer1KUSD float64 `yaml:"cost_per_1k_usd"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled     bool          `yaml:"enabled"`
	ModelTTL    time.Duration `yaml:"model_ttl"`
	FallbackTTL time.Duration `yaml:"fallback_ttl"`
}

// DocumentsConfig controls document chunking and retrieval.
type DocumentsConfig struct {
	ChunkWords      int `yaml:"chunk_words"`
	ChunkOverlap    int `yaml:"chunk_overlap"`
	TopK            int `yaml:"top_k"`
	MaxExcerptChars int `yaml:"max_excerpt_chars"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:      ":8080",
		DBPath:      "riskline.db",
		FrontendURL: "http://localhost:3000",
		Model: ModelConfig{
			ID:           "ibm/granite-3-2-8b-instruct",
			URL:          "https://us-south.ml.cloud.ibm.com",
			MaxNewTokens: 300,
			Temperature:  0.3,
			Timeout:      30 * time.Second,
			MaxAttempts:  3,
			BackoffBase:  500 * time.Millisecond,
		},
		Budget: BudgetConfig{
			USD:          250.0,
			CostPer1KUSD: 0.0001,
		},
		Cache: CacheConfig{
			Enabled:     true,
			ModelTTL:    time.Hour,
			FallbackTTL: 5 * time.Minute,
		},
		Documents: DocumentsConfig{
			ChunkWords:      400,
			ChunkOverlap:    40,
			TopK:            3,
			MaxExcerptChars: 4000,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
