// Package config loads runtime settings from an optional YAML file with
// environment variable overrides on top. Everything has a sensible
// default, so the tool runs with no configuration at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied before the file and environment are consulted.
const (
	DefaultPort            = 8000
	DefaultWorkers         = 2
	DefaultRatePerMinute   = 60
	DefaultLLMModel        = "gpt-4o-mini"
	DefaultEmbeddingModel  = "text-embedding-3-small"
	DefaultLLMTemperature  = 0.3
	DefaultLLMMaxTokens    = 500
	DefaultTokenTTLMinutes = 30
)

// Config is the full runtime configuration.
type Config struct {
	DataDir       string `yaml:"data_dir"`
	Port          int    `yaml:"port"`
	Workers       int    `yaml:"workers"`
	RatePerMinute int    `yaml:"rate_per_minute"`
	LogLevel      string `yaml:"log_level"`

	OpenAIAPIKey   string  `yaml:"openai_api_key"`
	OpenAIBaseURL  string  `yaml:"openai_base_url"`
	LLMModel       string  `yaml:"llm_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float64 `yaml:"llm_temperature"`
	MaxTokens      int     `yaml:"llm_max_tokens"`

	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// DefaultDataDir is where the knowledge base and user database live
// unless overridden.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".modelcost"
	}
	return filepath.Join(home, ".modelcost")
}

// DefaultPath is the config file location consulted by Load when no
// explicit path is given.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load reads configuration in precedence order: defaults, then the YAML
// file at path (missing files are fine), then environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:         DefaultDataDir(),
		Port:            DefaultPort,
		Workers:         DefaultWorkers,
		RatePerMinute:   DefaultRatePerMinute,
		LogLevel:        "info",
		LLMModel:        DefaultLLMModel,
		EmbeddingModel:  DefaultEmbeddingModel,
		Temperature:     DefaultLLMTemperature,
		MaxTokens:       DefaultLLMMaxTokens,
		TokenTTLMinutes: DefaultTokenTTLMinutes,
	}

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MODELCOST_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("MODELCOST_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := os.Getenv("MODELCOST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RatePerMinute = n
		}
	}
	if v := os.Getenv("MODELCOST_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAIBaseURL = v
	}
	if v := os.Getenv("MODELCOST_LLM_MODEL"); v != "" {
		c.LLMModel = v
	}
	if v := os.Getenv("MODELCOST_EMBEDDING_MODEL"); v != "" {
		c.EmbeddingModel = v
	}
	if v := os.Getenv("MODELCOST_LLM_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = f
		}
	}
	if v := os.Getenv("MODELCOST_LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("JWT_ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TokenTTLMinutes = n
		}
	}
}

// TokenTTL returns the access token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// KnowledgeDir is where the vector store persists.
func (c *Config) KnowledgeDir() string {
	return filepath.Join(c.DataDir, "knowledge")
}

// UserDBPath is the SQLite user database location.
func (c *Config) UserDBPath() string {
	return filepath.Join(c.DataDir, "users.db")
}
