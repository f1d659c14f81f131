package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, DefaultRatePerMinute, cfg.RatePerMinute)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultLLMModel, cfg.LLMModel)
	assert.Equal(t, DefaultEmbeddingModel, cfg.EmbeddingModel)
	assert.Equal(t, DefaultLLMTemperature, cfg.Temperature)
	assert.Equal(t, DefaultLLMMaxTokens, cfg.MaxTokens)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL())
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: 9001
workers: 4
llm_model: gpt-4o
log_level: debug
data_dir: /tmp/mc-test
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "gpt-4o", cfg.LLMModel)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join("/tmp/mc-test", "knowledge"), cfg.KnowledgeDir())
	assert.Equal(t, filepath.Join("/tmp/mc-test", "users.db"), cfg.UserDBPath())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9001"), 0o600))

	t.Setenv("MODELCOST_PORT", "9002")
	t.Setenv("MODELCOST_LOG_LEVEL", "warn")
	t.Setenv("JWT_SECRET_KEY", "testing-secret")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9002, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "testing-secret", cfg.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL())
}

func TestEnvIgnoresUnparseableNumbers(t *testing.T) {
	t.Setenv("MODELCOST_PORT", "not-a-port")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
}
