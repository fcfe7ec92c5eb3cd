package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "LLM_BASE_URL",
	"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "EMBEDDING_API_KEY",
	"MEMGRAPH_URI", "MEMGRAPH_USER", "MEMGRAPH_PASSWORD",
	"STORE_BACKEND", "SQLITE_PATH", "PORT", "LOG_LEVEL", "INGEST_TOP_K",
}

func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_RepoConfig(t *testing.T) {
	cfg, err := Load("../../config/config.toml")
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.Reasoning.GeminiModel)
	assert.Equal(t, 30*time.Second, cfg.Reasoning.Timeout())
	assert.Equal(t, "onnx", cfg.Embedding.Provider)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, 5, cfg.Ingest.TopK)
	assert.Equal(t, "agency", cfg.Ingest.DefaultFramework)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Consistency.System)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[reasoning\n"), 0644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse TOML")
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 1024, cfg.Reasoning.MaxTokens)
	assert.Equal(t, "bolt://localhost:7687", cfg.Memgraph.URI)
}

func TestLoadOrDefault_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("STORE_BACKEND", "memgraph")
	t.Setenv("PORT", "9999")
	t.Setenv("INGEST_TOP_K", "7")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = \"1234\"\n[ingest]\ntop_k = 2\n"), 0644))

	cfg, err := LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Reasoning.AnthropicAPIKey)
	assert.Equal(t, "memgraph", cfg.Store.Backend)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Ingest.TopK)
}

func TestLoadOrDefault_BadTopKIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("INGEST_TOP_K", "many")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Ingest.TopK)
}

func TestLoad_Temperature(t *testing.T) {
	dir := t.TempDir()

	zero := filepath.Join(dir, "zero.toml")
	require.NoError(t, os.WriteFile(zero, []byte("[reasoning]\ntemperature = 0.0\n"), 0644))
	cfg, err := Load(zero)
	require.NoError(t, err)
	require.NotNil(t, cfg.Reasoning.Temperature)
	assert.Equal(t, float32(0), *cfg.Reasoning.Temperature)

	unset := filepath.Join(dir, "unset.toml")
	require.NoError(t, os.WriteFile(unset, []byte("[reasoning]\nmax_tokens = 64\n"), 0644))
	cfg, err = Load(unset)
	require.NoError(t, err)
	require.NotNil(t, cfg.Reasoning.Temperature)
	assert.Equal(t, DefaultTemperature, *cfg.Reasoning.Temperature)
}
