package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultPath = "config/config.toml"

	DefaultTemperature float32 = 0.1
)

type ConsistencyPrompts struct {
	System string `toml:"system"`
	User   string `toml:"user"`
}

// ReasoningConfig holds the credentials and models of the consistency
// providers. The first provider with an API key wins: Gemini, Anthropic, OpenAI.
type ReasoningConfig struct {
	GeminiAPIKey    string `toml:"gemini_api_key"`
	GeminiModel     string `toml:"gemini_model"`
	AnthropicAPIKey string `toml:"anthropic_api_key"`
	AnthropicModel  string `toml:"anthropic_model"`
	OpenAIAPIKey    string `toml:"openai_api_key"`
	OpenAIModel     string `toml:"openai_model"`
	BaseURL         string `toml:"base_url"`
	// Temperature is a pointer so that an explicit 0 survives defaulting.
	Temperature    *float32 `toml:"temperature"`
	MaxTokens      int      `toml:"max_tokens"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

func (r ReasoningConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

type EmbeddingConfig struct {
	// Provider is one of "onnx", "openai", "gemini" or "ollama".
	Provider      string `toml:"provider"`
	Model         string `toml:"model"`
	APIKey        string `toml:"api_key"`
	BaseURL       string `toml:"base_url"`
	OrtLibrary    string `toml:"ort_library"`
	ModelPath     string `toml:"model_path"`
	TokenizerPath string `toml:"tokenizer_path"`
	MaxSeqLen     int    `toml:"max_seq_len"`
	Dimensions    int    `toml:"dimensions"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type StoreConfig struct {
	// Backend is "sqlite" or "memgraph".
	Backend    string `toml:"backend"`
	SQLitePath string `toml:"sqlite_path"`
	// IndexPath is the SQLite file backing the vector index; empty keeps it in memory.
	IndexPath string `toml:"index_path"`
}

type IngestConfig struct {
	TopK             int    `toml:"top_k"`
	DefaultFramework string `toml:"default_framework"`
}

type ServerConfig struct {
	Port           string   `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Reasoning   ReasoningConfig    `toml:"reasoning"`
	Embedding   EmbeddingConfig    `toml:"embedding"`
	Memgraph    MemgraphConfig     `toml:"memgraph"`
	Store       StoreConfig        `toml:"store"`
	Ingest      IngestConfig       `toml:"ingest"`
	Server      ServerConfig       `toml:"server"`
	Logging     LoggingConfig      `toml:"logging"`
	Consistency ConsistencyPrompts `toml:"consistency"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadOrDefault loads path and falls back to defaults when the file does not
// exist. Environment overrides are applied in both cases.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}
	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when set.
func (c *Config) ApplyEnv() {
	setString(&c.Reasoning.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.Reasoning.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&c.Reasoning.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.Reasoning.BaseURL, "LLM_BASE_URL")
	setString(&c.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&c.Embedding.Model, "EMBEDDING_MODEL")
	setString(&c.Embedding.APIKey, "EMBEDDING_API_KEY")
	setString(&c.Memgraph.URI, "MEMGRAPH_URI")
	setString(&c.Memgraph.User, "MEMGRAPH_USER")
	setString(&c.Memgraph.Password, "MEMGRAPH_PASSWORD")
	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.SQLitePath, "SQLITE_PATH")
	setString(&c.Server.Port, "PORT")
	setString(&c.Logging.Level, "LOG_LEVEL")
	if v := os.Getenv("INGEST_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			c.Ingest.TopK = k
		}
	}
}

// ApplyDefaults populates zero values.
func (c *Config) ApplyDefaults() {
	if c.Reasoning.GeminiModel == "" {
		c.Reasoning.GeminiModel = "gemini-2.5-flash"
	}
	if c.Reasoning.AnthropicModel == "" {
		c.Reasoning.AnthropicModel = "claude-sonnet-4-20250514"
	}
	if c.Reasoning.OpenAIModel == "" {
		c.Reasoning.OpenAIModel = "gpt-4o-mini"
	}
	if c.Reasoning.Temperature == nil {
		t := DefaultTemperature
		c.Reasoning.Temperature = &t
	}
	if c.Reasoning.MaxTokens <= 0 {
		c.Reasoning.MaxTokens = 1024
	}
	if c.Reasoning.TimeoutSeconds <= 0 {
		c.Reasoning.TimeoutSeconds = 30
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "onnx"
	}
	if c.Embedding.MaxSeqLen <= 0 {
		c.Embedding.MaxSeqLen = 256
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.ModelPath == "" {
		c.Embedding.ModelPath = "models/all-MiniLM-L6-v2/model.onnx"
	}
	if c.Embedding.TokenizerPath == "" {
		c.Embedding.TokenizerPath = "models/all-MiniLM-L6-v2/tokenizer.json"
	}
	if c.Memgraph.URI == "" {
		c.Memgraph.URI = "bolt://localhost:7687"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "data/consistency.db"
	}
	if c.Ingest.TopK <= 0 {
		c.Ingest.TopK = 5
	}
	if c.Ingest.DefaultFramework == "" {
		c.Ingest.DefaultFramework = "agency"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
