package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener and session settings.
type ServerConfig struct {
	Listen         string   `yaml:"listen"`
	JWTSecretEnv   string   `yaml:"jwt_secret_env"`
	SessionTTLMins int      `yaml:"session_ttl_mins"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GoogleConfig holds OAuth client settings for the Drive source.
// Client id and secret are referenced by environment variable name.
type GoogleConfig struct {
	ClientIDEnv     string  `yaml:"client_id_env"`
	ClientSecretEnv string  `yaml:"client_secret_env"`
	RedirectURL     string  `yaml:"redirect_url"`
	RequestsPerSec  float64 `yaml:"requests_per_sec"`
	Burst           int     `yaml:"burst"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// PineconeConfig contains connection details for a Pinecone index.
type PineconeConfig struct {
	IndexURL    string `yaml:"index_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Namespace   string `yaml:"namespace"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorIndexConfig selects and configures the vector index implementation.
// Dimension applies to every implementation; mixing dimensions is an error.
type VectorIndexConfig struct {
	Type      string          `yaml:"type"`
	Dimension int             `yaml:"dimension"`
	Pinecone  *PineconeConfig `yaml:"pinecone,omitempty"`
}

// SearchConfig tunes the retrieval path.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// IngestConfig tunes the ingestion path.
type IngestConfig struct {
	Workers int `yaml:"workers"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Google      GoogleConfig      `yaml:"google"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorIndex VectorIndexConfig `yaml:"vector_index"`
	Search      SearchConfig      `yaml:"search"`
	Ingest      IngestConfig      `yaml:"ingest"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Server:      ServerConfig{Listen: ":5000"},
		Embedder:    EmbedderConfig{Type: "openai"},
		VectorIndex: VectorIndexConfig{Type: "memory"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":5000"
	}
	if cfg.Server.JWTSecretEnv == "" {
		cfg.Server.JWTSecretEnv = "SESSION_SECRET"
	}
	if cfg.Server.SessionTTLMins == 0 {
		cfg.Server.SessionTTLMins = 60
	}
	if cfg.Google.ClientIDEnv == "" {
		cfg.Google.ClientIDEnv = "GOOGLE_CLIENT_ID"
	}
	if cfg.Google.ClientSecretEnv == "" {
		cfg.Google.ClientSecretEnv = "GOOGLE_CLIENT_SECRET"
	}
	if cfg.Google.RedirectURL == "" {
		cfg.Google.RedirectURL = "http://localhost:5000/auth/google/callback"
	}
	if cfg.Google.RequestsPerSec == 0 {
		// Google allows 10 Drive requests/sec/user; stay under it
		cfg.Google.RequestsPerSec = 8
	}
	if cfg.Google.Burst == 0 {
		cfg.Google.Burst = 10
	}
	if cfg.Embedder.Type == "openai" || cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.VectorIndex.Type == "" {
		cfg.VectorIndex.Type = "memory"
	}
	if cfg.VectorIndex.Dimension == 0 {
		cfg.VectorIndex.Dimension = 1536
	}
	if cfg.VectorIndex.Type == "pinecone" && cfg.VectorIndex.Pinecone != nil {
		if cfg.VectorIndex.Pinecone.APIKeyEnv == "" {
			cfg.VectorIndex.Pinecone.APIKeyEnv = "PINECONE_API_KEY"
		}
		if cfg.VectorIndex.Pinecone.TimeoutSecs == 0 {
			cfg.VectorIndex.Pinecone.TimeoutSecs = 15
		}
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = 4
	}
}
