// Package config loads application configuration from a YAML file and
// TEAMTALKS_* environment variables. Viper is confined to this package: the
// rest of the application receives a plain Config struct, so no other code
// reads configuration ambiently.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Index backend names accepted in the configuration.
const (
	IndexBackendNone     = "none"
	IndexBackendPinecone = "pinecone"
	IndexBackendSQLite   = "sqlite"
)

// Config is the fully resolved application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Index     IndexConfig     `mapstructure:"index"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig locates the question record directory.
type StoreConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// EmbeddingConfig configures the embedding API client.
type EmbeddingConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	Dimension int           `mapstructure:"dimension"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Backend      string        `mapstructure:"backend"` // none, pinecone, sqlite
	BatchSize    int           `mapstructure:"batch_size"`
	PineconeHost string        `mapstructure:"pinecone_host"`
	PineconeKey  string        `mapstructure:"pinecone_api_key"`
	SQLitePath   string        `mapstructure:"sqlite_path"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from cfgFile (or the default search path when
// empty), applies environment overrides, and validates the result. A missing
// config file is fine; the defaults plus environment carry a full setup.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("store.data_dir", "data")
	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimension", 1536)
	v.SetDefault("embedding.timeout", 30*time.Second)
	v.SetDefault("index.backend", IndexBackendNone)
	v.SetDefault("index.batch_size", 100)
	v.SetDefault("index.sqlite_path", "data/vectors.db")
	v.SetDefault("index.timeout", 30*time.Second)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("knowledgebase")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "knowledgebase"))
		}
	}

	// TEAMTALKS_INDEX_BACKEND=pinecone overrides index.backend, etc.
	v.SetEnvPrefix("TEAMTALKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Store.DataDir == "" {
		return fmt.Errorf("store.data_dir is required")
	}

	switch c.Index.Backend {
	case IndexBackendNone:
	case IndexBackendPinecone:
		if c.Index.PineconeHost == "" {
			return fmt.Errorf("index.pinecone_host is required for the pinecone backend")
		}
		if c.Index.PineconeKey == "" {
			return fmt.Errorf("index.pinecone_api_key is required for the pinecone backend")
		}
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required when indexing is enabled")
		}
	case IndexBackendSQLite:
		if c.Index.SQLitePath == "" {
			return fmt.Errorf("index.sqlite_path is required for the sqlite backend")
		}
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required when indexing is enabled")
		}
	default:
		return fmt.Errorf("index.backend %q is not one of none, pinecone, sqlite", c.Index.Backend)
	}

	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive")
	}
	return nil
}

// IndexingEnabled reports whether a vector index backend is configured.
func (c *Config) IndexingEnabled() bool {
	return c.Index.Backend != IndexBackendNone
}
