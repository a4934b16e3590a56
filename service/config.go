package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/scy/cred/secret"
	"github.com/viant/vecdemo/schema"
	"gopkg.in/yaml.v3"
)

// Config defines a run: where records come from, how they are embedded and where they are stored.
type Config struct {
	Store       StoreConfig        `yaml:"store"`
	Embedder    EmbedderConfig     `yaml:"embedder"`
	Dataset     DatasetConfig      `yaml:"dataset"`
	Collection  *schema.Collection `yaml:"collection,omitempty"`
	Queries     []QuerySpec        `yaml:"queries,omitempty"`
	PushGateway string             `yaml:"pushGateway,omitempty"`
}

// StoreConfig defines vector store settings.
type StoreConfig struct {
	Kind   string `yaml:"kind"` // qdrant|weaviate|sqlite
	Host   string `yaml:"host,omitempty"`
	Port   int    `yaml:"port,omitempty"`
	Scheme string `yaml:"scheme,omitempty"`
	TLS    bool   `yaml:"tls,omitempty"`
	APIKey string `yaml:"apiKey,omitempty"`
	DSN    string `yaml:"dsn,omitempty"`
	Secret string `yaml:"secret,omitempty"`
}

// EmbedderConfig defines embedding model settings.
type EmbedderConfig struct {
	Kind      string `yaml:"kind"` // ollama|openai|vertexai|simple
	Model     string `yaml:"model,omitempty"`
	BaseURL   string `yaml:"baseURL,omitempty"`
	APIKey    string `yaml:"apiKey,omitempty"`
	Secret    string `yaml:"secret,omitempty"`
	Project   string `yaml:"project,omitempty"`
	Location  string `yaml:"location,omitempty"`
	Dimension int    `yaml:"dimension,omitempty"`
	BatchSize int    `yaml:"batchSize,omitempty"`
	CacheURL  string `yaml:"cacheURL,omitempty"`
}

// DatasetConfig defines the record source.
type DatasetConfig struct {
	Kind    string            `yaml:"kind"` // faker|tabular|sql
	Count   int               `yaml:"count,omitempty"`
	Seed    uint64            `yaml:"seed,omitempty"`
	Path    string            `yaml:"path,omitempty"`
	Columns map[string]string `yaml:"columns,omitempty"`
	Limit   int               `yaml:"limit,omitempty"`
	Driver  string            `yaml:"driver,omitempty"`
	DSN     string            `yaml:"dsn,omitempty"`
	Query   string            `yaml:"query,omitempty"`
	Secret  string            `yaml:"secret,omitempty"`
	// TextField names the embedded field; empty uses the scenario default.
	TextField string `yaml:"textField,omitempty"`
	// Fixtures are appended to generated records.
	Fixtures []schema.Record `yaml:"fixtures,omitempty"`
}

// LoadConfig reads a YAML config, expanding ~ paths and secret placeholders.
func LoadConfig(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.expand(context.Background()); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) expand(ctx context.Context) error {
	var err error
	if c.Store.DSN, err = expandStoreDSN(c.Store.DSN, c.Store.Kind); err != nil {
		return err
	}
	if c.Store.Secret != "" {
		if c.Store.APIKey, err = ExpandWithSecret(ctx, c.Store.APIKey, c.Store.Secret); err != nil {
			return fmt.Errorf("store secret: %w", err)
		}
	}
	if c.Embedder.Secret != "" {
		if c.Embedder.APIKey, err = ExpandWithSecret(ctx, c.Embedder.APIKey, c.Embedder.Secret); err != nil {
			return fmt.Errorf("embedder secret: %w", err)
		}
	}
	if c.Embedder.CacheURL, err = expandUserPath(c.Embedder.CacheURL); err != nil {
		return err
	}
	if c.Dataset.Path, err = expandUserPath(c.Dataset.Path); err != nil {
		return err
	}
	if c.Dataset.DSN, err = expandStoreDSN(c.Dataset.DSN, c.Dataset.Driver); err != nil {
		return err
	}
	if c.Dataset.Secret != "" {
		if c.Dataset.DSN, err = ExpandWithSecret(ctx, c.Dataset.DSN, c.Dataset.Secret); err != nil {
			return fmt.Errorf("dataset secret: %w", err)
		}
	}
	return nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	return filepath.Join(home, trimmed[2:]), nil
}

func expandStoreDSN(dsn, driver string) (string, error) {
	if dsn == "" {
		return dsn, nil
	}
	// Expand user path only for sqlite-like DSNs or plain paths.
	if driver == "sqlite" || dsn[0] == '~' || dsn[0] == '/' {
		return expandUserPath(dsn)
	}
	return dsn, nil
}

// ExpandWithSecret loads a secret and expands its placeholders (e.g. ${Password}) in value.
// An empty value takes the secret's password.
func ExpandWithSecret(ctx context.Context, value, secretRef string) (string, error) {
	secretRef = strings.TrimSpace(secretRef)
	if secretRef == "" {
		return value, nil
	}
	svc := secret.New()
	sec, err := svc.Lookup(ctx, secret.Resource(secretRef))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		value = "${Password}"
	}
	return sec.Expand(value), nil
}
