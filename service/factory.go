package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/viant/vecdemo/dataset"
	"github.com/viant/vecdemo/dataset/faker"
	"github.com/viant/vecdemo/dataset/sqlsource"
	"github.com/viant/vecdemo/dataset/tabular"
	"github.com/viant/vecdemo/embeddings"
	"github.com/viant/vecdemo/embeddings/cache"
	"github.com/viant/vecdemo/embeddings/ollama"
	"github.com/viant/vecdemo/embeddings/openai"
	"github.com/viant/vecdemo/embeddings/simple"
	"github.com/viant/vecdemo/embeddings/vertexai"
	"github.com/viant/vecdemo/vectordb"
	"github.com/viant/vecdemo/vectordb/qdrant"
	"github.com/viant/vecdemo/vectordb/sqlitevec"
	"github.com/viant/vecdemo/vectordb/weaviate"
)

// Store kinds.
const (
	StoreQdrant   = "qdrant"
	StoreWeaviate = "weaviate"
	StoreSQLite   = "sqlite"
)

// OpenStore connects to the configured vector store.
func OpenStore(ctx context.Context, cfg StoreConfig) (vectordb.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case StoreQdrant, "":
		opts := []qdrant.Option{qdrant.WithTLS(cfg.TLS), qdrant.WithAPIKey(cfg.APIKey)}
		if cfg.Host != "" {
			opts = append(opts, qdrant.WithHost(cfg.Host))
		}
		if cfg.Port != 0 {
			opts = append(opts, qdrant.WithPort(cfg.Port))
		}
		return qdrant.New(opts...)
	case StoreWeaviate:
		opts := []weaviate.Option{weaviate.WithAPIKey(cfg.APIKey)}
		if cfg.Host != "" {
			host := cfg.Host
			if cfg.Port != 0 {
				host = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
			}
			opts = append(opts, weaviate.WithHost(host))
		}
		if cfg.Scheme != "" {
			opts = append(opts, weaviate.WithScheme(cfg.Scheme))
		}
		return weaviate.New(opts...)
	case StoreSQLite:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("sqlite store: dsn required")
		}
		return sqlitevec.NewStore(ctx, sqlitevec.WithDSN(cfg.DSN))
	}
	return nil, fmt.Errorf("unsupported store kind %q", cfg.Kind)
}

func storeName(store vectordb.Store) string {
	switch store.(type) {
	case *qdrant.Store:
		return qdrant.Name
	case *weaviate.Store:
		return weaviate.Name
	case *sqlitevec.Store:
		return sqlitevec.Name
	}
	return "other"
}

// NewEmbedder builds the configured embedder, wrapped in a cache when CacheURL is set.
// The returned finalizer persists the cache and must be called once the run completes.
func NewEmbedder(ctx context.Context, cfg EmbedderConfig) (embeddings.Embedder, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	var emb embeddings.Embedder
	model := cfg.Model
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "ollama", "":
		if model == "" {
			model = ollama.DefaultModel
		}
		emb = ollama.New(model, cfg.BaseURL)
	case "openai":
		client := openai.NewClient(cfg.APIKey, model)
		if cfg.BaseURL != "" {
			client.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		client.Dimensions = cfg.Dimension
		model = client.Model
		emb = &openai.Embedder{C: client}
	case "vertexai":
		if cfg.Project == "" {
			return nil, nil, fmt.Errorf("vertexai embedder: project required")
		}
		emb = vertexai.NewEmbedder(cfg.Project, model, cfg.Location, cfg.Dimension)
	case "simple":
		dim := cfg.Dimension
		if dim <= 0 {
			dim = DefaultDimension
		}
		model = fmt.Sprintf("simple-%d", dim)
		emb = simple.New(dim)
	default:
		return nil, nil, fmt.Errorf("unsupported embedder kind %q", cfg.Kind)
	}
	if cfg.CacheURL == "" {
		return emb, noop, nil
	}
	cached := cache.New(emb, cfg.Kind+"/"+model, cache.WithURL(cfg.CacheURL))
	if err := cached.Load(ctx); err != nil {
		return nil, nil, err
	}
	return cached, cached.Persist, nil
}

// NewSource builds the configured record source and the text each record is embedded by.
// defaults supplies the scenario's source and text when the config leaves them unset.
// Tabular and sql sources need a text field from either the config or the scenario.
func NewSource(cfg DatasetConfig, defaultKind string, defaultText dataset.TextFunc) (dataset.Source, dataset.TextFunc, error) {
	text := defaultText
	if cfg.TextField != "" {
		text = dataset.Field(cfg.TextField)
	}
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if kind == "" {
		kind = defaultKind
	}
	switch kind {
	case "faker":
		count := cfg.Count
		if count == 0 {
			count = faker.DefaultCount
		}
		seed := cfg.Seed
		if seed == 0 {
			seed = faker.DefaultSeed
		}
		if cfg.TextField == "" {
			text = faker.Text
		}
		return faker.New(count, seed, cfg.Fixtures...), text, nil
	case "tabular":
		path := cfg.Path
		if path == "" {
			path = ResumeFile
		}
		columns := cfg.Columns
		if len(columns) == 0 {
			columns = ResumeColumns
		}
		if text == nil {
			return nil, nil, fmt.Errorf("tabular dataset: textField required")
		}
		return tabular.New(path, tabular.WithColumns(columns), tabular.WithLimit(cfg.Limit)), text, nil
	case "sql":
		if text == nil {
			return nil, nil, fmt.Errorf("sql dataset: textField required")
		}
		src, err := sqlsource.New(cfg.Driver, cfg.DSN, cfg.Query)
		if err != nil {
			return nil, nil, err
		}
		src.Logf = log.Printf
		return src, text, nil
	}
	return nil, nil, fmt.Errorf("unsupported dataset kind %q", cfg.Kind)
}
