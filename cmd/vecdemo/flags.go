package main

import (
	"context"
	"flag"
	"os"

	"github.com/viant/vecdemo/service"
)

// commonFlags are shared by every command; explicitly set flags override the config file.
type commonFlags struct {
	configPath  *string
	store       *string
	host        *string
	port        *int
	scheme      *string
	tls         *bool
	apiKey      *string
	storeSecret *string
	dsn         *string
	embedder    *string
	model       *string
	embedURL    *string
	embedKey    *string
	project     *string
	location    *string
	cacheURL    *string
	batch       *int
	pushGateway *string
	quiet       *bool
	debugSleep  *int

	dimension int
}

func registerCommon(flags *flag.FlagSet, defaultStore string) *commonFlags {
	c := &commonFlags{}
	c.configPath = flags.String("config", "", "config yaml (optional)")
	c.store = flags.String("store", defaultStore, "vector store: qdrant|weaviate|sqlite")
	c.host = flags.String("host", "", "vector store host (default localhost)")
	c.port = flags.Int("port", 0, "vector store port (qdrant 6334, weaviate 8080)")
	c.scheme = flags.String("scheme", "", "weaviate scheme (default http)")
	c.tls = flags.Bool("tls", false, "use TLS for qdrant")
	c.apiKey = flags.String("api-key", "", "vector store API key (optional)")
	c.storeSecret = flags.String("store-secret", "", "scy secret resource expanded into the API key (optional)")
	c.dsn = flags.String("dsn", "", "sqlite store path (for --store=sqlite)")
	c.embedder = flags.String("embedder", "ollama", "embedder: ollama|openai|vertexai|simple")
	c.model = flags.String("model", "", "embedding model (default all-minilm for ollama)")
	c.embedURL = flags.String("embed-url", "", "embedding service base URL (optional)")
	c.embedKey = flags.String("embed-key", "", "embedding API key (optional, defaults to OPENAI_API_KEY for openai)")
	c.project = flags.String("vertex-project", os.Getenv("VERTEXAI_PROJECT_ID"), "vertexai project id")
	c.location = flags.String("vertex-location", os.Getenv("VERTEXAI_LOCATION"), "vertexai location")
	c.cacheURL = flags.String("embed-cache", "", "embedding cache location (optional, local/gs/s3)")
	flags.IntVar(&c.dimension, "dimension", service.DefaultDimension, "embedding dimension")
	c.batch = flags.Int("batch", 64, "texts per embedding call")
	c.pushGateway = flags.String("push-gateway", "", "prometheus pushgateway URL (optional)")
	c.quiet = flags.Bool("quiet", false, "do not print query results")
	c.debugSleep = flags.Int("debug-sleep", 0, "debug: sleep N seconds before execution (for gops)")
	return c
}

// config loads --config when given and applies flags on top of it.
func (c *commonFlags) config(flags *flag.FlagSet) (*service.Config, error) {
	cfg := &service.Config{}
	if *c.configPath != "" {
		loaded, err := service.LoadConfig(*c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	set := setFlags(flags)
	pick := func(name string, target *string, value string) {
		if value != "" && (set[name] || *target == "") {
			*target = value
		}
	}
	pickInt := func(name string, target *int, value int) {
		if value != 0 && (set[name] || *target == 0) {
			*target = value
		}
	}
	pick("store", &cfg.Store.Kind, *c.store)
	pick("host", &cfg.Store.Host, *c.host)
	pickInt("port", &cfg.Store.Port, *c.port)
	pick("scheme", &cfg.Store.Scheme, *c.scheme)
	if set["tls"] {
		cfg.Store.TLS = *c.tls
	}
	pick("api-key", &cfg.Store.APIKey, *c.apiKey)
	pick("dsn", &cfg.Store.DSN, *c.dsn)
	pick("embedder", &cfg.Embedder.Kind, *c.embedder)
	pick("model", &cfg.Embedder.Model, *c.model)
	pick("embed-url", &cfg.Embedder.BaseURL, *c.embedURL)
	pick("embed-key", &cfg.Embedder.APIKey, *c.embedKey)
	pick("vertex-project", &cfg.Embedder.Project, *c.project)
	pick("vertex-location", &cfg.Embedder.Location, *c.location)
	pick("embed-cache", &cfg.Embedder.CacheURL, *c.cacheURL)
	pickInt("batch", &cfg.Embedder.BatchSize, *c.batch)
	pick("push-gateway", &cfg.PushGateway, *c.pushGateway)
	if set["dimension"] || cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = c.dimension
	}
	c.dimension = cfg.Embedder.Dimension
	if set["store-secret"] && *c.storeSecret != "" {
		key, err := service.ExpandWithSecret(context.Background(), cfg.Store.APIKey, *c.storeSecret)
		if err != nil {
			return nil, err
		}
		cfg.Store.APIKey = key
	}
	return cfg, nil
}

func setFlags(flags *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func isSet(flags *flag.FlagSet, name string) bool {
	return setFlags(flags)[name]
}
