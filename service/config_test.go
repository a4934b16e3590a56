package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/viant/vecdemo/dataset/faker"
	"github.com/viant/vecdemo/dataset/sqlsource"
	"github.com/viant/vecdemo/dataset/tabular"
	"github.com/viant/vecdemo/embeddings/cache"
	"github.com/viant/vecdemo/embeddings/ollama"
	"github.com/viant/vecdemo/embeddings/simple"
	"github.com/viant/vecdemo/vectordb/sqlitevec"
	"github.com/viant/vecdemo/vectordb/weaviate"
)

func TestLoadConfig(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	path := filepath.Join(t.TempDir(), "vecdemo.yaml")
	content := `store:
  kind: sqlite
  dsn: ~/vecdemo/food.sqlite
embedder:
  kind: simple
  dimension: 64
  cacheURL: ~/vecdemo/embeddings.bin
dataset:
  kind: faker
  count: 5
  fixtures:
    - dish: Pho
      dish_description: beef noodle soup
      country: Vietnam
collection:
  name: food_collection
  dimension: 64
  distance: cosine
  fields:
    - name: country
      type: keyword
queries:
  - name: pho
    kind: search
    text: spicy Vietnamese pho
    limit: 3
  - name: like first
    kind: recommend
    positive: [0]
    negative: [1]
    scoreThreshold: 0.22
    filter:
      must:
        - key: country
          value: Vietnam
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.DSN != filepath.Join(home, "vecdemo/food.sqlite") {
		t.Fatalf("dsn not expanded: %s", cfg.Store.DSN)
	}
	if cfg.Embedder.CacheURL != filepath.Join(home, "vecdemo/embeddings.bin") {
		t.Fatalf("cache url not expanded: %s", cfg.Embedder.CacheURL)
	}
	if cfg.Collection == nil || cfg.Collection.Dimension != 64 || len(cfg.Collection.Fields) != 1 {
		t.Fatalf("unexpected collection: %+v", cfg.Collection)
	}
	if len(cfg.Queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(cfg.Queries))
	}
	rec := cfg.Queries[1]
	if rec.Kind != KindRecommend || rec.ScoreThreshold == nil || *rec.ScoreThreshold != 0.22 {
		t.Fatalf("unexpected recommend query: %+v", rec)
	}
	if rec.Filter == nil || rec.Filter.Must[0].Value != "Vietnam" {
		t.Fatalf("filter not parsed: %+v", rec.Filter)
	}
	if len(cfg.Dataset.Fixtures) != 1 || cfg.Dataset.Fixtures[0].String("country") != "Vietnam" {
		t.Fatalf("fixtures not parsed: %+v", cfg.Dataset.Fixtures)
	}
}

func TestExpandUserPath(t *testing.T) {
	if _, err := expandUserPath("~bob/data"); err == nil {
		t.Fatalf("expected error for ~user path")
	}
	if got, _ := expandUserPath("/abs/path"); got != "/abs/path" {
		t.Fatalf("absolute path changed: %s", got)
	}
	if got, _ := expandStoreDSN("postgres://host/db", "postgres"); got != "postgres://host/db" {
		t.Fatalf("non-path dsn changed: %s", got)
	}
}

func TestFactories(t *testing.T) {
	ctx := context.Background()

	store, err := OpenStore(ctx, StoreConfig{Kind: StoreSQLite, DSN: filepath.Join(t.TempDir(), "vec.sqlite")})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*sqlitevec.Store); !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	if storeName(store) != sqlitevec.Name {
		t.Fatalf("unexpected store name %s", storeName(store))
	}
	wv, err := OpenStore(ctx, StoreConfig{Kind: StoreWeaviate, Host: "localhost", Port: 8080})
	if err != nil {
		t.Fatalf("OpenStore weaviate: %v", err)
	}
	if _, ok := wv.(*weaviate.Store); !ok {
		t.Fatalf("expected weaviate store, got %T", wv)
	}
	if _, err := OpenStore(ctx, StoreConfig{Kind: "milvus"}); err == nil {
		t.Fatalf("expected unsupported store error")
	}

	emb, persist, err := NewEmbedder(ctx, EmbedderConfig{Kind: "simple", Dimension: 16})
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}
	if _, ok := emb.(*simple.Embedder); !ok {
		t.Fatalf("expected simple embedder, got %T", emb)
	}
	if err := persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}
	emb, _, err = NewEmbedder(ctx, EmbedderConfig{})
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}
	if o, ok := emb.(*ollama.Embedder); !ok || o.C.Model != ollama.DefaultModel {
		t.Fatalf("expected default ollama embedder, got %T", emb)
	}
	cacheURL := filepath.Join(t.TempDir(), "cache.bin")
	emb, persist, err = NewEmbedder(ctx, EmbedderConfig{Kind: "simple", Dimension: 8, CacheURL: cacheURL})
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}
	if _, ok := emb.(*cache.Embedder); !ok {
		t.Fatalf("expected cached embedder, got %T", emb)
	}
	if _, err := emb.EmbedDocuments(ctx, []string{"pho"}); err != nil {
		t.Fatalf("EmbedDocuments: %v", err)
	}
	if err := persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if _, err := os.Stat(cacheURL); err != nil {
		t.Fatalf("cache not persisted: %v", err)
	}

	src, _, err := NewSource(DatasetConfig{}, "faker", nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if g, ok := src.(*faker.Generator); !ok || g.Count != faker.DefaultCount {
		t.Fatalf("expected default faker generator, got %T", src)
	}
	src, text, err := NewSource(DatasetConfig{Kind: "tabular", TextField: "resume_text"}, "faker", nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if r, ok := src.(*tabular.Reader); !ok || r.URL != ResumeFile {
		t.Fatalf("expected tabular reader of %s, got %T", ResumeFile, src)
	}
	if text == nil {
		t.Fatalf("expected text function")
	}
	if _, _, err := NewSource(DatasetConfig{Kind: "tabular", Path: "products.csv"}, "faker", nil); err == nil {
		t.Fatalf("expected error for tabular source without text field")
	}
	if _, _, err := NewSource(DatasetConfig{Kind: "sql", DSN: "/tmp/resumes.sqlite", Query: "SELECT 1"}, "", nil); err == nil {
		t.Fatalf("expected error for sql source without text field")
	}
	src, _, err = NewSource(DatasetConfig{Kind: "sql", DSN: "/tmp/resumes.sqlite", Query: "SELECT 1", TextField: "resume_text"}, "", nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if s, ok := src.(*sqlsource.Source); !ok || s.Driver != "sqlite" {
		t.Fatalf("expected sqlite sql source, got %T", src)
	}
}
