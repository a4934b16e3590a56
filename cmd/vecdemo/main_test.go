package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/viant/vecdemo/service"
)

func TestCommonFlags_ConfigMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vecdemo.yaml")
	content := "store:\n  kind: sqlite\n  dsn: " + filepath.Join(dir, "vec.sqlite") + "\nembedder:\n  kind: simple\n  dimension: 16\n  batchSize: 4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	flags := flag.NewFlagSet("food", flag.ContinueOnError)
	common := registerCommon(flags, service.StoreQdrant)
	if err := flags.Parse([]string{"--config", path, "--batch", "8", "--push-gateway", "http://localhost:9091"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg, err := common.config(flags)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Store.Kind != service.StoreSQLite {
		t.Fatalf("default store flag overrode config: %s", cfg.Store.Kind)
	}
	if cfg.Embedder.Kind != "simple" || cfg.Embedder.Dimension != 16 || common.dimension != 16 {
		t.Fatalf("unexpected embedder config: %+v", cfg.Embedder)
	}
	if cfg.Embedder.BatchSize != 8 {
		t.Fatalf("explicit flag should override config, got batch %d", cfg.Embedder.BatchSize)
	}
	if cfg.PushGateway != "http://localhost:9091" {
		t.Fatalf("unexpected push gateway %q", cfg.PushGateway)
	}
}

func TestCommonFlags_Defaults(t *testing.T) {
	flags := flag.NewFlagSet("resume-import", flag.ContinueOnError)
	common := registerCommon(flags, service.StoreWeaviate)
	if err := flags.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg, err := common.config(flags)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Store.Kind != service.StoreWeaviate || cfg.Embedder.Kind != "ollama" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Embedder.Dimension != service.DefaultDimension || cfg.Embedder.BatchSize != 64 {
		t.Fatalf("unexpected embedder defaults: %+v", cfg.Embedder)
	}
}

func TestExecute_FoodOnSQLite(t *testing.T) {
	dim := 32
	cfg := &service.Config{
		Store:    service.StoreConfig{Kind: service.StoreSQLite, DSN: filepath.Join(t.TempDir(), "vec.sqlite")},
		Embedder: service.EmbedderConfig{Kind: "simple", Dimension: dim},
		Dataset:  service.DatasetConfig{Kind: "faker", Count: 20, Seed: 7},
	}
	err := execute(context.Background(), cfg, scenario{
		name:       "food",
		collection: service.FoodCollectionSchema(dim),
		queries:    service.FoodQueries(),
		kind:       "faker",
	}, true)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
}

func TestDebugSleepFromEnv(t *testing.T) {
	t.Setenv("VECDEMO_DEBUG_SLEEP", "3")
	if got := debugSleepFromEnv(); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	t.Setenv("VECDEMO_DEBUG_SLEEP", "x")
	if got := debugSleepFromEnv(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
