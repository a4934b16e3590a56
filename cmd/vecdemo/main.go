package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/viant/vecdemo/dataset"
	"github.com/viant/vecdemo/metrics"
	"github.com/viant/vecdemo/schema"
	"github.com/viant/vecdemo/service"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "food":
		foodCmd(os.Args[2:])
	case "resume-import":
		resumeImportCmd(os.Args[2:])
	case "resume-query":
		resumeQueryCmd(os.Args[2:])
	case "run":
		runCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: vecdemo <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  food           Generate fake dishes, load them and run searches/recommendations")
	fmt.Fprintln(os.Stderr, "  resume-import  Load a resume dataset (csv/xlsx/xls) into a collection")
	fmt.Fprintln(os.Stderr, "  resume-query   Search imported resumes by a job description")
	fmt.Fprintln(os.Stderr, "  run            Run the flow described by a config file")
}

func foodCmd(args []string) {
	flags := flag.NewFlagSet("food", flag.ExitOnError)
	common := registerCommon(flags, service.StoreQdrant)
	count := flags.Int("count", 1000, "number of generated records")
	seed := flags.Uint64("seed", 42, "generator seed")
	collection := flags.String("collection", service.FoodCollection, "collection name")
	flags.Parse(args)

	cfg, err := common.config(flags)
	if err != nil {
		log.Fatalf("food: %v", err)
	}
	if cfg.Dataset.Kind == "" {
		cfg.Dataset.Kind = "faker"
	}
	if cfg.Dataset.Count == 0 || isSet(flags, "count") {
		cfg.Dataset.Count = *count
	}
	if cfg.Dataset.Seed == 0 || isSet(flags, "seed") {
		cfg.Dataset.Seed = *seed
	}
	coll := service.FoodCollectionSchema(common.dimension)
	coll.Name = *collection
	runScenario(common, cfg, scenario{
		name:       "food",
		collection: coll,
		queries:    service.FoodQueries(),
		kind:       "faker",
	})
}

func resumeImportCmd(args []string) {
	flags := flag.NewFlagSet("resume-import", flag.ExitOnError)
	common := registerCommon(flags, service.StoreWeaviate)
	file := flags.String("file", service.ResumeFile, "resume dataset location (local, gs:// or s3://)")
	class := flags.String("class", service.ResumeClass, "collection/class name")
	limit := flags.Int("limit", 0, "max rows to import (0 = all)")
	flags.Parse(args)

	cfg, err := common.config(flags)
	if err != nil {
		log.Fatalf("resume-import: %v", err)
	}
	if cfg.Dataset.Kind == "" {
		cfg.Dataset.Kind = "tabular"
	}
	if cfg.Dataset.Path == "" || isSet(flags, "file") {
		cfg.Dataset.Path = *file
	}
	if cfg.Dataset.Limit == 0 || isSet(flags, "limit") {
		cfg.Dataset.Limit = *limit
	}
	coll := service.ResumeCollectionSchema(common.dimension)
	coll.Name = *class
	runScenario(common, cfg, scenario{
		name:       "resume-import",
		collection: coll,
		text:       dataset.Field("resume_text"),
		kind:       "tabular",
	})
}

func resumeQueryCmd(args []string) {
	flags := flag.NewFlagSet("resume-query", flag.ExitOnError)
	common := registerCommon(flags, service.StoreWeaviate)
	text := flags.String("text", service.JobDescription, "job description to search by")
	class := flags.String("class", service.ResumeClass, "collection/class name")
	limit := flags.Int("limit", 10, "max results")
	category := flags.String("category", "", "restrict to a resume category (optional)")
	flags.Parse(args)

	cfg, err := common.config(flags)
	if err != nil {
		log.Fatalf("resume-query: %v", err)
	}
	queries := service.ResumeQueries(*text)
	queries[0].Limit = *limit
	if *category != "" {
		queries[0].Filter = schema.NewFilter("category", *category)
	}
	coll := service.ResumeCollectionSchema(common.dimension)
	coll.Name = *class
	runScenario(common, cfg, scenario{
		name:       "resume-query",
		collection: coll,
		queries:    queries,
		skipLoad:   true,
	})
}

func runCmd(args []string) {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	common := registerCommon(flags, service.StoreQdrant)
	flags.Parse(args)
	if common.configPath == nil || *common.configPath == "" {
		flags.Usage()
		os.Exit(2)
	}
	cfg, err := common.config(flags)
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	if cfg.Collection == nil {
		log.Fatalf("run: config has no collection")
	}
	coll := *cfg.Collection
	if coll.Dimension == 0 {
		coll.Dimension = common.dimension
	}
	queries := cfg.Queries
	if len(queries) == 0 {
		queries = service.FoodQueries()
	}
	runScenario(common, cfg, scenario{
		name:       "run",
		collection: coll,
		queries:    queries,
		kind:       "faker",
	})
}

type scenario struct {
	name       string
	collection schema.Collection
	text       dataset.TextFunc
	queries    []service.QuerySpec
	kind       string
	skipLoad   bool
}

func runScenario(common *commonFlags, cfg *service.Config, sc scenario) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep(sc.name, *common.debugSleep)

	started := time.Now()
	err := execute(ctx, cfg, sc, *common.quiet)
	if pushErr := metrics.Push(cfg.PushGateway, "vecdemo_"+strings.ReplaceAll(sc.name, "-", "_")); pushErr != nil {
		log.Printf("metrics push: %v", pushErr)
	}
	if err != nil {
		log.Fatalf("%s: %v", sc.name, err)
	}
	log.Printf("%s: done in %s", sc.name, time.Since(started).Round(time.Millisecond))
}

func execute(ctx context.Context, cfg *service.Config, sc scenario, quiet bool) error {
	store, err := service.OpenStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("store init: %w", err)
	}
	emb, persist, err := service.NewEmbedder(ctx, cfg.Embedder)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("embedder init: %w", err)
	}
	svc, err := service.NewService(
		service.WithStore(store),
		service.WithEmbedder(emb),
		service.WithBatchSize(cfg.Embedder.BatchSize),
		service.WithLogf(log.Printf),
	)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() { _ = svc.Close() }()

	req := service.RunRequest{
		Collection: sc.collection,
		Queries:    sc.queries,
		SkipLoad:   sc.skipLoad,
		Quiet:      quiet,
	}
	if !sc.skipLoad {
		if req.Source, req.Text, err = service.NewSource(cfg.Dataset, sc.kind, sc.text); err != nil {
			return err
		}
	}
	_, err = svc.Run(ctx, req)
	if persistErr := persist(ctx); persistErr != nil {
		log.Printf("embedding cache: %v", persistErr)
	}
	return err
}

func maybeDebugSleep(cmd string, seconds int) {
	if seconds <= 0 {
		seconds = debugSleepFromEnv()
	}
	if seconds <= 0 {
		return
	}
	log.Printf("debug: cmd=%s pid=%d sleep=%ds", cmd, os.Getpid(), seconds)
	time.Sleep(time.Duration(seconds) * time.Second)
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}

func debugSleepFromEnv() int {
	val := strings.TrimSpace(os.Getenv("VECDEMO_DEBUG_SLEEP"))
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
