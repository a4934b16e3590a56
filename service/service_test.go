package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/viant/vecdemo/dataset"
	"github.com/viant/vecdemo/dataset/faker"
	"github.com/viant/vecdemo/dataset/tabular"
	"github.com/viant/vecdemo/embeddings/simple"
	"github.com/viant/vecdemo/schema"
	"github.com/viant/vecdemo/vectordb"
	"github.com/viant/vecdemo/vectordb/sqlitevec"
)

func newTestService(t *testing.T, out *bytes.Buffer) (*Service, *sqlitevec.Store) {
	t.Helper()
	store, err := sqlitevec.NewStore(context.Background(), sqlitevec.WithDSN(filepath.Join(t.TempDir(), "vec.sqlite")))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	svc, err := NewService(WithStore(store), WithEmbedder(simple.New(DefaultDimension)), WithOutput(out), WithLogf(t.Logf), WithBatchSize(16))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc, store
}

func vietnamFixtures() []schema.Record {
	return []schema.Record{
		{faker.FieldDish: "Pho", faker.FieldDishDescription: "spicy beef noodle soup", faker.FieldCountry: "Vietnam"},
		{faker.FieldDish: "Bun Bo Hue", faker.FieldDishDescription: "spicy lemongrass noodle soup", faker.FieldCountry: "Vietnam"},
		{faker.FieldDish: "Banh Xeo", faker.FieldDishDescription: "crispy rice pancake", faker.FieldCountry: "Vietnam"},
	}
}

func TestService_RunFood(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	svc, store := newTestService(t, &out)

	result, err := svc.Run(ctx, RunRequest{
		Source:     faker.New(40, 1, vietnamFixtures()...),
		Text:       faker.Text,
		Collection: FoodCollectionSchema(DefaultDimension),
		Queries:    FoodQueries(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Records) != 43 || len(result.IDs) != 43 || result.Loaded != 43 {
		t.Fatalf("unexpected sizes: records=%d ids=%d loaded=%d", len(result.Records), len(result.IDs), result.Loaded)
	}
	seen := map[string]bool{}
	for _, id := range result.IDs {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
	count, err := store.Count(ctx, FoodCollection)
	if err != nil || count != 43 {
		t.Fatalf("expected 43 stored points, got %d, %v", count, err)
	}

	points, err := store.Get(ctx, FoodCollection, []string{result.IDs[5]})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(points) != 1 || !reflect.DeepEqual(points[0].Payload, result.Records[5]) {
		t.Fatalf("payload changed on round-trip: %+v vs %+v", points, result.Records[5])
	}
	if len(points[0].Vector) != DefaultDimension {
		t.Fatalf("expected %d dimensions, got %d", DefaultDimension, len(points[0].Vector))
	}

	vietnam := map[string]bool{}
	for i, record := range result.Records {
		if record.String(faker.FieldCountry) == "Vietnam" {
			vietnam[result.IDs[i]] = true
		}
	}

	if len(result.Results) != 6 {
		t.Fatalf("expected 6 query results, got %d", len(result.Results))
	}
	if n := len(result.Results[0].Hits); n != 3 {
		t.Fatalf("expected 3 search hits, got %d", n)
	}
	for _, hit := range result.Results[1].Hits {
		if hit.Payload.String(faker.FieldCountry) != "Australia" {
			t.Fatalf("filtered search returned %v", hit.Payload)
		}
	}
	for _, hit := range result.Results[3].Hits {
		if hit.ID == result.IDs[1] {
			t.Fatalf("negative example returned")
		}
	}
	for _, hit := range result.Results[4].Hits {
		if hit.Score < 0.22 {
			t.Fatalf("hit below threshold: %v", hit.Score)
		}
	}
	filtered := result.Results[5].Hits
	if len(filtered) == 0 {
		t.Fatalf("expected Vietnam recommendations")
	}
	for _, hit := range filtered {
		if !vietnam[hit.ID] {
			t.Fatalf("non-Vietnam id %s returned", hit.ID)
		}
		if hit.ID == result.IDs[0] || hit.ID == result.IDs[1] {
			t.Fatalf("example id returned")
		}
	}
	if !strings.Contains(out.String(), "search: "+FoodQueryText) {
		t.Fatalf("results not printed: %s", out.String())
	}
}

func TestService_RunZeroRecords(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	svc, store := newTestService(t, &out)
	result, err := svc.Run(ctx, RunRequest{
		Source:     faker.New(0, 1),
		Text:       faker.Text,
		Collection: FoodCollectionSchema(DefaultDimension),
		Queries:    FoodQueries()[:2],
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Loaded != 0 {
		t.Fatalf("expected nothing loaded, got %d", result.Loaded)
	}
	if count, err := store.Count(ctx, FoodCollection); err != nil || count != 0 {
		t.Fatalf("expected empty collection, got %d, %v", count, err)
	}
	for _, r := range result.Results {
		if len(r.Hits) != 0 {
			t.Fatalf("expected no hits, got %v", r.Hits)
		}
	}
}

func TestService_ResetIdempotent(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	svc, store := newTestService(t, &out)
	collection := FoodCollectionSchema(DefaultDimension)
	for i := 0; i < 2; i++ {
		if err := svc.ResetCollection(ctx, collection); err != nil {
			t.Fatalf("ResetCollection #%d: %v", i, err)
		}
		if i == 0 {
			vectors, err := svc.Embed(ctx, []string{"pho"})
			if err != nil {
				t.Fatalf("Embed: %v", err)
			}
			if _, err := svc.Load(ctx, LoadRequest{Collection: FoodCollection, Records: []schema.Record{{"dish": "pho"}}, Vectors: vectors, IDs: NewIDs(1)}); err != nil {
				t.Fatalf("Load: %v", err)
			}
		}
	}
	count, err := store.Count(ctx, FoodCollection)
	if err != nil || count != 0 {
		t.Fatalf("expected empty collection, got %d, %v", count, err)
	}
	got, err := store.Collection(ctx, FoodCollection)
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	if got.Dimension != DefaultDimension || got.Distance != schema.DistanceCosine || len(got.Fields) != len(faker.Fields) {
		t.Fatalf("unexpected collection: %+v", got)
	}
}

func TestService_LoadLengthMismatch(t *testing.T) {
	var out bytes.Buffer
	svc, _ := newTestService(t, &out)
	_, err := svc.Load(context.Background(), LoadRequest{
		Collection: FoodCollection,
		Records:    []schema.Record{{"dish": "pho"}},
		Vectors:    [][]float32{{1}},
		IDs:        nil,
	})
	if err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

type noRecommendStore struct {
	vectordb.Store
}

func (s *noRecommendStore) Recommend(ctx context.Context, req vectordb.RecommendRequest) ([]schema.Hit, error) {
	return nil, vectordb.ErrUnsupported
}

func TestService_RecommendUnsupportedIsSkipped(t *testing.T) {
	ctx := context.Background()
	store, err := sqlitevec.NewStore(ctx, sqlitevec.WithDSN(filepath.Join(t.TempDir(), "vec.sqlite")))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	var out bytes.Buffer
	svc, err := NewService(WithStore(&noRecommendStore{Store: store}), WithEmbedder(simple.New(32)), WithOutput(&out), WithLogf(nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defer svc.Close()
	result, err := svc.Run(ctx, RunRequest{
		Source:     faker.New(10, 3),
		Text:       faker.Text,
		Collection: FoodCollectionSchema(32),
		Queries:    FoodQueries(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, r := range result.Results {
		wantSkipped := r.Spec.Kind == KindRecommend
		if r.Skipped != wantSkipped {
			t.Fatalf("query %d: skipped=%v", i, r.Skipped)
		}
	}
}

func TestService_RecommendIndexOutOfRange(t *testing.T) {
	var out bytes.Buffer
	svc, _ := newTestService(t, &out)
	_, err := svc.RunQueries(context.Background(), QueryRequest{
		Collection: FoodCollection,
		IDs:        []string{"only"},
		Queries:    []QuerySpec{{Name: "bad", Kind: KindRecommend, Positive: []int{3}}},
	})
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestService_RunResume(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ResumeFile)
	content := "Category,Resume\n" +
		"DevOps Engineer,\"Kubernetes, Docker, Jenkins CI/CD pipelines on AWS cloud\"\n" +
		"HR,Recruiting and payroll\n" +
		"Hadoop,Big data engineer with Spark and Hive\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	svc, store := newTestService(t, &out)
	collection := ResumeCollectionSchema(DefaultDimension)
	if _, err := svc.Run(ctx, RunRequest{
		Source:     tabular.New(path, tabular.WithColumns(ResumeColumns)),
		Text:       dataset.Field("resume_text"),
		Collection: collection,
	}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if count, _ := store.Count(ctx, ResumeClass); count != 3 {
		t.Fatalf("expected 3 resumes, got %d", count)
	}

	result, err := svc.Run(ctx, RunRequest{Collection: collection, Queries: ResumeQueries(""), SkipLoad: true})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(result.Results) != 1 || len(result.Results[0].Hits) != 3 {
		t.Fatalf("unexpected results: %+v", result.Results)
	}
	if !strings.Contains(out.String(), "DevOps Engineer | Kubernetes") {
		t.Fatalf("expected category | resume_text output, got %s", out.String())
	}
}

func TestService_RequiresStore(t *testing.T) {
	if _, err := NewService(); err == nil {
		t.Fatalf("expected error without store")
	}
	var out bytes.Buffer
	svc, _ := newTestService(t, &out)
	svc.embedder = nil
	if _, err := svc.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatalf("expected embedder error")
	}
}
