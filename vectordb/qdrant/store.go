// Package qdrant implements vectordb.Store on the Qdrant gRPC API.
package qdrant

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/viant/vecdemo/metrics"
	"github.com/viant/vecdemo/schema"
	"github.com/viant/vecdemo/vectordb"
	"google.golang.org/grpc"
)

// Name identifies the store in logs and metrics.
const Name = "qdrant"

// DefaultPort is the Qdrant gRPC port.
const DefaultPort = 6334

// Store talks to a Qdrant service.
type Store struct {
	client   *qdrant.Client
	host     string
	port     int
	apiKey   string
	useTLS   bool
	dialOpts []grpc.DialOption
}

// Option configures the qdrant store.
type Option func(*Store)

func WithHost(host string) Option { return func(s *Store) { s.host = host } }

func WithPort(port int) Option { return func(s *Store) { s.port = port } }

func WithAPIKey(key string) Option { return func(s *Store) { s.apiKey = key } }

func WithTLS(useTLS bool) Option { return func(s *Store) { s.useTLS = useTLS } }

// WithDialOptions appends gRPC dial options.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(s *Store) { s.dialOpts = append(s.dialOpts, opts...) }
}

// New connects to Qdrant. Unary calls are counted by the metrics interceptor.
func New(opts ...Option) (*Store, error) {
	s := &Store{host: "localhost", port: DefaultPort}
	for _, opt := range opts {
		opt(s)
	}
	dialOpts := append([]grpc.DialOption{grpc.WithChainUnaryInterceptor(metrics.UnaryClientInterceptor())}, s.dialOpts...)
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:        s.host,
		Port:        s.port,
		APIKey:      s.apiKey,
		UseTLS:      s.useTLS,
		GrpcOptions: dialOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to connect %s:%d: %w", s.host, s.port, err)
	}
	s.client = client
	return s, nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) ResetCollection(ctx context.Context, collection schema.Collection) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "reset", start, err) }()
	if err = collection.Validate(); err != nil {
		return err
	}
	exists, err := s.client.CollectionExists(ctx, collection.Name)
	if err != nil {
		return err
	}
	if exists {
		if err = s.client.DeleteCollection(ctx, collection.Name); err != nil {
			return err
		}
	}
	distance, err := toDistance(collection.Distance)
	if err != nil {
		return err
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(collection.Dimension),
			Distance: distance,
		}),
	})
	if err != nil {
		return err
	}
	for _, field := range collection.Fields {
		fieldType, ok := toFieldType(field.Type)
		if !ok {
			continue
		}
		if _, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collection.Name,
			FieldName:      field.Name,
			FieldType:      qdrant.PtrOf(fieldType),
			Wait:           qdrant.PtrOf(true),
		}); err != nil {
			return fmt.Errorf("qdrant: failed to index %s.%s: %w", collection.Name, field.Name, err)
		}
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, collection string, points []schema.Point) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "upsert", start, err) }()
	if len(points) == 0 {
		return nil
	}
	structs, err := toPoints(points)
	if err != nil {
		return err
	}
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	return err
}

func (s *Store) Search(ctx context.Context, req vectordb.SearchRequest) (hits []schema.Hit, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "search", start, err) }()
	scored, err := s.client.Query(ctx, searchQuery(req))
	if err != nil {
		return nil, err
	}
	return toHits(scored)
}

// Recommend uses the service's native recommendation (average_vector strategy).
func (s *Store) Recommend(ctx context.Context, req vectordb.RecommendRequest) (hits []schema.Hit, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "recommend", start, err) }()
	if len(req.Positive) == 0 {
		return nil, fmt.Errorf("qdrant: recommend requires at least one positive example")
	}
	scored, err := s.client.Query(ctx, recommendQuery(req))
	if err != nil {
		return nil, err
	}
	return toHits(scored)
}

func (s *Store) Get(ctx context.Context, collection string, ids []string) (points []schema.Point, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "get", start, err) }()
	if len(ids) == 0 {
		return nil, nil
	}
	retrieved, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            toIDs(ids),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]schema.Point, len(retrieved))
	for _, item := range retrieved {
		payload, err := fromValueMap(item.GetPayload())
		if err != nil {
			return nil, err
		}
		id := pointID(item.GetId())
		byID[id] = schema.Point{
			ID:      id,
			Vector:  item.GetVectors().GetVector().GetData(),
			Payload: payload,
		}
	}
	for _, id := range ids {
		if point, ok := byID[id]; ok {
			points = append(points, point)
		}
	}
	return points, nil
}

func (s *Store) Count(ctx context.Context, collection string) (count int, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "count", start, err) }()
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          qdrant.PtrOf(true),
	})
	return int(n), err
}

func searchQuery(req vectordb.SearchRequest) *qdrant.QueryPoints {
	return &qdrant.QueryPoints{
		CollectionName: req.Collection,
		Query:          qdrant.NewQuery(req.Vector...),
		Filter:         toFilter(req.Filter),
		Limit:          qdrant.PtrOf(uint64(vectordb.Limit(req.Limit))),
		ScoreThreshold: req.ScoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
	}
}

func recommendQuery(req vectordb.RecommendRequest) *qdrant.QueryPoints {
	return &qdrant.QueryPoints{
		CollectionName: req.Collection,
		Query: qdrant.NewQueryRecommend(&qdrant.RecommendInput{
			Positive: toVectorInputs(req.Positive),
			Negative: toVectorInputs(req.Negative),
			Strategy: qdrant.RecommendStrategy_AverageVector.Enum(),
		}),
		Filter:         toFilter(req.Filter),
		Limit:          qdrant.PtrOf(uint64(vectordb.Limit(req.Limit))),
		ScoreThreshold: req.ScoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
	}
}

func toDistance(distance schema.Distance) (qdrant.Distance, error) {
	switch distance {
	case schema.DistanceCosine, "":
		return qdrant.Distance_Cosine, nil
	case schema.DistanceEuclid:
		return qdrant.Distance_Euclid, nil
	case schema.DistanceDot:
		return qdrant.Distance_Dot, nil
	}
	return qdrant.Distance_UnknownDistance, fmt.Errorf("qdrant: unsupported distance %q", distance)
}

func toFieldType(fieldType schema.FieldType) (qdrant.FieldType, bool) {
	switch fieldType {
	case schema.FieldKeyword:
		return qdrant.FieldType_FieldTypeKeyword, true
	case schema.FieldInt:
		return qdrant.FieldType_FieldTypeInteger, true
	case schema.FieldNumber:
		return qdrant.FieldType_FieldTypeFloat, true
	}
	return 0, false
}

// toFilter matches on the textual value; integer-looking values also match integer payloads.
func toFilter(filter *schema.Filter) *qdrant.Filter {
	if filter.IsEmpty() {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(filter.Must))
	for _, m := range filter.Must {
		must = append(must, toCondition(m))
	}
	return &qdrant.Filter{Must: must}
}

func toCondition(m schema.Match) *qdrant.Condition {
	keyword := qdrant.NewMatch(m.Key, m.Value)
	i, err := strconv.ParseInt(m.Value, 10, 64)
	if err != nil {
		return keyword
	}
	return qdrant.NewFilterAsCondition(&qdrant.Filter{
		Should: []*qdrant.Condition{keyword, qdrant.NewMatchInt(m.Key, i)},
	})
}

func toIDs(ids []string) []*qdrant.PointId {
	out := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		out[i] = qdrant.NewID(id)
	}
	return out
}

func toVectorInputs(ids []string) []*qdrant.VectorInput {
	if len(ids) == 0 {
		return nil
	}
	out := make([]*qdrant.VectorInput, len(ids))
	for i, id := range ids {
		out[i] = qdrant.NewVectorInputID(qdrant.NewID(id))
	}
	return out
}

func toPoints(points []schema.Point) ([]*qdrant.PointStruct, error) {
	out := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		if point.ID == "" {
			return nil, fmt.Errorf("qdrant: point id is required")
		}
		payload, err := toValueMap(point.Payload)
		if err != nil {
			return nil, fmt.Errorf("qdrant: point %s: %w", point.ID, err)
		}
		out = append(out, &qdrant.PointStruct{
			Id:      qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectors(point.Vector...),
			Payload: payload,
		})
	}
	return out, nil
}

func toHits(scored []*qdrant.ScoredPoint) ([]schema.Hit, error) {
	hits := make([]schema.Hit, 0, len(scored))
	for _, item := range scored {
		payload, err := fromValueMap(item.GetPayload())
		if err != nil {
			return nil, err
		}
		hits = append(hits, schema.Hit{
			ID:      pointID(item.GetId()),
			Score:   item.GetScore(),
			Payload: payload,
		})
	}
	return hits, nil
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return fmt.Sprintf("%d", id.GetNum())
}
