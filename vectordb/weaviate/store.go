// Package weaviate implements vectordb.Store on the Weaviate REST/GraphQL API.
// Collections map to classes with no server-side vectorizer; vectors are
// always supplied by the caller.
package weaviate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-openapi/strfmt"
	"github.com/viant/vecdemo/metrics"
	"github.com/viant/vecdemo/schema"
	"github.com/viant/vecdemo/vectordb"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// Name identifies the store in logs and metrics.
const Name = "weaviate"

const tokenizationField = "field"

// Store talks to a Weaviate service.
type Store struct {
	client *weaviate.Client
	host   string
	scheme string
	apiKey string

	mu      sync.RWMutex
	classes map[string]*classInfo
}

type classInfo struct {
	properties []string
	// dataTypes maps a property to its Weaviate data type.
	dataTypes map[string]string
	distance   schema.Distance
}

// Option configures the weaviate store.
type Option func(*Store)

// WithHost sets host[:port], e.g. localhost:8080.
func WithHost(host string) Option { return func(s *Store) { s.host = host } }

func WithScheme(scheme string) Option { return func(s *Store) { s.scheme = scheme } }

func WithAPIKey(key string) Option { return func(s *Store) { s.apiKey = key } }

// New creates a Weaviate client; no request is issued until first use.
func New(opts ...Option) (*Store, error) {
	s := &Store{host: "localhost:8080", scheme: "http", classes: map[string]*classInfo{}}
	for _, opt := range opts {
		opt(s)
	}
	cfg := weaviate.Config{Host: s.host, Scheme: s.scheme}
	if s.apiKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: s.apiKey}
	}
	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate: failed to create client for %s: %w", s.host, err)
	}
	s.client = client
	return s, nil
}

func (s *Store) Close() error { return nil }

// ClassName returns the Weaviate class name of a collection.
func ClassName(collection string) string {
	if collection == "" {
		return collection
	}
	runes := []rune(collection)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func (s *Store) ResetCollection(ctx context.Context, collection schema.Collection) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "reset", start, err) }()
	if err = collection.Validate(); err != nil {
		return err
	}
	class := ClassName(collection.Name)
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(class).Do(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err = s.client.Schema().ClassDeleter().WithClassName(class).Do(ctx); err != nil {
			return err
		}
	}
	def, err := toClass(collection)
	if err != nil {
		return err
	}
	if err = s.client.Schema().ClassCreator().WithClass(def).Do(ctx); err != nil {
		return err
	}
	s.remember(class, collection)
	return nil
}

func (s *Store) Upsert(ctx context.Context, collection string, points []schema.Point) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "upsert", start, err) }()
	if len(points) == 0 {
		return nil
	}
	class := ClassName(collection)
	objects := make([]*models.Object, 0, len(points))
	for _, point := range points {
		if !strfmt.IsUUID(point.ID) {
			return fmt.Errorf("weaviate: point id %q is not a UUID", point.ID)
		}
		objects = append(objects, &models.Object{
			Class:      class,
			ID:         strfmt.UUID(point.ID),
			Properties: map[string]interface{}(point.Payload),
			Vector:     models.C11yVector(point.Vector),
		})
	}
	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return err
	}
	return batchErrors(resp)
}

func (s *Store) Search(ctx context.Context, req vectordb.SearchRequest) (hits []schema.Hit, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "search", start, err) }()
	class := ClassName(req.Collection)
	info, err := s.classInfo(ctx, class)
	if err != nil {
		return nil, err
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(req.Vector)
	if req.ScoreThreshold != nil {
		nearVector = nearVector.WithDistance(maxDistance(info.distance, *req.ScoreThreshold))
	}
	get := s.client.GraphQL().Get().
		WithClassName(class).
		WithFields(fields(info.properties)...).
		WithNearVector(nearVector).
		WithLimit(vectordb.Limit(req.Limit))
	if where := toWhere(req.Filter, info.dataTypes); where != nil {
		get = get.WithWhere(where)
	}
	resp, err := get.Do(ctx)
	if err != nil {
		return nil, err
	}
	return parseHits(resp, class, info.distance)
}

// Recommend is not offered by Weaviate without a vectorizer module.
func (s *Store) Recommend(ctx context.Context, req vectordb.RecommendRequest) ([]schema.Hit, error) {
	return nil, fmt.Errorf("weaviate: recommend: %w", vectordb.ErrUnsupported)
}

func (s *Store) Get(ctx context.Context, collection string, ids []string) (points []schema.Point, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "get", start, err) }()
	class := ClassName(collection)
	for _, id := range ids {
		objects, err := s.client.Data().ObjectsGetter().WithClassName(class).WithID(id).WithVector().Do(ctx)
		if err != nil {
			var clientErr *fault.WeaviateClientError
			if errors.As(err, &clientErr) && clientErr.StatusCode == http.StatusNotFound {
				continue
			}
			return nil, err
		}
		for _, obj := range objects {
			points = append(points, toPoint(obj))
		}
	}
	return points, nil
}

func (s *Store) Count(ctx context.Context, collection string) (count int, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "count", start, err) }()
	class := ClassName(collection)
	resp, err := s.client.GraphQL().Aggregate().
		WithClassName(class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	return parseCount(resp, class)
}

func (s *Store) remember(class string, collection schema.Collection) {
	info := &classInfo{distance: collection.Distance, dataTypes: map[string]string{}}
	for _, field := range collection.Fields {
		info.properties = append(info.properties, field.Name)
		info.dataTypes[field.Name] = toDataType(field.Type)
	}
	s.mu.Lock()
	s.classes[class] = info
	s.mu.Unlock()
}

// classInfo returns the class properties and distance, reading the schema on first use.
func (s *Store) classInfo(ctx context.Context, class string) (*classInfo, error) {
	s.mu.RLock()
	info, ok := s.classes[class]
	s.mu.RUnlock()
	if ok {
		return info, nil
	}
	def, err := s.client.Schema().ClassGetter().WithClassName(class).Do(ctx)
	if err != nil {
		var clientErr *fault.WeaviateClientError
		if errors.As(err, &clientErr) && clientErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", vectordb.ErrNotFound, class)
		}
		return nil, err
	}
	info = fromClass(def)
	s.mu.Lock()
	s.classes[class] = info
	s.mu.Unlock()
	return info, nil
}

func toClass(collection schema.Collection) (*models.Class, error) {
	distance, err := toDistance(collection.Distance)
	if err != nil {
		return nil, err
	}
	class := &models.Class{
		Class:             ClassName(collection.Name),
		Description:       collection.Description,
		Vectorizer:        "none",
		VectorIndexConfig: map[string]interface{}{"distance": distance},
	}
	for _, field := range collection.Fields {
		prop := &models.Property{
			Name:     field.Name,
			DataType: []string{toDataType(field.Type)},
		}
		if field.Type == schema.FieldKeyword {
			// whole-value tokens make Equal an exact match
			prop.Tokenization = tokenizationField
		}
		class.Properties = append(class.Properties, prop)
	}
	return class, nil
}

func fromClass(def *models.Class) *classInfo {
	info := &classInfo{distance: schema.DistanceCosine, dataTypes: map[string]string{}}
	if cfg, ok := def.VectorIndexConfig.(map[string]interface{}); ok {
		if name, ok := cfg["distance"].(string); ok {
			info.distance = fromDistance(name)
		}
	}
	for _, prop := range def.Properties {
		info.properties = append(info.properties, prop.Name)
		if len(prop.DataType) > 0 {
			info.dataTypes[prop.Name] = prop.DataType[0]
		}
	}
	return info
}

func toDistance(distance schema.Distance) (string, error) {
	switch distance {
	case schema.DistanceCosine, "":
		return "cosine", nil
	case schema.DistanceEuclid:
		return "l2-squared", nil
	case schema.DistanceDot:
		return "dot", nil
	}
	return "", fmt.Errorf("weaviate: unsupported distance %q", distance)
}

func fromDistance(name string) schema.Distance {
	switch name {
	case "l2-squared":
		return schema.DistanceEuclid
	case "dot":
		return schema.DistanceDot
	}
	return schema.DistanceCosine
}

func toDataType(fieldType schema.FieldType) string {
	switch fieldType {
	case schema.FieldInt:
		return "int"
	case schema.FieldNumber:
		return "number"
	}
	return "text"
}

// maxDistance converts a minimum score into the maximum distance Weaviate accepts.
func maxDistance(distance schema.Distance, threshold float32) float32 {
	switch distance {
	case schema.DistanceEuclid:
		return threshold
	case schema.DistanceDot:
		return -threshold
	}
	return 1 - threshold
}

// toWhere builds an Equal clause per condition, typed by the property's data type.
func toWhere(filter *schema.Filter, dataTypes map[string]string) *filters.WhereBuilder {
	if filter.IsEmpty() {
		return nil
	}
	operands := make([]*filters.WhereBuilder, 0, len(filter.Must))
	for _, m := range filter.Must {
		where := filters.Where().WithPath([]string{m.Key}).WithOperator(filters.Equal)
		switch dataTypes[m.Key] {
		case "int":
			if v, err := strconv.ParseInt(m.Value, 10, 64); err == nil {
				where = where.WithValueInt(v)
				break
			}
			where = where.WithValueText(m.Value)
		case "number":
			if v, err := strconv.ParseFloat(m.Value, 64); err == nil {
				where = where.WithValueNumber(v)
				break
			}
			where = where.WithValueText(m.Value)
		default:
			where = where.WithValueText(m.Value)
		}
		operands = append(operands, where)
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}

func fields(properties []string) []graphql.Field {
	out := make([]graphql.Field, 0, len(properties)+1)
	for _, name := range properties {
		out = append(out, graphql.Field{Name: name})
	}
	out = append(out, graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}})
	return out
}

func toPoint(obj *models.Object) schema.Point {
	point := schema.Point{ID: string(obj.ID), Vector: []float32(obj.Vector), Payload: schema.Record{}}
	if props, ok := obj.Properties.(map[string]interface{}); ok {
		for k, v := range props {
			point.Payload[k] = v
		}
	}
	return point
}

func batchErrors(resp []models.ObjectsGetResponse) error {
	var messages []string
	for _, item := range resp {
		if item.Result == nil || item.Result.Errors == nil {
			continue
		}
		for _, e := range item.Result.Errors.Error {
			if e != nil && e.Message != "" {
				messages = append(messages, fmt.Sprintf("%s: %s", item.ID, e.Message))
			}
		}
	}
	if len(messages) == 0 {
		return nil
	}
	return fmt.Errorf("weaviate: batch failed for %d objects: %s", len(messages), strings.Join(messages, "; "))
}
