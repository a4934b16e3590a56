package vectordb

import (
	"context"

	"github.com/viant/vecdemo/schema"
)

// Store defines the operations issued against a vector-database service.
// Indexing, scoring, filtering and recommendation happen inside the service.
type Store interface {
	// ResetCollection deletes the collection if present and recreates it.
	ResetCollection(ctx context.Context, collection schema.Collection) error
	// Upsert writes all points in a single batch call.
	Upsert(ctx context.Context, collection string, points []schema.Point) error
	Search(ctx context.Context, req SearchRequest) ([]schema.Hit, error)
	// Recommend ranks candidates by positive and negative example ids.
	// Stores without native recommendation return ErrUnsupported.
	Recommend(ctx context.Context, req RecommendRequest) ([]schema.Hit, error)
	// Get returns stored points by id; unknown ids are skipped.
	Get(ctx context.Context, collection string, ids []string) ([]schema.Point, error)
	Count(ctx context.Context, collection string) (int, error)
	Close() error
}

// SearchRequest is a top-K similarity search by query vector.
type SearchRequest struct {
	Collection     string
	Vector         []float32
	Filter         *schema.Filter
	Limit          int
	ScoreThreshold *float32
}

// RecommendRequest is a search by positive/negative example ids.
type RecommendRequest struct {
	Collection     string
	Positive       []string
	Negative       []string
	Filter         *schema.Filter
	Limit          int
	ScoreThreshold *float32
}

// DefaultLimit applies when a request has no positive limit.
const DefaultLimit = 10

// Limit returns limit or DefaultLimit.
func Limit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
