package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/viant/vecdemo/embeddings"
	"github.com/viant/vecdemo/metrics"
	"github.com/viant/vecdemo/schema"
)

// NewIDs returns n random UUIDs.
func NewIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	return ids
}

// Embed encodes texts in batches, preserving order.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	emb, err := s.resolveEmbedder()
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := embeddings.EmbedBatches(ctx, emb, texts, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vectors, nil
}

// ResetCollection deletes and recreates the collection.
func (s *Service) ResetCollection(ctx context.Context, collection schema.Collection) error {
	if err := s.store.ResetCollection(ctx, collection); err != nil {
		return fmt.Errorf("reset collection %s: %w", collection.Name, err)
	}
	s.logf("collection %s created (dimension=%d distance=%s)", collection.Name, collection.Dimension, collection.Distance)
	return nil
}

// Load writes every record as one point in a single upsert call.
func (s *Service) Load(ctx context.Context, req LoadRequest) (int, error) {
	if len(req.Records) != len(req.Vectors) || len(req.Records) != len(req.IDs) {
		return 0, fmt.Errorf("load: records=%d vectors=%d ids=%d must match", len(req.Records), len(req.Vectors), len(req.IDs))
	}
	if len(req.Records) == 0 {
		s.logf("collection %s: nothing to load", req.Collection)
		return 0, nil
	}
	points := make([]schema.Point, len(req.Records))
	for i, record := range req.Records {
		points[i] = schema.Point{ID: req.IDs[i], Vector: req.Vectors[i], Payload: record}
	}
	if err := s.store.Upsert(ctx, req.Collection, points); err != nil {
		return 0, fmt.Errorf("load %s: %w", req.Collection, err)
	}
	metrics.PointsLoaded.WithLabelValues(storeName(s.store), req.Collection).Add(float64(len(points)))
	s.logf("collection %s: upserted %d points", req.Collection, len(points))
	return len(points), nil
}
