package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/vecdemo/schema"
	"github.com/viant/vecdemo/vectordb"
)

// RunQueries issues each query as a single round-trip and prints its hits.
// Recommend queries on stores without recommendation are logged and skipped.
func (s *Service) RunQueries(ctx context.Context, req QueryRequest) ([]QueryResult, error) {
	results := make([]QueryResult, 0, len(req.Queries))
	for _, spec := range req.Queries {
		result := QueryResult{Spec: spec}
		hits, err := s.runQuery(ctx, req, spec)
		if errors.Is(err, vectordb.ErrUnsupported) {
			s.logf("query %s: skipped: %v", spec.Name, err)
			result.Skipped = true
			results = append(results, result)
			continue
		}
		if err != nil {
			return results, fmt.Errorf("query %s: %w", spec.Name, err)
		}
		result.Hits = hits
		results = append(results, result)
		if !req.Quiet {
			s.printHits(spec, hits)
		}
	}
	return results, nil
}

func (s *Service) runQuery(ctx context.Context, req QueryRequest, spec QuerySpec) ([]schema.Hit, error) {
	switch strings.ToLower(spec.Kind) {
	case KindSearch, "":
		emb, err := s.resolveEmbedder()
		if err != nil {
			return nil, err
		}
		vector, err := emb.EmbedQuery(ctx, spec.Text)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		return s.store.Search(ctx, vectordb.SearchRequest{
			Collection:     req.Collection,
			Vector:         vector,
			Filter:         spec.Filter,
			Limit:          spec.Limit,
			ScoreThreshold: spec.ScoreThreshold,
		})
	case KindRecommend:
		positive, err := selectIDs(req.IDs, spec.Positive)
		if err != nil {
			return nil, err
		}
		negative, err := selectIDs(req.IDs, spec.Negative)
		if err != nil {
			return nil, err
		}
		return s.store.Recommend(ctx, vectordb.RecommendRequest{
			Collection:     req.Collection,
			Positive:       positive,
			Negative:       negative,
			Filter:         spec.Filter,
			Limit:          spec.Limit,
			ScoreThreshold: spec.ScoreThreshold,
		})
	}
	return nil, fmt.Errorf("unsupported query kind %q", spec.Kind)
}

func selectIDs(ids []string, indexes []int) ([]string, error) {
	if len(indexes) == 0 {
		return nil, nil
	}
	out := make([]string, len(indexes))
	for i, idx := range indexes {
		if idx < 0 || idx >= len(ids) {
			return nil, fmt.Errorf("example index %d out of range (%d ids)", idx, len(ids))
		}
		out[i] = ids[idx]
	}
	return out, nil
}

func (s *Service) printHits(spec QuerySpec, hits []schema.Hit) {
	fmt.Fprintf(s.out, "\n%s (%d results)\n", spec.Name, len(hits))
	for _, hit := range hits {
		fmt.Fprintf(s.out, "id=%s score=%.4f %s\n", hit.ID, hit.Score, formatPayload(hit.Payload, spec.Fields))
	}
}

func formatPayload(payload schema.Record, fields []string) string {
	if len(fields) > 0 {
		values := make([]string, len(fields))
		for i, field := range fields {
			values[i] = payload.String(field)
		}
		return strings.Join(values, " | ")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", map[string]interface{}(payload))
	}
	return string(data)
}
