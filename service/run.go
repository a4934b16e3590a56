package service

import (
	"context"
	"fmt"

	"github.com/viant/vecdemo/dataset"
)

// Run executes generate, embed, reset, load and query in order. Any error aborts the run.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	result := &RunResult{}
	if !req.SkipLoad {
		if req.Source == nil {
			return nil, fmt.Errorf("run: record source is required")
		}
		if req.Text == nil {
			return nil, fmt.Errorf("run: text function is required")
		}
		records, err := req.Source.Records(ctx)
		if err != nil {
			return nil, fmt.Errorf("run: records: %w", err)
		}
		result.Records = records
		s.logf("generated %d records", len(records))

		vectors, err := s.Embed(ctx, dataset.Texts(records, req.Text))
		if err != nil {
			return nil, err
		}
		if err := s.ResetCollection(ctx, req.Collection); err != nil {
			return nil, err
		}
		result.IDs = NewIDs(len(records))
		if result.Loaded, err = s.Load(ctx, LoadRequest{
			Collection: req.Collection.Name,
			Records:    records,
			Vectors:    vectors,
			IDs:        result.IDs,
		}); err != nil {
			return nil, err
		}
	}
	if len(req.Queries) == 0 {
		return result, nil
	}
	results, err := s.RunQueries(ctx, QueryRequest{
		Collection: req.Collection.Name,
		IDs:        result.IDs,
		Queries:    req.Queries,
		Quiet:      req.Quiet,
	})
	result.Results = results
	if err != nil {
		return result, err
	}
	return result, nil
}
