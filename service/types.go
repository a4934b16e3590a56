package service

import (
	"github.com/viant/vecdemo/dataset"
	"github.com/viant/vecdemo/schema"
)

// Query kinds.
const (
	KindSearch    = "search"
	KindRecommend = "recommend"
)

// QuerySpec describes one illustrative query. Positive and Negative are
// indexes into the ids of the loaded records.
type QuerySpec struct {
	Name           string         `yaml:"name"`
	Kind           string         `yaml:"kind"`
	Text           string         `yaml:"text,omitempty"`
	Positive       []int          `yaml:"positive,omitempty"`
	Negative       []int          `yaml:"negative,omitempty"`
	Filter         *schema.Filter `yaml:"filter,omitempty"`
	Limit          int            `yaml:"limit,omitempty"`
	ScoreThreshold *float32       `yaml:"scoreThreshold,omitempty"`
	// Fields selects the payload fields printed as "a | b"; empty prints the whole payload.
	Fields []string `yaml:"fields,omitempty"`
}

// LoadRequest pairs records, vectors and ids position by position.
type LoadRequest struct {
	Collection string
	Records    []schema.Record
	Vectors    [][]float32
	IDs        []string
}

// QueryRequest runs Queries against Collection.
type QueryRequest struct {
	Collection string
	// IDs resolves the example indexes of recommend queries.
	IDs     []string
	Queries []QuerySpec
	// Quiet suppresses printing.
	Quiet bool
}

// QueryResult holds the hits of one query; Skipped is set when the store does not support it.
type QueryResult struct {
	Spec    QuerySpec
	Hits    []schema.Hit
	Skipped bool
}

// RunRequest defines one linear run: generate, embed, reset, load, query.
type RunRequest struct {
	Source     dataset.Source
	Text       dataset.TextFunc
	Collection schema.Collection
	Queries    []QuerySpec
	// SkipLoad queries an existing collection without resetting or loading it.
	SkipLoad bool
	Quiet    bool
}

// RunResult reports what a run produced.
type RunResult struct {
	Records []schema.Record
	IDs     []string
	Loaded  int
	Results []QueryResult
}
