// Package service wires a record source, an embedder and a vector store into
// the generate, embed, reset, load and query flow of a demo run.
package service

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/viant/vecdemo/embeddings"
	"github.com/viant/vecdemo/vectordb"
)

// Option configures the Service.
type Option func(*Service)

// WithStore sets the vector store.
func WithStore(store vectordb.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithEmbedder sets the embedder.
func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(s *Service) { s.embedder = embedder }
}

// WithBatchSize sets how many texts are embedded per call.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithLogf sets the progress logger.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Service) { s.logf = logf }
}

// WithOutput sets where query results are printed.
func WithOutput(w io.Writer) Option {
	return func(s *Service) { s.out = w }
}

// Service runs the demo operations against one store and one embedder.
type Service struct {
	store     vectordb.Store
	embedder  embeddings.Embedder
	batchSize int
	logf      func(format string, args ...any)
	out       io.Writer
}

// NewService creates a new Service; a store is required.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{batchSize: embeddings.DefaultBatchSize, logf: log.Printf, out: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if s.logf == nil {
		s.logf = func(string, ...any) {}
	}
	return s, nil
}

// Store returns the underlying vector store.
func (s *Service) Store() vectordb.Store { return s.store }

// Close releases the store connection.
func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) resolveEmbedder() (embeddings.Embedder, error) {
	if s.embedder != nil {
		return s.embedder, nil
	}
	return nil, fmt.Errorf("embedder is required")
}
