package embeddings

import (
	"context"
	"fmt"
)

// DefaultBatchSize is the number of texts sent per EmbedDocuments call.
const DefaultBatchSize = 64

// Embedder is a minimal interface for computing vector embeddings
// for documents and queries.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EmbedBatches embeds texts in batches of batchSize and returns one vector per
// text, in input order.
func EmbedBatches(ctx context.Context, emb Embedder, texts []string, batchSize int) ([][]float32, error) {
	if emb == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := emb.EmbedDocuments(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-i {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), end-i)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// Query embeds a single text through EmbedDocuments.
func Query(ctx context.Context, emb Embedder, text string) ([]float32, error) {
	vecs, err := emb.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vecs))
	}
	return vecs[0], nil
}
