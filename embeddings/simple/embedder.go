// Package simple provides a deterministic, offline embedder for tests and
// runs without a model service. Texts sharing tokens land close together.
package simple

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/minio/highwayhash"
)

// DefaultDimension matches all-MiniLM-L6-v2.
const DefaultDimension = 384

var key = []byte("vecdemo-simple-embedder-hash-key")

// Embedder returns feature-hashed, L2-normalized bag-of-words vectors.
type Embedder struct {
	Dim int
}

// New constructs a simple deterministic embedder.
func New(dim int) *Embedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Embedder{Dim: dim}
}

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = Vector(doc, e.Dim)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	return Vector(q, e.Dim), nil
}

// Vector embeds text into dim dimensions.
func Vector(text string, dim int) []float32 {
	if dim <= 0 {
		dim = DefaultDimension
	}
	v := make([]float32, dim)
	for _, token := range tokenize(text) {
		sum := highwayhash.Sum64([]byte(token), key)
		idx := int(sum % uint64(dim))
		sign := float32(1)
		if (sum>>63)&1 == 1 {
			sign = -1
		}
		v[idx] += sign
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		// empty or token-free text: fixed unit vector
		u := float32(1 / math.Sqrt(float64(dim)))
		for i := range v {
			v[i] = u
		}
		return v
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
	return v
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
