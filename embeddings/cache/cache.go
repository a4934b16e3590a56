// Package cache wraps an Embedder with an LRU keyed by model and text,
// optionally persisted to any afs URL between runs.
package cache

import (
	"bytes"
	"container/list"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/minio/highwayhash"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/bintly"
	"github.com/viant/vecdemo/embeddings"
	"github.com/viant/vecdemo/metrics"
)

const defaultCapacity = 10000

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Option configures the cache.
type Option func(*Embedder)

// WithCapacity bounds the number of cached vectors.
func WithCapacity(capacity int) Option {
	return func(e *Embedder) {
		if capacity > 0 {
			e.capacity = capacity
		}
	}
}

// WithURL sets the location used by Load and Persist.
func WithURL(URL string) Option {
	return func(e *Embedder) { e.URL = URL }
}

// Embedder is a caching embeddings.Embedder.
type Embedder struct {
	URL      string
	inner    embeddings.Embedder
	model    string
	capacity int
	fs       afs.Service

	mu    sync.Mutex
	ll    *list.List
	items map[string]*list.Element
}

type entry struct {
	key string
	vec []float32
}

// New wraps inner; model namespaces the keys so vectors from different models never mix.
func New(inner embeddings.Embedder, model string, opts ...Option) *Embedder {
	e := &Embedder{
		inner:    inner,
		model:    model,
		capacity: defaultCapacity,
		fs:       afs.New(),
		ll:       list.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.items = make(map[string]*list.Element, e.capacity)
	return e
}

// Key returns the cache key of text.
func (e *Embedder) Key(text string) (string, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return "", err
	}
	_, _ = h.Write([]byte(e.model))
	_, _ = h.Write([]byte{'\n'})
	_, _ = h.Write([]byte(text))
	return strconv.FormatUint(h.Sum64(), 16), nil
}

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	keys := make([]string, len(docs))
	var missing []string
	var missingIdx []int
	for i, doc := range docs {
		k, err := e.Key(doc)
		if err != nil {
			return nil, err
		}
		keys[i] = k
		if vec, ok := e.get(k); ok {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			out[i] = vec
			continue
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		missing = append(missing, doc)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	vecs, err := e.inner.EmbedDocuments(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d docs", len(vecs), len(missing))
	}
	for j, idx := range missingIdx {
		out[idx] = vecs[j]
		e.add(keys[idx], vecs[j])
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return embeddings.Query(ctx, e, text)
}

// Len returns the number of cached vectors.
func (e *Embedder) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ll.Len()
}

func (e *Embedder) get(key string) ([]float32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if el, ok := e.items[key]; ok {
		e.ll.MoveToFront(el)
		return cloneVec(el.Value.(*entry).vec), true
	}
	return nil, false
}

func (e *Embedder) add(key string, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if el, ok := e.items[key]; ok {
		el.Value.(*entry).vec = cloneVec(vec)
		e.ll.MoveToFront(el)
		return
	}
	e.items[key] = e.ll.PushFront(&entry{key: key, vec: cloneVec(vec)})
	if e.ll.Len() > e.capacity {
		if back := e.ll.Back(); back != nil {
			e.ll.Remove(back)
			delete(e.items, back.Value.(*entry).key)
		}
	}
}

// Load reads a previously persisted cache; a missing file is not an error.
func (e *Embedder) Load(ctx context.Context) error {
	if e.URL == "" {
		return nil
	}
	if ok, _ := e.fs.Exists(ctx, e.URL); !ok {
		return nil
	}
	data, err := e.fs.DownloadWithURL(ctx, e.URL)
	if err != nil {
		return fmt.Errorf("failed to load embedding cache: %w", err)
	}
	readers := bintly.NewReaders()
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(data); err != nil {
		return err
	}
	var model string
	reader.String(&model)
	if model != e.model {
		return nil
	}
	var count int
	reader.Int(&count)
	// entries are stored most recent first
	for i := 0; i < count; i++ {
		var key string
		reader.String(&key)
		var dim int
		reader.Int(&dim)
		vec := make([]float32, dim)
		for j := range vec {
			reader.Float32(&vec[j])
		}
		e.mu.Lock()
		if _, ok := e.items[key]; !ok && e.ll.Len() < e.capacity {
			e.items[key] = e.ll.PushBack(&entry{key: key, vec: vec})
		}
		e.mu.Unlock()
	}
	return nil
}

// Persist writes the cache to URL, replacing any previous copy.
func (e *Embedder) Persist(ctx context.Context) error {
	if e.URL == "" {
		return nil
	}
	writers := bintly.NewWriters()
	writer := writers.Get()
	defer writers.Put(writer)

	e.mu.Lock()
	writer.String(e.model)
	writer.Int(e.ll.Len())
	for el := e.ll.Front(); el != nil; el = el.Next() {
		item := el.Value.(*entry)
		writer.String(item.key)
		writer.Int(len(item.vec))
		for _, v := range item.vec {
			writer.Float32(v)
		}
	}
	e.mu.Unlock()

	release, err := acquire(e.URL)
	if err != nil {
		return fmt.Errorf("failed to lock embedding cache: %w", err)
	}
	defer release()
	if ok, _ := e.fs.Exists(ctx, e.URL); ok {
		_ = e.fs.Delete(ctx, e.URL)
	}
	return e.fs.Upload(ctx, e.URL, file.DefaultFileOsMode, bytes.NewReader(writer.Bytes()))
}

func cloneVec(vec []float32) []float32 {
	if len(vec) == 0 {
		return nil
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
