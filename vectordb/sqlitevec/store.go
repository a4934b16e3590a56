package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlite-vec/vector"
	"github.com/viant/vecdemo/metrics"
	"github.com/viant/vecdemo/schema"
	"github.com/viant/vecdemo/vectordb"
)

// Name identifies the store in logs and metrics.
const Name = "sqlite"

// Store is a local, single-file vector store on SQLite. It stands in for a
// vector-database service: scoring is brute force and recommendation uses
// the average-vector strategy.
type Store struct {
	db            *sql.DB
	dsn           string
	wal           bool
	busyTimeoutMS int
	openedLocally bool
}

// Option configures the sqlite store.
type Option func(*Store)

// WithDB sets an existing *sql.DB to use.
func WithDB(db *sql.DB) Option {
	return func(s *Store) { s.db = db }
}

// WithDSN sets the SQLite DSN to open (e.g. /path/to/vecdemo.sqlite).
func WithDSN(dsn string) Option {
	return func(s *Store) { s.dsn = dsn }
}

// WithWAL switches a file database to write-ahead logging.
func WithWAL(enabled bool) Option {
	return func(s *Store) { s.wal = enabled }
}

// WithBusyTimeout sets how long writers wait on a locked database.
func WithBusyTimeout(timeout time.Duration) Option {
	return func(s *Store) { s.busyTimeoutMS = int(timeout / time.Millisecond) }
}

// NewStore opens/initializes the store.
func NewStore(ctx context.Context, opts ...Option) (*Store, error) {
	s := &Store{busyTimeoutMS: defaultBusyTimeoutMS}
	for _, opt := range opts {
		opt(s)
	}
	if s.db == nil {
		if s.dsn == "" {
			return nil, fmt.Errorf("sqlitevec: dsn required")
		}
		db, err := engine.Open(withPragmas(s.dsn, s.wal, s.busyTimeoutMS))
		if err != nil {
			return nil, err
		}
		s.db = db
		if s.dsn == ":memory:" {
			// every connection of an in-memory DSN is a separate database
			s.db.SetMaxOpenConns(1)
		} else {
			s.db.SetMaxOpenConns(4)
			s.db.SetMaxIdleConns(4)
		}
		s.openedLocally = true
	}
	if err := s.ensureSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying DB if Store opened it.
func (s *Store) Close() error {
	if s.openedLocally && s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vec_collection (
			name        TEXT PRIMARY KEY,
			description TEXT,
			dimension   INTEGER NOT NULL,
			distance    TEXT NOT NULL,
			fields      TEXT,
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS vec_point (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			payload    TEXT,
			embedding  BLOB,
			PRIMARY KEY (collection, id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ResetCollection drops the collection and its points, then recreates it.
func (s *Store) ResetCollection(ctx context.Context, collection schema.Collection) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "reset", start, err) }()
	if err = collection.Validate(); err != nil {
		return err
	}
	fields, err := json.Marshal(collection.Fields)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err = tx.ExecContext(ctx, `DELETE FROM vec_point WHERE collection = ?`, collection.Name); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM vec_collection WHERE name = ?`, collection.Name); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO vec_collection(name, description, dimension, distance, fields) VALUES(?,?,?,?,?)`,
		collection.Name, collection.Description, collection.Dimension, string(collection.Distance), string(fields)); err != nil {
		return err
	}
	return tx.Commit()
}

// Collection returns the stored declaration of name.
func (s *Store) Collection(ctx context.Context, name string) (*schema.Collection, error) {
	var out schema.Collection
	var distance string
	var fields sql.NullString
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT name, description, dimension, distance, fields FROM vec_collection WHERE name = ?`, name).
		Scan(&out.Name, &description, &out.Dimension, &distance, &fields)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", vectordb.ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	out.Description = description.String
	out.Distance = schema.Distance(distance)
	if fields.Valid && fields.String != "" && fields.String != "null" {
		if err := json.Unmarshal([]byte(fields.String), &out.Fields); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// Upsert writes all points in one transaction.
func (s *Store) Upsert(ctx context.Context, collection string, points []schema.Point) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "upsert", start, err) }()
	coll, err := s.Collection(ctx, collection)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vec_point(collection, id, payload, embedding) VALUES(?,?,?,?)
ON CONFLICT(collection, id) DO UPDATE SET
	payload=excluded.payload,
	embedding=excluded.embedding`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, point := range points {
		if point.ID == "" {
			return fmt.Errorf("sqlitevec: point id is required")
		}
		if len(point.Vector) != coll.Dimension {
			return fmt.Errorf("%w: point %s has %d, collection %s expects %d", vectordb.ErrDimension, point.ID, len(point.Vector), collection, coll.Dimension)
		}
		payload, err := encodePayload(point.Payload)
		if err != nil {
			return err
		}
		blob, err := vector.EncodeEmbedding(point.Vector)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, collection, point.ID, payload, blob); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Search ranks every point of the collection against the query vector.
func (s *Store) Search(ctx context.Context, req vectordb.SearchRequest) (hits []schema.Hit, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "search", start, err) }()
	coll, err := s.Collection(ctx, req.Collection)
	if err != nil {
		return nil, err
	}
	if len(req.Vector) != coll.Dimension {
		return nil, fmt.Errorf("%w: query has %d, collection %s expects %d", vectordb.ErrDimension, len(req.Vector), req.Collection, coll.Dimension)
	}
	return s.rank(ctx, coll, req.Vector, req.Filter, nil, vectordb.Limit(req.Limit), req.ScoreThreshold)
}

// Recommend scores candidates against avg(positive) + (avg(positive) - avg(negative)).
// Example points are never returned.
func (s *Store) Recommend(ctx context.Context, req vectordb.RecommendRequest) (hits []schema.Hit, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "recommend", start, err) }()
	if len(req.Positive) == 0 {
		return nil, fmt.Errorf("sqlitevec: recommend requires at least one positive example")
	}
	coll, err := s.Collection(ctx, req.Collection)
	if err != nil {
		return nil, err
	}
	positive, err := s.vectors(ctx, req.Collection, req.Positive)
	if err != nil {
		return nil, err
	}
	negative, err := s.vectors(ctx, req.Collection, req.Negative)
	if err != nil {
		return nil, err
	}
	target := average(positive, coll.Dimension)
	if len(negative) > 0 {
		neg := average(negative, coll.Dimension)
		for i := range target {
			target[i] = target[i] + (target[i] - neg[i])
		}
	}
	exclude := make(map[string]bool, len(req.Positive)+len(req.Negative))
	for _, id := range req.Positive {
		exclude[id] = true
	}
	for _, id := range req.Negative {
		exclude[id] = true
	}
	return s.rank(ctx, coll, target, req.Filter, exclude, vectordb.Limit(req.Limit), req.ScoreThreshold)
}

// Get returns points by id in request order.
func (s *Store) Get(ctx context.Context, collection string, ids []string) (points []schema.Point, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "get", start, err) }()
	if _, err = s.Collection(ctx, collection); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	byID, err := s.load(ctx, collection, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if point, ok := byID[id]; ok {
			points = append(points, point)
		}
	}
	return points, nil
}

// Count returns the number of points in the collection.
func (s *Store) Count(ctx context.Context, collection string) (count int, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(Name, "count", start, err) }()
	if _, err = s.Collection(ctx, collection); err != nil {
		return 0, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vec_point WHERE collection = ?`, collection).Scan(&count)
	return count, err
}

func (s *Store) vectors(ctx context.Context, collection string, ids []string) ([][]float32, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	byID, err := s.load(ctx, collection, ids)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, 0, len(ids))
	for _, id := range ids {
		point, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("sqlitevec: no point with id %s in %s", id, collection)
		}
		out = append(out, point.Vector)
	}
	return out, nil
}

func (s *Store) load(ctx context.Context, collection string, ids []string) (map[string]schema.Point, error) {
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload, embedding FROM vec_point WHERE collection = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]schema.Point, len(ids))
	for rows.Next() {
		point, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		out[point.ID] = point
	}
	return out, rows.Err()
}

func (s *Store) rank(ctx context.Context, coll *schema.Collection, query []float32, filter *schema.Filter, exclude map[string]bool, limit int, threshold *float32) ([]schema.Hit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload, embedding FROM vec_point WHERE collection = ?`, coll.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ranked := newTopK(coll.Distance, limit)
	for rows.Next() {
		point, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		if exclude[point.ID] || !filter.Matches(point.Payload) {
			continue
		}
		sc, ok := score(coll.Distance, query, point.Vector)
		if !ok {
			continue
		}
		if threshold != nil && !passes(coll.Distance, sc, *threshold) {
			continue
		}
		ranked.push(schema.Hit{ID: point.ID, Score: sc, Payload: point.Payload})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ranked.sorted(), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPoint(row rowScanner) (schema.Point, error) {
	var point schema.Point
	var payload sql.NullString
	var blob []byte
	if err := row.Scan(&point.ID, &payload, &blob); err != nil {
		return point, err
	}
	var err error
	if point.Payload, err = decodePayload(payload.String); err != nil {
		return point, err
	}
	if point.Vector, err = vector.DecodeEmbedding(blob); err != nil {
		return point, err
	}
	return point, nil
}

func encodePayload(payload schema.Record) (string, error) {
	if payload == nil {
		payload = schema.Record{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodePayload keeps integers as int64 and other numbers as float64.
func decodePayload(payloadJSON string) (schema.Record, error) {
	if payloadJSON == "" {
		return schema.Record{}, nil
	}
	decoder := json.NewDecoder(strings.NewReader(payloadJSON))
	decoder.UseNumber()
	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}
	payload := make(schema.Record, len(raw))
	for k, v := range raw {
		payload[k] = fromJSON(v)
	}
	return payload, nil
}

func fromJSON(value interface{}) interface{} {
	switch actual := value.(type) {
	case json.Number:
		if i, err := actual.Int64(); err == nil {
			return i
		}
		f, _ := actual.Float64()
		return f
	case map[string]interface{}:
		out := make(schema.Record, len(actual))
		for k, v := range actual {
			out[k] = fromJSON(v)
		}
		return out
	case []interface{}:
		for i, v := range actual {
			actual[i] = fromJSON(v)
		}
		return actual
	}
	return value
}

func average(vecs [][]float32, dim int) []float32 {
	out := make([]float32, dim)
	if len(vecs) == 0 {
		return out
	}
	for _, v := range vecs {
		for i := 0; i < dim && i < len(v); i++ {
			out[i] += v[i]
		}
	}
	n := float32(len(vecs))
	for i := range out {
		out[i] /= n
	}
	return out
}
