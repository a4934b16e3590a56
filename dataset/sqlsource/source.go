// Package sqlsource loads records from a SQL query on postgres, mysql, sqlite or bigquery.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/viant/bigquery"
	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlx/io/config"
	"github.com/viant/vecdemo/schema"
)

// Source runs Query and maps each row to a record keyed by column name.
type Source struct {
	Driver string
	DSN    string
	Query  string
	Args   []interface{}
	// DB is used instead of opening Driver/DSN when set.
	DB *sql.DB
	// Logf, when set, receives the detected database dialect.
	Logf func(format string, args ...any)
}

// New returns a source; an empty driver is detected from the DSN.
func New(driver, dsn, query string, args ...interface{}) (*Source, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("sqlsource: query required")
	}
	if driver == "" {
		detected, ok := DetectDriver(dsn)
		if !ok {
			return nil, fmt.Errorf("sqlsource: unable to detect driver from dsn")
		}
		driver = detected
	}
	return &Source{Driver: driver, DSN: dsn, Query: query, Args: args}, nil
}

// DetectDriver infers the sql driver name from a DSN.
func DetectDriver(dsn string) (string, bool) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", false
	}
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres", true
	case strings.HasPrefix(lower, "mysql://"):
		return "mysql", true
	case strings.HasPrefix(lower, "bigquery://"), strings.HasPrefix(lower, "bigquery:"), strings.HasPrefix(lower, "bq://"):
		return "bigquery", true
	case strings.HasPrefix(lower, "file:"), lower == ":memory:", strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".db"):
		return "sqlite", true
	case strings.Contains(lower, "@tcp("), strings.Contains(lower, "@unix("):
		return "mysql", true
	}
	return "", false
}

// Open opens a database for driver, normalizing DSN forms the drivers do not accept.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "sqlite":
		return engine.Open(dsn)
	case "mysql":
		return sql.Open(driver, strings.TrimPrefix(dsn, "mysql://"))
	case "bigquery":
		if rest, ok := strings.CutPrefix(dsn, "bq://"); ok {
			dsn = "bigquery://" + rest
		}
		return sql.Open(driver, dsn)
	}
	return sql.Open(driver, dsn)
}

// Records executes the query.
func (s *Source) Records(ctx context.Context) ([]schema.Record, error) {
	db := s.DB
	if db == nil {
		var err error
		if db, err = Open(s.Driver, s.DSN); err != nil {
			return nil, fmt.Errorf("sqlsource: failed to open %s: %w", s.Driver, err)
		}
		defer func() { _ = db.Close() }()
	}
	if s.Logf != nil {
		s.logDialect(ctx, db)
	}
	rows, err := db.QueryContext(ctx, s.Query, s.Args...)
	if err != nil {
		return nil, fmt.Errorf("sqlsource: query failed: %w", err)
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []schema.Record
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(schema.Record, len(columns))
		for i, name := range columns {
			record[name] = normalize(values[i])
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *Source) logDialect(ctx context.Context, db *sql.DB) {
	dialect, err := config.Dialect(ctx, db)
	if err != nil {
		s.Logf("sqlsource: dialect detection failed: %v", err)
		return
	}
	s.Logf("sqlsource: %s source (%s), multi-value insert: %v", s.Driver, dialect.Name, dialect.Insert.MultiValues())
}

func normalize(v interface{}) interface{} {
	switch actual := v.(type) {
	case []byte:
		return string(actual)
	case time.Time:
		return actual.Format(time.RFC3339)
	}
	return v
}
