// Package dataset produces the payload records that get embedded and loaded.
package dataset

import (
	"context"

	"github.com/viant/vecdemo/schema"
)

// Source produces records; the result is not modified after it is returned.
type Source interface {
	Records(ctx context.Context) ([]schema.Record, error)
}

// TextFunc returns the text to embed for a record.
type TextFunc func(record schema.Record) string

// Field returns a TextFunc embedding a single field.
func Field(name string) TextFunc {
	return func(record schema.Record) string { return record.String(name) }
}

// Texts applies fn to every record.
func Texts(records []schema.Record, fn TextFunc) []string {
	out := make([]string, len(records))
	for i, record := range records {
		out[i] = fn(record)
	}
	return out
}
