// Package tabular reads records from CSV, XLSX or XLS files on any afs location.
package tabular

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
	"github.com/viant/vecdemo/schema"
)

// Decoder turns file content into rows; the first row is the header.
type Decoder interface {
	Rows(data []byte) ([][]string, error)
}

// Reader loads a tabular file and maps selected columns into record fields.
type Reader struct {
	URL string
	// Columns maps a header name to a record field; empty keeps every column under its header name.
	Columns map[string]string
	// Limit caps the number of records; zero reads all rows.
	Limit int

	fs       afs.Service
	decoders map[string]Decoder
}

// Option configures the reader.
type Option func(*Reader)

// WithColumns sets the header to field mapping.
func WithColumns(columns map[string]string) Option {
	return func(r *Reader) { r.Columns = columns }
}

// WithLimit caps the number of records returned.
func WithLimit(limit int) Option {
	return func(r *Reader) { r.Limit = limit }
}

// WithFS sets the file service.
func WithFS(fs afs.Service) Option {
	return func(r *Reader) { r.fs = fs }
}

// New creates a reader of URL with csv, xlsx and xls decoders registered.
func New(URL string, opts ...Option) *Reader {
	r := &Reader{URL: URL, fs: afs.New(), decoders: map[string]Decoder{}}
	r.RegisterDecoder(".csv", &csvDecoder{})
	r.RegisterDecoder(".tsv", &csvDecoder{comma: '\t'})
	r.RegisterDecoder(".xlsx", &excelDecoder{})
	r.RegisterDecoder(".xls", &xlsDecoder{})
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterDecoder registers a decoder for a file extension.
func (r *Reader) RegisterDecoder(ext string, decoder Decoder) {
	r.decoders[strings.ToLower(ext)] = decoder
}

// Records reads the file and returns one record per data row.
func (r *Reader) Records(ctx context.Context) ([]schema.Record, error) {
	ext := strings.ToLower(path.Ext(r.URL))
	decoder, ok := r.decoders[ext]
	if !ok {
		return nil, fmt.Errorf("tabular: unsupported file type %q: %s", ext, r.URL)
	}
	exists, err := r.fs.Exists(ctx, r.URL)
	if err != nil {
		return nil, fmt.Errorf("tabular: failed to check %s: %w", r.URL, err)
	}
	if !exists {
		return nil, fmt.Errorf("tabular: file not found: %s", r.URL)
	}
	data, err := r.fs.DownloadWithURL(ctx, r.URL)
	if err != nil {
		return nil, fmt.Errorf("tabular: failed to read %s: %w", r.URL, err)
	}
	rows, err := decoder.Rows(data)
	if err != nil {
		return nil, fmt.Errorf("tabular: failed to decode %s: %w", r.URL, err)
	}
	return r.toRecords(rows)
}

func (r *Reader) toRecords(rows [][]string) ([]schema.Record, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("tabular: %s has no header row", r.URL)
	}
	header := rows[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	mapping := r.Columns
	if len(mapping) == 0 {
		mapping = make(map[string]string, len(index))
		for name := range index {
			mapping[name] = name
		}
	}
	for column := range mapping {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("tabular: %s: missing column %q", r.URL, column)
		}
	}

	var out []schema.Record
	for _, row := range rows[1:] {
		if r.Limit > 0 && len(out) >= r.Limit {
			break
		}
		if isBlank(row) {
			continue
		}
		record := make(schema.Record, len(mapping))
		for column, field := range mapping {
			value := ""
			if i := index[column]; i < len(row) {
				value = row[i]
			}
			record[field] = value
		}
		out = append(out, record)
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
