package vectordb

import "errors"

var (
	// ErrUnsupported is returned when a store lacks an operation natively.
	ErrUnsupported = errors.New("vectordb: operation not supported by store")

	// ErrNotFound indicates the collection does not exist.
	ErrNotFound = errors.New("vectordb: collection not found")

	// ErrDimension indicates a vector does not match the collection dimension.
	ErrDimension = errors.New("vectordb: vector dimension mismatch")
)
