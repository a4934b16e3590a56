package schema

import (
	"fmt"
	"strings"
)

// Distance names the similarity function used to rank vectors.
type Distance string

const (
	DistanceCosine Distance = "cosine"
	DistanceEuclid Distance = "euclid"
	DistanceDot    Distance = "dot"
)

// ParseDistance normalizes a distance name; empty defaults to cosine.
func ParseDistance(name string) (Distance, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cos", "cosine":
		return DistanceCosine, nil
	case "l2", "euclid", "euclidean":
		return DistanceEuclid, nil
	case "dot", "ip":
		return DistanceDot, nil
	}
	return "", fmt.Errorf("unsupported distance: %q", name)
}

// FieldType describes how a payload field is declared on the service side.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldKeyword FieldType = "keyword"
	FieldInt     FieldType = "int"
	FieldNumber  FieldType = "number"
)

// Field declares one payload field.
type Field struct {
	Name string    `yaml:"name"`
	Type FieldType `yaml:"type"`
}

// Collection is a named, typed container of vectors and payload fields.
type Collection struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Dimension   int      `yaml:"dimension"`
	Distance    Distance `yaml:"distance"`
	Fields      []Field  `yaml:"fields"`
}

// Validate checks the declaration before it is sent to a store.
func (c *Collection) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("collection name is required")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("collection %s: dimension must be positive, got %d", c.Name, c.Dimension)
	}
	if c.Distance == "" {
		c.Distance = DistanceCosine
	}
	return nil
}
