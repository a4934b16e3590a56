package qdrant

import (
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"github.com/viant/vecdemo/schema"
)

func toValueMap(payload schema.Record) (map[string]*qdrant.Value, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	return qdrant.TryValueMap(normalize(payload).(map[string]any))
}

// normalize converts payload values into the kinds TryValueMap accepts.
func normalize(value any) any {
	switch actual := value.(type) {
	case schema.Record:
		return normalize(map[string]any(actual))
	case map[string]any:
		out := make(map[string]any, len(actual))
		for k, v := range actual {
			out[k] = normalize(v)
		}
		return out
	case []any:
		out := make([]any, len(actual))
		for i, v := range actual {
			out[i] = normalize(v)
		}
		return out
	case []string:
		out := make([]any, len(actual))
		for i, v := range actual {
			out[i] = v
		}
		return out
	case int:
		return int64(actual)
	case int32:
		return int64(actual)
	case float32:
		return float64(actual)
	}
	return value
}

func fromValueMap(values map[string]*qdrant.Value) (schema.Record, error) {
	out := make(schema.Record, len(values))
	for k, v := range values {
		actual, err := fromValue(v)
		if err != nil {
			return nil, fmt.Errorf("payload %s: %w", k, err)
		}
		out[k] = actual
	}
	return out, nil
}

func fromValue(value *qdrant.Value) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch kind := value.GetKind().(type) {
	case *qdrant.Value_NullValue:
		return nil, nil
	case *qdrant.Value_StringValue:
		return kind.StringValue, nil
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue, nil
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue, nil
	case *qdrant.Value_BoolValue:
		return kind.BoolValue, nil
	case *qdrant.Value_StructValue:
		return fromValueMap(kind.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, len(items))
		for i, item := range items {
			v, err := fromValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value kind %T", value.GetKind())
}
