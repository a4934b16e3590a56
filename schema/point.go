package schema

// Point is a stored (id, vector, payload) triple.
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector,omitempty"`
	Payload Record    `json:"payload,omitempty"`
}

// Hit is a single ranked result returned by a search or recommendation.
type Hit struct {
	ID      string  `json:"id"`
	Score   float32 `json:"score"`
	Payload Record  `json:"payload,omitempty"`
}

// Match is an equality condition on one payload field.
type Match struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// Filter holds conditions that must all hold.
type Filter struct {
	Must []Match `yaml:"must" json:"must"`
}

// NewFilter returns a filter with a single equality condition.
func NewFilter(key, value string) *Filter {
	return &Filter{Must: []Match{{Key: key, Value: value}}}
}

// IsEmpty reports whether the filter has no conditions.
func (f *Filter) IsEmpty() bool {
	return f == nil || len(f.Must) == 0
}

// Matches evaluates the filter against a payload.
func (f *Filter) Matches(payload Record) bool {
	if f.IsEmpty() {
		return true
	}
	for _, m := range f.Must {
		if _, ok := payload[m.Key]; !ok {
			return false
		}
		if payload.String(m.Key) != m.Value {
			return false
		}
	}
	return true
}
