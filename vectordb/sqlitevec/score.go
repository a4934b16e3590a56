package sqlitevec

import (
	"sort"

	"github.com/viant/sqlite-vec/vector"
	"github.com/viant/vecdemo/schema"
)

// score returns the similarity (cosine, dot) or distance (euclid) of a and b.
// ok is false for vectors that cannot be compared, e.g. zero magnitude.
func score(distance schema.Distance, a, b []float32) (float32, bool) {
	switch distance {
	case schema.DistanceEuclid:
		d, err := vector.L2Distance(a, b)
		if err != nil {
			return 0, false
		}
		return float32(d), true
	case schema.DistanceDot:
		if len(a) != len(b) {
			return 0, false
		}
		var dot float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
		}
		return float32(dot), true
	default:
		sim, err := vector.CosineSimilarity(a, b)
		if err != nil {
			return 0, false
		}
		return float32(sim), true
	}
}

// better reports whether score a ranks ahead of b.
func better(distance schema.Distance, a, b float32) bool {
	if distance == schema.DistanceEuclid {
		return a < b
	}
	return a > b
}

// passes applies a score threshold: a minimum similarity, or a maximum distance for euclid.
func passes(distance schema.Distance, sc, threshold float32) bool {
	if distance == schema.DistanceEuclid {
		return sc <= threshold
	}
	return sc >= threshold
}

type topK struct {
	distance schema.Distance
	limit    int
	hits     []schema.Hit
}

func newTopK(distance schema.Distance, limit int) *topK {
	return &topK{distance: distance, limit: limit}
}

func (t *topK) push(hit schema.Hit) {
	t.hits = append(t.hits, hit)
	if len(t.hits) > 4*t.limit {
		t.trim()
	}
}

func (t *topK) trim() {
	sort.SliceStable(t.hits, func(i, j int) bool {
		if t.hits[i].Score == t.hits[j].Score {
			return t.hits[i].ID < t.hits[j].ID
		}
		return better(t.distance, t.hits[i].Score, t.hits[j].Score)
	})
	if len(t.hits) > t.limit {
		t.hits = t.hits[:t.limit]
	}
}

func (t *topK) sorted() []schema.Hit {
	t.trim()
	return t.hits
}
