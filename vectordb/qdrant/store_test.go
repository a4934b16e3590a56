package qdrant

import (
	"reflect"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/viant/vecdemo/schema"
	"github.com/viant/vecdemo/vectordb"
)

func TestPayloadRoundTrip(t *testing.T) {
	in := schema.Record{
		"dish":    "pho",
		"year":    "2001",
		"rank":    3,
		"price":   float32(2.5),
		"spicy":   true,
		"tags":    []string{"soup", "noodle"},
		"origin":  map[string]any{"country": "Vietnam"},
		"comment": nil,
	}
	values, err := toValueMap(in)
	if err != nil {
		t.Fatalf("toValueMap: %v", err)
	}
	out, err := fromValueMap(values)
	if err != nil {
		t.Fatalf("fromValueMap: %v", err)
	}
	want := schema.Record{
		"dish":    "pho",
		"year":    "2001",
		"rank":    int64(3),
		"price":   float64(2.5),
		"spicy":   true,
		"tags":    []any{"soup", "noodle"},
		"origin":  schema.Record{"country": "Vietnam"},
		"comment": nil,
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("unexpected payload:\n got %#v\nwant %#v", out, want)
	}
}

func TestToFilter(t *testing.T) {
	if toFilter(nil) != nil {
		t.Fatalf("nil filter should map to nil")
	}
	f := toFilter(schema.NewFilter("country", "Australia"))
	if f == nil || len(f.Must) != 1 {
		t.Fatalf("expected one condition, got %+v", f)
	}
	field := f.Must[0].GetField()
	if field.GetKey() != "country" || field.GetMatch().GetKeyword() != "Australia" {
		t.Fatalf("unexpected condition: %+v", field)
	}

	f = toFilter(schema.NewFilter("year", "1999"))
	if f == nil || len(f.Must) != 1 {
		t.Fatalf("expected one condition, got %+v", f)
	}
	should := f.Must[0].GetFilter().GetShould()
	if len(should) != 2 {
		t.Fatalf("expected keyword or integer match, got %+v", f.Must[0])
	}
	if should[0].GetField().GetMatch().GetKeyword() != "1999" || should[1].GetField().GetMatch().GetInteger() != 1999 {
		t.Fatalf("unexpected integer condition: %+v", should)
	}
}

func TestToDistance(t *testing.T) {
	cases := []struct {
		in   schema.Distance
		want qdrant.Distance
		err  bool
	}{
		{in: schema.DistanceCosine, want: qdrant.Distance_Cosine},
		{in: schema.DistanceEuclid, want: qdrant.Distance_Euclid},
		{in: schema.DistanceDot, want: qdrant.Distance_Dot},
		{in: "manhattan", err: true},
	}
	for _, tc := range cases {
		got, err := toDistance(tc.in)
		if tc.err {
			if err == nil {
				t.Fatalf("%s: expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%s: got %v, %v", tc.in, got, err)
		}
	}
}

func TestSearchQuery(t *testing.T) {
	threshold := float32(0.22)
	q := searchQuery(vectordb.SearchRequest{Collection: "food_collection", Vector: []float32{0.1, 0.2}, ScoreThreshold: &threshold})
	if q.GetCollectionName() != "food_collection" {
		t.Fatalf("unexpected collection %q", q.GetCollectionName())
	}
	if q.GetLimit() != vectordb.DefaultLimit {
		t.Fatalf("expected default limit, got %d", q.GetLimit())
	}
	if q.GetScoreThreshold() != threshold {
		t.Fatalf("threshold not set")
	}
	if q.GetFilter() != nil {
		t.Fatalf("unexpected filter")
	}
}

func TestRecommendQuery(t *testing.T) {
	req := vectordb.RecommendRequest{
		Collection: "food_collection",
		Positive:   []string{"7b1f7e7e-4a5d-4c44-9a59-1f6f3c1b2a01"},
		Negative:   []string{"7b1f7e7e-4a5d-4c44-9a59-1f6f3c1b2a02", "7b1f7e7e-4a5d-4c44-9a59-1f6f3c1b2a03"},
		Filter:     schema.NewFilter("country", "Vietnam"),
		Limit:      5,
	}
	q := recommendQuery(req)
	rec := q.GetQuery().GetRecommend()
	if rec == nil {
		t.Fatalf("expected recommend query")
	}
	if len(rec.GetPositive()) != 1 || len(rec.GetNegative()) != 2 {
		t.Fatalf("unexpected examples: %+v", rec)
	}
	if rec.GetPositive()[0].GetId().GetUuid() != req.Positive[0] {
		t.Fatalf("unexpected positive id")
	}
	if rec.GetStrategy() != qdrant.RecommendStrategy_AverageVector {
		t.Fatalf("unexpected strategy %v", rec.GetStrategy())
	}
	if q.GetLimit() != 5 || q.GetFilter() == nil {
		t.Fatalf("limit/filter not applied")
	}
}

func TestPointID(t *testing.T) {
	if got := pointID(qdrant.NewIDNum(42)); got != "42" {
		t.Fatalf("unexpected numeric id %q", got)
	}
	if got := pointID(qdrant.NewID("abc")); got != "abc" {
		t.Fatalf("unexpected uuid id %q", got)
	}
}
