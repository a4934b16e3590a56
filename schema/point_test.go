package schema

import "testing"

func TestFilter_Matches(t *testing.T) {
	payload := Record{"country": "Vietnam", "year": 1999}
	cases := []struct {
		name   string
		filter *Filter
		want   bool
	}{
		{name: "nil", filter: nil, want: true},
		{name: "string match", filter: NewFilter("country", "Vietnam"), want: true},
		{name: "string mismatch", filter: NewFilter("country", "Australia"), want: false},
		{name: "scalar match", filter: NewFilter("year", "1999"), want: true},
		{name: "missing key", filter: NewFilter("dish", ""), want: false},
		{name: "all conditions", filter: &Filter{Must: []Match{{Key: "country", Value: "Vietnam"}, {Key: "year", Value: "2000"}}}, want: false},
	}
	for _, tc := range cases {
		if got := tc.filter.Matches(payload); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseDistance(t *testing.T) {
	for in, want := range map[string]Distance{"": DistanceCosine, "Cosine": DistanceCosine, "l2": DistanceEuclid, "dot": DistanceDot} {
		got, err := ParseDistance(in)
		if err != nil {
			t.Fatalf("ParseDistance(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseDistance(%q) = %q want %q", in, got, want)
		}
	}
	if _, err := ParseDistance("manhattan"); err == nil {
		t.Fatalf("expected error for unsupported distance")
	}
}
