package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_OrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Dimensions != 384 {
			t.Errorf("dimensions = %d", req.Dimensions)
		}
		_ = json.NewEncoder(w).Encode(Response{Data: []EmbeddingData{
			{Index: 1, Embedding: []float32{2}},
			{Index: 0, Embedding: []float32{1}},
		}})
	}))
	defer srv.Close()

	c := NewClient("secret", "")
	c.BaseURL = srv.URL
	c.Dimensions = 384
	vecs, _, err := c.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][0] != 2 {
		t.Fatalf("unexpected order: %v", vecs)
	}
}

func TestClient_ErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewClient("x", "")
	c.BaseURL = srv.URL
	e := &Embedder{C: c}
	if _, err := e.EmbedQuery(context.Background(), "q"); err == nil {
		t.Fatalf("expected error")
	}
}
