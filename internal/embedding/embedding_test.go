package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pepper-tutor/go-brain/internal/config"
)

func TestOpenAIEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer server.Close()

	e := NewOpenAIEmbedder("sk-test", server.URL, "text-embedding-3-small")
	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3 dims, got %d", len(vec))
	}
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := NewOpenAIEmbedder("sk-test", server.URL, "")
	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Error("expected error on 500")
	}
}

func TestOpenAIEmbedder_Identity(t *testing.T) {
	e := NewOpenAIEmbedder("k", "", "text-embedding-3-large")
	id := e.Identity()
	if id.Model != "text-embedding-3-large" || id.Dim != 3072 {
		t.Errorf("unexpected identity %v", id)
	}
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float32{0.5, 0.5},
		})
	}))
	defer server.Close()

	e := NewOllamaEmbedder(server.URL, "test-model")
	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("expected 2 dims, got %d", len(vec))
	}
}

func TestOllamaEmbedder_EmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{}})
	}))
	defer server.Close()

	e := NewOllamaEmbedder(server.URL, "test-model")
	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Error("expected error for empty embedding")
	}
}

func TestGenAIEmbedder_UnknownModelRejected(t *testing.T) {
	if _, err := NewGenAIEmbedder("key", "made-up-model"); err == nil {
		t.Fatal("a model with unknown dimensionality must be rejected at construction")
	}
}

func TestGenAIEmbedder_Identity(t *testing.T) {
	e, err := NewGenAIEmbedder("key", "")
	if err != nil {
		t.Fatalf("NewGenAIEmbedder: %v", err)
	}
	// The default model returns full-width vectors; declaring anything
	// smaller would brick a persisted index on load.
	want := Identity{Model: "gemini-embedding-001", Dim: 3072}
	if got := e.Identity(); got != want {
		t.Errorf("identity = %v, want %v", got, want)
	}
}

func TestIdentity_String(t *testing.T) {
	id := Identity{Model: "nomic-embed-text", Dim: 768}
	if id.String() != "nomic-embed-text/768" {
		t.Errorf("unexpected identity string %q", id.String())
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(config.EmbedderConfig{Provider: "faiss"})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}
