package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProviderNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "Prefers evening walks", req.Prompt)

		vec := make([]float64, 768)
		vec[0], vec[1] = 3, 4
		_ = json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: vec})
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "")
	values, err := p.Embed(context.Background(), "Prefers evening walks")
	require.NoError(t, err)
	require.Len(t, values, 768)
	assert.InDelta(t, 0.6, values[0], 1e-6)
	assert.InDelta(t, 0.8, values[1], 1e-6)
}

func TestOllamaProviderRejectsWrongDimensions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{1, 2, 3}})
	}))
	defer server.Close()

	_, err := NewOllamaProvider(server.URL, "").Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestOllamaProviderStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewOllamaProvider(server.URL, "").Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "status 404")
}

func TestNormalizeZeroVector(t *testing.T) {
	vec := []float32{0, 0}
	assert.Equal(t, vec, normalizeVector(vec))
	assert.False(t, math.IsNaN(float64(normalizeVector([]float32{1, 0})[0])))
}
