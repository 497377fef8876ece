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

func TestNormalizeVector(t *testing.T) {
	got := normalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.InDelta(t, 0.8, got[1], 1e-6)

	zero := []float32{0, 0}
	assert.Equal(t, zero, normalizeVector(zero))
}

func TestOllamaProviderNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, []string{"search_query: hello"}, req.Input)
		_ = json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embeddings: [][]float64{{0, 2, 0}}})
	}))
	defer server.Close()

	vec, err := NewOllamaProvider(server.URL, "").Generate(context.Background(), "hello", TaskRetrievalQuery)
	require.NoError(t, err)

	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-6)
}

func TestOllamaProviderRejectsEmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbeddingResponse{})
	}))
	defer server.Close()

	_, err := NewOllamaProvider(server.URL, "tiny").Generate(context.Background(), "hello", TaskRetrievalDocument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty embedding")
}
