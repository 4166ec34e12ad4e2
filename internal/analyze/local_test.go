package analyze

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama answers the two endpoints the local backend uses, with
// embeddings chosen per prompt so cosine outcomes are exact.
func fakeOllama(t *testing.T, vectors map[string][]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/embeddings":
			var req ollamaEmbedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			for needle, vec := range vectors {
				if strings.Contains(req.Prompt, needle) {
					json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: vec})
					return
				}
			}
			http.Error(w, "no vector for prompt", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestLocalBackendHealthy(t *testing.T) {
	srv := fakeOllama(t, nil)
	defer srv.Close()

	b := NewLocalBackend(srv.URL, "", ClassCPU, quietLogger())
	assert.NoError(t, b.Healthy(context.Background()))

	srv.Close()
	assert.ErrorIs(t, b.Healthy(context.Background()), ErrBackendDown)
}

func TestLocalBackendCosineScores(t *testing.T) {
	srv := fakeOllama(t, map[string][]float64{
		"profile":  {1, 0},
		"aligned":  {1, 0},
		"opposite": {-1, 0},
		"sideways": {0, 1},
	})
	defer srv.Close()

	b := NewLocalBackend(srv.URL, "test-model", ClassCPU, quietLogger())
	got, err := b.Score(context.Background(), "profile text", []Posting{
		{Title: "aligned", Description: "d"},
		{Title: "opposite", Description: "d"},
		{Title: "sideways", Description: "d"},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.InDelta(t, 0.0, got[1].Score, 1e-9)
	assert.InDelta(t, 0.5, got[2].Score, 1e-9)
	for _, s := range got {
		assert.Equal(t, 0.6, s.Confidence)
	}
}

func TestLocalBackendEmbedErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewLocalBackend(srv.URL, "", ClassCPU, quietLogger())
	_, err := b.Score(context.Background(), "profile", []Posting{{Title: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed profile")
}

func TestCosineGuards(t *testing.T) {
	_, err := cosine([]float64{1, 0}, []float64{1})
	assert.Error(t, err)

	_, err = cosine([]float64{0, 0}, []float64{1, 0})
	assert.Error(t, err)

	c, err := cosine([]float64{1, 2}, []float64{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c, 1e-9)
}

func TestFactorySelectsBackend(t *testing.T) {
	b, err := NewBackend(BackendConfig{Kind: "none"}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "none", b.Name())
	assert.ErrorIs(t, b.Healthy(context.Background()), ErrBackendDown, "none backend is never healthy")

	b, err = NewBackend(BackendConfig{Kind: "local"}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "local", b.Name())

	b, err = NewBackend(BackendConfig{Kind: "claude", AnthropicAPIKey: "sk-test"}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "claude", b.Name())

	_, err = NewBackend(BackendConfig{Kind: "claude"}, quietLogger())
	assert.Error(t, err, "claude without a key must fail at construction")

	_, err = NewBackend(BackendConfig{Kind: "mystery"}, quietLogger())
	assert.Error(t, err)
}
