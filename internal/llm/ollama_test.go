package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1:8b", req.Model)
		assert.Equal(t, "json", req.Format)
		assert.False(t, req.Stream)
		assert.Equal(t, 500, req.Options.NumPredict)

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "llama3.1:8b",
			Response:        `{"ok": true}`,
			Done:            true,
			PromptEvalCount: 40,
			EvalCount:       10,
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL + "/", Model: "llama3.1:8b", MaxTokens: 500})
	require.NoError(t, err)

	resp, err := provider.Complete(t.Context(), CompletionRequest{Prompt: "analyze"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, resp.Text)
	assert.Equal(t, 50, resp.TokensUsed)
}

func TestOllamaProvider_Complete_EstimatesTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{Model: "mistral", Response: "12345678", Done: true})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "mistral"})
	require.NoError(t, err)

	resp, err := provider.Complete(t.Context(), CompletionRequest{Prompt: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.TokensUsed)
}

func TestOllamaProvider_Complete_RequiresModel(t *testing.T) {
	provider, err := NewOllamaProvider(Config{})
	require.NoError(t, err)

	_, err = provider.Complete(t.Context(), CompletionRequest{Prompt: "analyze"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model must be specified")
}

func TestOllamaProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "model 'nope' not found"})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "nope"})
	require.NoError(t, err)

	_, err = provider.Complete(t.Context(), CompletionRequest{Prompt: "analyze"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models": []}`))
	}))
	defer up.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	p, err := NewOllamaProvider(Config{BaseURL: up.URL})
	require.NoError(t, err)
	assert.True(t, p.IsAvailable(t.Context()))

	p, err = NewOllamaProvider(Config{BaseURL: down.URL})
	require.NoError(t, err)
	assert.False(t, p.IsAvailable(t.Context()))
}
