package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/chatlead/internal/resilience"
)

func TestCreateChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "openai/gpt-4o-mini", req.Model)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"name":"Acme"}`}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("key-1", WithBaseURL(srv.URL))
	out, err := c.CreateChatCompletion(context.Background(), ChatRequest{
		Model:    "openai/gpt-4o-mini",
		Messages: []ChatMessage{{Role: "user", Content: "analyze"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Acme"}`, out)
}

func TestCreateChatCompletionRateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("key-1", WithBaseURL(srv.URL))
	_, err := c.CreateChatCompletion(context.Background(), ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestCreateChatCompletionAuthFailureIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("nope", WithBaseURL(srv.URL))
	_, err := c.CreateChatCompletion(context.Background(), ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestCreateChatCompletionEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.CreateChatCompletion(context.Background(), ChatRequest{Model: "m"})
	assert.Error(t, err)
}
