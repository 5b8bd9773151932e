package completion_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"printshop-assistant/internal/completion"
)

func completionBody(text string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": text}},
		},
	}
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		json.NewEncoder(w).Encode(completionBody("Sure, here are some options."))
	}))
	defer server.Close()

	client := completion.NewClient(server.URL, "test-key", "test-model")
	text, err := client.Complete(context.Background(), []completion.Message{
		{Role: "user", Content: "show me tees"},
	}, 0.7)

	require.NoError(t, err)
	assert.Equal(t, "Sure, here are some options.", text)
}

func TestComplete_NonRetryableFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := completion.NewClient(server.URL, "test-key", "test-model")
	_, err := client.Complete(context.Background(), []completion.Message{{Role: "user", Content: "hi"}}, 0)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestComplete_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(completionBody("recovered"))
	}))
	defer server.Close()

	client := completion.NewClient(server.URL, "test-key", "test-model")
	text, err := client.Complete(context.Background(), []completion.Message{{Role: "user", Content: "hi"}}, 0)

	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := completion.NewClient(server.URL, "test-key", "test-model")
	_, err := client.Complete(context.Background(), []completion.Message{{Role: "user", Content: "hi"}}, 0)
	assert.Error(t, err)
}
