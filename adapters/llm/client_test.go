package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"excelytics/internal/errors"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestChatCompletionWithUsage(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model":"gpt-4o-mini-2024",
			"choices":[{"message":{"role":"assistant","content":"## Findings\nSales lead."}}],
			"usage":{"prompt_tokens":120,"completion_tokens":30,"total_tokens":150}
		}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Timeout: time.Second})
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.ChatCompletionWithUsage(context.Background(), "gpt-4o-mini", "summarize", 256)
	require.NoError(t, err)
	assert.Equal(t, "## Findings\nSales lead.", resp.Content)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 150, resp.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o-mini-2024", resp.Usage.Model)
	assert.Equal(t, "openai", resp.Usage.Provider)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "summarize", got.Messages[1].Content)
}

func TestChatCompletionFailuresAreUpstream(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"quota", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}},
		{"error body with 200", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"message":"bad","type":"invalid_request_error"}}`))
		}},
		{"garbage", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = c.ChatCompletion(context.Background(), "m", "p", 0)
			require.Error(t, err)
			assert.True(t, errors.IsUpstream(err))
		})
	}
}

func TestChatCompletionUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{APIKey: "k", BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)
	_, err = c.ChatCompletion(context.Background(), "m", "p", 10)
	assert.True(t, errors.IsUpstream(err))
}

func TestChatCompletionTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = c.ChatCompletion(context.Background(), "m", "p", 10)
	assert.True(t, errors.IsUpstream(err))
}
