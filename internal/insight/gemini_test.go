package insight

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGemini(t *testing.T, h http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewGeminiClient(GeminiConfig{APIKey: "k3y", Model: "gemini-test", Endpoint: srv.URL})
	require.NoError(t, err)
	return c
}

func TestGemini_Success(t *testing.T) {
	var got geminiRequest
	c := newGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k3y", r.URL.Query().Get("key"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"trend: "},{"text":"improving"}]}},{"content":{"parts":[{"text":"ignored"}]}}]}`))
	})

	text, err := c.Complete(context.Background(), Request{Prompt: "hello", Temperature: 0.7, MaxOutputTokens: 2048})
	require.NoError(t, err)
	assert.Equal(t, "trend: improving", text)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "hello", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 0.7, got.GenerationConfig.Temperature)
	assert.Equal(t, 2048, got.GenerationConfig.MaxOutputTokens)
}

func TestGemini_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantEmpty  bool
		wantStatus int
		wantMsg    string
	}{
		{name: "service message", status: 400, body: `{"error":{"code":400,"message":"API key not valid"}}`, wantStatus: 400, wantMsg: "API key not valid"},
		{name: "no message", status: 503, body: `upstream down`, wantStatus: 503, wantMsg: "API request failed: 503"},
		{name: "malformed body", status: 200, body: `{"candidates":`, wantStatus: 200, wantMsg: "malformed response body"},
		{name: "no candidates", status: 200, body: `{"candidates":[]}`, wantEmpty: true},
		{name: "missing candidates", status: 200, body: `{}`, wantEmpty: true},
		{name: "no parts", status: 200, body: `{"candidates":[{"content":{"parts":[]}}]}`, wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Complete(context.Background(), Request{Prompt: "p"})
			require.Error(t, err)

			if tt.wantEmpty {
				assert.ErrorIs(t, err, ErrEmptyResponse)
				return
			}
			var se *ServiceError
			require.True(t, errors.As(err, &se))
			assert.ErrorIs(t, err, ErrServiceError)
			assert.Equal(t, tt.wantStatus, se.Status)
			assert.Contains(t, se.Message, tt.wantMsg)
		})
	}
}

func TestGemini_TransportErrorRedactsKey(t *testing.T) {
	c, err := NewGeminiClient(GeminiConfig{APIKey: "s3cret", Endpoint: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{Prompt: "p"})
	require.ErrorIs(t, err, ErrServiceError)
	assert.NotContains(t, err.Error(), "s3cret")
}

func TestGemini_RateLimiterHonoursContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(GeminiConfig{APIKey: "k", Endpoint: srv.URL, RequestsPerMinute: 1})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)

	// The second call would wait a minute for a token.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Complete(ctx, Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrServiceError)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(GeminiConfig{})
	assert.Error(t, err)
}
