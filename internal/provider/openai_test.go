package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadym312/AI-Chatbot/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		ChatModel:  "gpt-4o-mini",
		ImageModel: "dall-e-3",
		TTSModel:   "tts-1",
		Timeout:    5 * time.Second,
	})
}

func TestChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.InDelta(t, 0.7, req.Temperature, 0.001)
		assert.Equal(t, 500, req.MaxTokens)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Paris."}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).ChatCompletion(context.Background(), []domain.Turn{
		{Role: "user", Content: "capital of France?"},
	}, 500)
	require.NoError(t, err)
	assert.Equal(t, "Paris.", got)
}

func TestChatCompletionEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ChatCompletion(context.Background(), nil, 500)
	assert.ErrorIs(t, err, domain.ErrEmptyResponse)
}

func TestChatCompletionMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ChatCompletion(context.Background(), nil, 500)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)

		var req imageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dall-e-3", req.Model)
		assert.Equal(t, 1, req.N)
		assert.Equal(t, "1024x1024", req.Size)
		assert.Equal(t, "standard", req.Quality)
		assert.Equal(t, "b64_json", req.ResponseFormat)

		_, _ = w.Write([]byte(`{"data":[{"b64_json":"QUJD"}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).GenerateImage(context.Background(), "a red dragon")
	require.NoError(t, err)
	assert.Equal(t, "QUJD", got)
}

func TestSynthesizeSpeech(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)

		var req speechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tts-1", req.Model)
		assert.Equal(t, "nova", req.Voice)
		assert.InDelta(t, 1.0, req.Speed, 0.001)
		assert.Equal(t, "mp3", req.ResponseFormat)

		_, _ = w.Write([]byte("raw mp3 bytes"))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).SynthesizeSpeech(context.Background(), "hello?", "nova")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw mp3 bytes"), got)
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient(Config{Timeout: time.Second})

	_, err := c.ChatCompletion(context.Background(), nil, 500)
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	_, err = c.GenerateImage(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	_, err = c.SynthesizeSpeech(context.Background(), "x", "alloy")
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := newTestClient(srv.URL).ChatCompletion(context.Background(), nil, 500)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestUpstreamStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   *domain.Error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, domain.ErrInvalidAPIKey},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, domain.ErrRateLimited},
		{"server error", http.StatusBadGateway, `{}`, domain.ErrModelUnavailable},
		{"region code", http.StatusForbidden, `{"error":{"code":"unsupported_country_region_territory"}}`, domain.ErrRegionRestricted},
		{"region message", http.StatusForbidden, `{"error":{"message":"Country, region, or territory not supported"}}`, domain.ErrRegionRestricted},
		{"content policy", http.StatusBadRequest, `{"error":{"code":"content_policy_violation"}}`, domain.ErrContentPolicy},
		{"safety system", http.StatusBadRequest, `{"error":{"message":"rejected by our safety system"}}`, domain.ErrSafety},
		{"unclassified", http.StatusTeapot, `{}`, domain.ErrProcessing},
		{"garbage body", http.StatusBadRequest, `not even json`, domain.ErrProcessing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyUpstream(tt.status, []byte(tt.body)))
		})
	}
}

func TestUpstreamErrorSurfacedThroughCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateImage(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
