// Package provider implements the client for the upstream generative API.
//
// The provider speaks an OpenAI-compatible HTTPS/JSON surface: chat
// completions, image generation and speech synthesis. Wire details beyond
// what this client sends and reads are owned by the provider.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vadym312/AI-Chatbot/internal/domain"
	"github.com/vadym312/AI-Chatbot/internal/metrics"
)

// Fixed sampling and synthesis parameters (not user-tunable).
const (
	temperature = 0.7

	imageSize    = "1024x1024"
	imageQuality = "standard"

	speechSpeed  = 1.0
	speechFormat = "mp3"
)

// Config holds the provider connection settings.
type Config struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	ImageModel string
	TTSModel   string
	Timeout    time.Duration
}

// Client calls the upstream generative endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	chatModel  string
	imageModel string
	ttsModel   string
	httpClient *http.Client
}

// NewClient creates a provider client. The HTTP client timeout is the
// coarse whole-call ceiling; there are no per-stage timeouts.
func NewClient(cfg Config) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		chatModel:  cfg.ChatModel,
		imageModel: cfg.ImageModel,
		ttsModel:   cfg.TTSModel,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []domain.Turn `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatCompletion sends the message history to the completion endpoint and
// returns the assistant's text.
func (c *Client) ChatCompletion(ctx context.Context, messages []domain.Turn, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrMissingAPIKey
	}

	body, err := c.post(ctx, "/chat/completions", chatRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", domain.ErrMalformedResponse
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", domain.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateImage synthesizes a single image from a visual description and
// returns its base64-encoded PNG payload.
func (c *Client) GenerateImage(ctx context.Context, description string) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrMissingAPIKey
	}

	body, err := c.post(ctx, "/images/generations", imageRequest{
		Model:          c.imageModel,
		Prompt:         description,
		N:              1,
		Size:           imageSize,
		Quality:        imageQuality,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return "", err
	}

	var resp imageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", domain.ErrMalformedResponse
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", domain.ErrEmptyResponse
	}
	return resp.Data[0].B64JSON, nil
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed"`
	ResponseFormat string  `json:"response_format"`
}

// SynthesizeSpeech renders text with the given voice and returns the raw
// compressed audio bytes.
func (c *Client) SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}

	body, err := c.post(ctx, "/audio/speech", speechRequest{
		Model:          c.ttsModel,
		Input:          text,
		Voice:          voice,
		Speed:          speechSpeed,
		ResponseFormat: speechFormat,
	})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, domain.ErrEmptyResponse
	}
	return body, nil
}

// post issues a JSON POST and returns the raw success body. Upstream
// failures come back already classified into the error taxonomy.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(path, "network_error").Inc()
		return nil, domain.ErrNetwork
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(path, "read_error").Inc()
		return nil, domain.ErrNetwork
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		derr := classifyUpstream(resp.StatusCode, body)
		metrics.ProviderCalls.WithLabelValues(path, "upstream_error").Inc()
		metrics.ProviderErrors.WithLabelValues(derr.Code).Inc()
		return nil, derr
	}

	metrics.ProviderCalls.WithLabelValues(path, "ok").Inc()
	return body, nil
}
