// Package chat implements the request pipeline and conversation state.
package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/vadym312/AI-Chatbot/internal/cache"
	"github.com/vadym312/AI-Chatbot/internal/classify"
	"github.com/vadym312/AI-Chatbot/internal/domain"
	"github.com/vadym312/AI-Chatbot/internal/metrics"
)

const (
	// historyTurns caps how much conversation context is forwarded upstream.
	historyTurns = 5

	// Output length limits: plain text gets the full budget, the two-stage
	// image/audio flows use a short completion for the intermediate text.
	textMaxTokens  = 500
	stageMaxTokens = 150
)

// Prompts for the intermediate completion of the two-stage flows.
const (
	imageDescribePrompt = "Condense the user's request into a vivid visual description of the scene in at most 100 words. Respond with the description only."
	audioSpokenPrompt   = "Reply to the user in a natural spoken style suitable for reading aloud, in at most 100 words."
)

// Generator is the slice of the provider client the service needs.
type Generator interface {
	ChatCompletion(ctx context.Context, messages []domain.Turn, maxTokens int) (string, error)
	GenerateImage(ctx context.Context, description string) (string, error)
	SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error)
}

// Service classifies prompts, dispatches to the matching generation flow
// and caches results.
type Service struct {
	gen   Generator
	cache *cache.ResponseCache
}

// NewService creates the chat service.
func NewService(gen Generator, c *cache.ResponseCache) *Service {
	return &Service{gen: gen, cache: c}
}

// Respond turns a prompt plus history into a normalized envelope.
//
// Every invocation returns either an envelope or an error from the fixed
// taxonomy. A region-restricted provider response is downgraded to a plain
// text envelope carrying the region message, so the conversation continues.
func (s *Service) Respond(ctx context.Context, prompt string, history []domain.Turn) (domain.Envelope, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.Envelope{}, domain.ErrInvalidRequest
	}

	intent := classify.Detect(prompt)
	metrics.PromptsClassified.WithLabelValues(string(intent)).Inc()

	if env, ok := s.cache.Lookup(string(intent), prompt); ok {
		return env, nil
	}

	var env domain.Envelope
	var err error
	switch intent {
	case classify.IntentImage:
		env, err = s.respondImage(ctx, prompt)
	case classify.IntentAudio:
		env, err = s.respondAudio(ctx, prompt)
	default:
		env, err = s.respondText(ctx, prompt, history)
	}

	if errors.Is(err, domain.ErrRegionRestricted) {
		// Soft failure: surface the region message as a displayed reply.
		return domain.Envelope{Type: "text", Content: domain.ErrRegionRestricted.Message}, nil
	}
	if err != nil {
		return domain.Envelope{}, err
	}

	s.cache.Store(string(intent), prompt, env)
	return env, nil
}

func (s *Service) respondText(ctx context.Context, prompt string, history []domain.Turn) (domain.Envelope, error) {
	messages := append(TrimHistory(history, historyTurns), domain.Turn{
		Role:    string(domain.RoleUser),
		Content: prompt,
	})

	content, err := s.gen.ChatCompletion(ctx, messages, textMaxTokens)
	if err != nil {
		return domain.Envelope{}, err
	}
	return domain.Envelope{Type: "text", Content: content}, nil
}

func (s *Service) respondImage(ctx context.Context, prompt string) (domain.Envelope, error) {
	description, err := s.gen.ChatCompletion(ctx, []domain.Turn{
		{Role: "system", Content: imageDescribePrompt},
		{Role: string(domain.RoleUser), Content: prompt},
	}, stageMaxTokens)
	if err != nil {
		return domain.Envelope{}, err
	}

	b64, err := s.gen.GenerateImage(ctx, description)
	if err != nil {
		return domain.Envelope{}, err
	}
	if _, err := base64.StdEncoding.DecodeString(b64); err != nil {
		return domain.Envelope{}, domain.ErrMediaProcessing
	}

	return domain.Envelope{
		Type:    "image",
		Content: description,
		URL:     "data:image/png;base64," + b64,
	}, nil
}

func (s *Service) respondAudio(ctx context.Context, prompt string) (domain.Envelope, error) {
	spoken, err := s.gen.ChatCompletion(ctx, []domain.Turn{
		{Role: "system", Content: audioSpokenPrompt},
		{Role: string(domain.RoleUser), Content: prompt},
	}, stageMaxTokens)
	if err != nil {
		return domain.Envelope{}, err
	}

	audio, err := s.gen.SynthesizeSpeech(ctx, spoken, PickVoice(spoken))
	if err != nil {
		return domain.Envelope{}, err
	}

	return domain.Envelope{
		Type:    "audio",
		Content: spoken,
		URL:     "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString(audio),
	}, nil
}

// PickVoice deterministically selects a synthetic voice from simple
// features of the spoken text. Checked in order: question mark, length,
// exclamation mark, then the default.
func PickVoice(text string) string {
	switch {
	case strings.Contains(text, "?"):
		return "nova"
	case len(text) > 200:
		return "onyx"
	case strings.Contains(text, "!"):
		return "fable"
	default:
		return "alloy"
	}
}

// TrimHistory keeps the last n turns, dropping any with roles the
// conversation model does not accept.
func TrimHistory(history []domain.Turn, n int) []domain.Turn {
	valid := make([]domain.Turn, 0, len(history))
	for _, t := range history {
		if domain.Role(t.Role).Valid() {
			valid = append(valid, t)
		}
	}
	if len(valid) > n {
		valid = valid[len(valid)-n:]
	}
	return valid
}
