package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vadym312/AI-Chatbot/internal/domain"
	"github.com/vadym312/AI-Chatbot/internal/metrics"
	"github.com/vadym312/AI-Chatbot/internal/store"
)

// maxTitleLen bounds chat titles derived from the first user message.
const maxTitleLen = 48

// defaultTitle is the placeholder until the first message names the chat.
const defaultTitle = "New chat"

// Responder produces an assistant reply for a prompt plus history.
type Responder interface {
	Respond(ctx context.Context, prompt string, history []domain.Turn) (domain.Envelope, error)
}

// Manager owns conversation state: the collection of chat threads and the
// message append pipeline.
type Manager struct {
	repo       store.Repository
	responder  Responder
	transcript *TranscriptLogger
	conns      *ConnManager
}

// NewManager creates a conversation manager. transcript and conns may be
// nil when transcript logging or live updates are disabled.
func NewManager(repo store.Repository, responder Responder, transcript *TranscriptLogger, conns *ConnManager) *Manager {
	return &Manager{
		repo:       repo,
		responder:  responder,
		transcript: transcript,
		conns:      conns,
	}
}

// CreateChat starts a new empty chat thread.
func (m *Manager) CreateChat(ctx context.Context) (*domain.Chat, error) {
	now := time.Now()
	chat := &domain.Chat{
		ID:        uuid.NewString(),
		Title:     defaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.repo.CreateChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	slog.Info("Chat created", "chat_id", chat.ID)
	return chat, nil
}

// ListChats returns all chat threads, most recently active first.
func (m *Manager) ListChats(ctx context.Context) ([]*domain.Chat, error) {
	return m.repo.ListChats(ctx)
}

// GetChat returns a chat with its full message history.
func (m *Manager) GetChat(ctx context.Context, chatID string) (*domain.Chat, error) {
	chat, err := m.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, store.ErrNotFound
	}
	return chat, nil
}

// RemoveChat destroys a chat thread and its messages.
func (m *Manager) RemoveChat(ctx context.Context, chatID string) error {
	if err := m.repo.DeleteChat(ctx, chatID); err != nil {
		return err
	}
	if m.conns != nil {
		m.conns.CloseChat(chatID)
	}
	slog.Info("Chat removed", "chat_id", chatID)
	return nil
}

// AppendMessage appends a message to a chat without invoking the provider.
func (m *Manager) AppendMessage(ctx context.Context, chatID string, role domain.Role, content string, media *domain.MediaDescriptor) (*domain.Message, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRequest
	}
	msg := &domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		Media:     media,
		CreatedAt: time.Now(),
	}
	if err := m.repo.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	m.broadcast(chatID, msg)
	return msg, nil
}

// SendMessage runs the full pipeline: validates the prompt, optimistically
// appends the user message, invokes the responder and appends the
// assistant reply. On a responder failure the user message stays appended
// and the classified error is returned; on empty input nothing is appended.
func (m *Manager) SendMessage(ctx context.Context, chatID, content string, media *domain.MediaDescriptor) (*domain.Message, *domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, domain.ErrInvalidRequest
	}

	chat, err := m.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if chat == nil {
		return nil, nil, store.ErrNotFound
	}

	// History is what came before this message.
	history, err := m.repo.RecentTurns(ctx, chatID, historyTurns)
	if err != nil {
		return nil, nil, err
	}

	userMsg, err := m.AppendMessage(ctx, chatID, domain.RoleUser, content, media)
	if err != nil {
		return nil, nil, err
	}
	metrics.MessagesSent.Inc()

	if chat.Title == defaultTitle {
		if err := m.repo.UpdateChatTitle(ctx, chatID, deriveTitle(content)); err != nil {
			slog.Warn("Failed to update chat title", "chat_id", chatID, "error", err)
		}
	}

	env, err := m.responder.Respond(ctx, content, history)
	if err != nil {
		derr := domain.Classify(err)
		slog.Warn("Responder failed", "chat_id", chatID, "code", derr.Code)
		return userMsg, nil, derr
	}

	var assistantMedia *domain.MediaDescriptor
	if env.URL != "" {
		assistantMedia = &domain.MediaDescriptor{
			Kind: domain.MediaKind(env.Type),
			URL:  env.URL,
		}
	}
	assistantMsg, err := m.AppendMessage(ctx, chatID, domain.RoleAssistant, env.Content, assistantMedia)
	if err != nil {
		return userMsg, nil, err
	}

	m.record(chatID, content, env)
	return userMsg, assistantMsg, nil
}

func (m *Manager) broadcast(chatID string, msg *domain.Message) {
	if m.conns == nil {
		return
	}
	m.conns.Broadcast(chatID, wsFrame{Type: "message", Message: msg})
}

func (m *Manager) record(chatID, prompt string, env domain.Envelope) {
	if m.transcript == nil {
		return
	}
	m.transcript.Record(TranscriptEntry{
		Time:         time.Now().UTC(),
		ChatID:       chatID,
		Prompt:       prompt,
		ResponseType: env.Type,
		Response:     env.Content,
	})
}

func deriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	// Truncate on rune boundaries so a cut never splits a multi-byte
	// character.
	runes := []rune(title)
	if len(runes) > maxTitleLen {
		title = strings.TrimSpace(string(runes[:maxTitleLen])) + "…"
	}
	return title
}

// IsNotFound reports whether err means the chat does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
