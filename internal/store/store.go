// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vadym312/AI-Chatbot/internal/domain"
)

// ErrNotFound is returned when the referenced chat does not exist.
var ErrNotFound = errors.New("chat not found")

// Repository defines the interface for persisting chats and messages.
type Repository interface {
	// CreateChat inserts a new chat thread.
	CreateChat(ctx context.Context, chat *domain.Chat) error

	// GetChat retrieves a chat with its messages in append order.
	// Returns (nil, nil) if the chat does not exist.
	GetChat(ctx context.Context, chatID string) (*domain.Chat, error)

	// ListChats returns all chats without messages, most recently
	// updated first.
	ListChats(ctx context.Context) ([]*domain.Chat, error)

	// DeleteChat removes a chat and its messages.
	// Returns ErrNotFound if the chat does not exist.
	DeleteChat(ctx context.Context, chatID string) error

	// UpdateChatTitle renames a chat. Returns ErrNotFound if the chat
	// does not exist.
	UpdateChatTitle(ctx context.Context, chatID, title string) error

	// AppendMessage appends a message to a chat and bumps the chat's
	// updated_at. Returns ErrNotFound if the chat does not exist.
	AppendMessage(ctx context.Context, msg *domain.Message) error

	// RecentTurns returns the last n messages of a chat as provider
	// turns, oldest first.
	RecentTurns(ctx context.Context, chatID string, n int) ([]domain.Turn, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
