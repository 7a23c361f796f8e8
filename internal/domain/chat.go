// Package domain defines the core chat entities shared across the codebase.
package domain

import (
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one the conversation model accepts.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// MediaKind identifies the type of an attached media payload.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
)

// MediaDescriptor references media attached to a message. URL is usually a
// self-contained data URL so the frontend can render it without a second fetch.
type MediaDescriptor struct {
	Kind MediaKind `json:"kind"`
	URL  string    `json:"url"`
}

// Message is a single conversation turn. Messages are immutable once appended.
type Message struct {
	ID        string           `json:"id"`
	ChatID    string           `json:"chat_id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Media     *MediaDescriptor `json:"media,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Chat is an ordered, append-only conversation thread.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Turn is a role/content pair as exchanged with the upstream provider and
// with clients that keep history on their side.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Envelope is the normalized response shape returned to callers.
// Type is "text", "image" or "audio"; URL carries the data URL for media.
type Envelope struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
}
