package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadym312/AI-Chatbot/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, repo.Close())
	})
	return repo
}

func newChat(title string) *domain.Chat {
	now := time.Now()
	return &domain.Chat{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newMessage(chatID string, role domain.Role, content string) *domain.Message {
	return &domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func TestCreateAndGetChat(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	chat := newChat("My chat")
	require.NoError(t, repo.CreateChat(ctx, chat))

	got, err := repo.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, chat.ID, got.ID)
	assert.Equal(t, "My chat", got.Title)
	assert.Empty(t, got.Messages)
}

func TestGetChatMissing(t *testing.T) {
	repo := newTestStore(t)

	got, err := repo.GetChat(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAppendMessageOrdering(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	chat := newChat("ordering")
	require.NoError(t, repo.CreateChat(ctx, chat))

	for i := 0; i < 5; i++ {
		msg := newMessage(chat.ID, domain.RoleUser, fmt.Sprintf("message %d", i))
		require.NoError(t, repo.AppendMessage(ctx, msg))
	}

	got, err := repo.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 5)
	for i, m := range got.Messages {
		assert.Equal(t, fmt.Sprintf("message %d", i), m.Content)
	}
}

func TestAppendMessageUnknownChat(t *testing.T) {
	repo := newTestStore(t)

	err := repo.AppendMessage(context.Background(), newMessage("missing", domain.RoleUser, "x"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendMessagePersistsMedia(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	chat := newChat("media")
	require.NoError(t, repo.CreateChat(ctx, chat))

	msg := newMessage(chat.ID, domain.RoleAssistant, "a dragon")
	msg.Media = &domain.MediaDescriptor{Kind: domain.MediaImage, URL: "data:image/png;base64,QUJD"}
	require.NoError(t, repo.AppendMessage(ctx, msg))

	got, err := repo.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	require.NotNil(t, got.Messages[0].Media)
	assert.Equal(t, domain.MediaImage, got.Messages[0].Media.Kind)
	assert.Equal(t, "data:image/png;base64,QUJD", got.Messages[0].Media.URL)
}

func TestRecentTurns(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	chat := newChat("turns")
	require.NoError(t, repo.CreateChat(ctx, chat))

	for i := 0; i < 8; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		require.NoError(t, repo.AppendMessage(ctx, newMessage(chat.ID, role, fmt.Sprintf("turn %d", i))))
	}

	turns, err := repo.RecentTurns(ctx, chat.ID, 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	// Last three messages, oldest first.
	assert.Equal(t, "turn 5", turns[0].Content)
	assert.Equal(t, "turn 6", turns[1].Content)
	assert.Equal(t, "turn 7", turns[2].Content)
	assert.Equal(t, "assistant", turns[0].Role)
}

func TestRecentTurnsEmptyChat(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	chat := newChat("empty")
	require.NoError(t, repo.CreateChat(ctx, chat))

	turns, err := repo.RecentTurns(ctx, chat.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestListChatsRecentFirst(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	old := newChat("old")
	old.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.CreateChat(ctx, old))

	recent := newChat("recent")
	require.NoError(t, repo.CreateChat(ctx, recent))

	chats, err := repo.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "recent", chats[0].Title)
	assert.Equal(t, "old", chats[1].Title)
	assert.Empty(t, chats[0].Messages, "listing must not load message bodies")
}

func TestUpdateChatTitle(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	chat := newChat("New chat")
	require.NoError(t, repo.CreateChat(ctx, chat))
	require.NoError(t, repo.UpdateChatTitle(ctx, chat.ID, "renamed"))

	got, err := repo.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)

	assert.ErrorIs(t, repo.UpdateChatTitle(ctx, "missing", "x"), ErrNotFound)
}

func TestDeleteChat(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	chat := newChat("doomed")
	require.NoError(t, repo.CreateChat(ctx, chat))
	require.NoError(t, repo.AppendMessage(ctx, newMessage(chat.ID, domain.RoleUser, "bye")))

	require.NoError(t, repo.DeleteChat(ctx, chat.ID))

	got, err := repo.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, repo.DeleteChat(ctx, chat.ID), ErrNotFound)
}
