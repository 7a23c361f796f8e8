package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadym312/AI-Chatbot/internal/domain"
)

func TestStoreThenLookup(t *testing.T) {
	c := New(time.Minute)
	env := domain.Envelope{Type: "text", Content: "hello"}

	_, ok := c.Lookup("text", "hi")
	require.False(t, ok)

	c.Store("text", "hi", env)
	got, ok := c.Lookup("text", "hi")
	require.True(t, ok)
	assert.Equal(t, env, got)
}

func TestKindSeparatesEntries(t *testing.T) {
	c := New(time.Minute)
	c.Store("text", "a cat", domain.Envelope{Type: "text", Content: "meow"})

	_, ok := c.Lookup("image", "a cat")
	assert.False(t, ok, "same prompt under a different kind must miss")

	got, ok := c.Lookup("text", "a cat")
	require.True(t, ok)
	assert.Equal(t, "meow", got.Content)
}

func TestExpiredEntryIsMissButStaysResident(t *testing.T) {
	c := New(time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Store("text", "hi", domain.Envelope{Type: "text", Content: "hello"})

	// Just inside the TTL: still a hit.
	c.now = func() time.Time { return base.Add(time.Minute) }
	_, ok := c.Lookup("text", "hi")
	assert.True(t, ok)

	// Past the TTL: a miss, but the entry is not removed.
	c.now = func() time.Time { return base.Add(time.Minute + time.Second) }
	_, ok = c.Lookup("text", "hi")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestStoreResetsTTLWindow(t *testing.T) {
	c := New(time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Store("text", "hi", domain.Envelope{Type: "text", Content: "first"})

	c.now = func() time.Time { return base.Add(50 * time.Second) }
	c.Store("text", "hi", domain.Envelope{Type: "text", Content: "second"})

	// 70s after the first store but only 20s after the second.
	c.now = func() time.Time { return base.Add(70 * time.Second) }
	got, ok := c.Lookup("text", "hi")
	require.True(t, ok)
	assert.Equal(t, "second", got.Content)
	assert.Equal(t, 1, c.Len())
}

func TestNonPositiveTTLFallsBackToDefault(t *testing.T) {
	c := New(0)
	assert.Equal(t, DefaultTTL, c.ttl)
}
