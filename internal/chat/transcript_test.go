package chat

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptLoggerWritesNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.ndjson")
	l, err := NewTranscriptLogger(TranscriptConfig{Enabled: true, Path: path, QueueSize: 8})
	require.NoError(t, err)

	l.Record(TranscriptEntry{Time: time.Now().UTC(), ChatID: "c1", Prompt: "hi", ResponseType: "text", Response: "hello"})
	l.Record(TranscriptEntry{Time: time.Now().UTC(), ChatID: "c2", Prompt: "draw", ResponseType: "image", Response: "a cat"})
	require.NoError(t, l.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []TranscriptEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e TranscriptEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, entries, 2)
	assert.Equal(t, "c1", entries[0].ChatID)
	assert.Equal(t, "text", entries[0].ResponseType)
	assert.Equal(t, "image", entries[1].ResponseType)
}

func TestTranscriptLoggerDisabledIsNoOp(t *testing.T) {
	l, err := NewTranscriptLogger(TranscriptConfig{Enabled: false})
	require.NoError(t, err)

	l.Record(TranscriptEntry{ChatID: "c1"})
	assert.NoError(t, l.Close())
}
