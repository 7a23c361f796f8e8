package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// TranscriptEntry is one prompt/response exchange in the NDJSON log.
type TranscriptEntry struct {
	Time         time.Time `json:"ts"`
	ChatID       string    `json:"chat_id"`
	Prompt       string    `json:"prompt"`
	ResponseType string    `json:"response_type"`
	Response     string    `json:"response"`
}

// TranscriptConfig controls exchange logging.
type TranscriptConfig struct {
	Enabled   bool
	Path      string
	QueueSize int
}

// TranscriptLogger appends exchanges to an NDJSON file from a background
// worker. Record never blocks the request path; entries are dropped when
// the queue is full.
type TranscriptLogger struct {
	file    *os.File
	queue   chan TranscriptEntry
	done    chan struct{}
	enabled bool
}

// NewTranscriptLogger opens the log file and starts the writer goroutine.
// A disabled config returns a no-op logger.
func NewTranscriptLogger(cfg TranscriptConfig) (*TranscriptLogger, error) {
	if !cfg.Enabled {
		return &TranscriptLogger{}, nil
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open transcript log: %w", err)
	}

	l := &TranscriptLogger{
		file:    file,
		queue:   make(chan TranscriptEntry, cfg.QueueSize),
		done:    make(chan struct{}),
		enabled: true,
	}
	go l.run()
	return l, nil
}

// Record enqueues an exchange for writing. Drops the entry if the queue
// is full.
func (l *TranscriptLogger) Record(entry TranscriptEntry) {
	if !l.enabled {
		return
	}
	select {
	case l.queue <- entry:
	default:
		slog.Debug("Transcript queue full, dropping entry", "chat_id", entry.ChatID)
	}
}

func (l *TranscriptLogger) run() {
	defer close(l.done)
	for entry := range l.queue {
		line, err := json.Marshal(entry)
		if err != nil {
			slog.Warn("Failed to marshal transcript entry", "error", err)
			continue
		}
		if _, err := l.file.Write(append(line, '\n')); err != nil {
			slog.Warn("Failed to write transcript entry", "error", err)
		}
	}
}

// Close drains pending entries and closes the log file.
func (l *TranscriptLogger) Close() error {
	if !l.enabled {
		return nil
	}
	close(l.queue)
	<-l.done
	return l.file.Close()
}
