// Package interactionlog persists the append-only record of every
// query/response pair. One process-wide Log instance is shared by all agents;
// writes are serialized and crash-safe (write to a temporary file, then
// atomically swap) so a crash mid-write never leaves a truncated log.
package interactionlog

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultMaxBytes is the rotation ceiling: once the log file grows past it,
// the file is archived and a fresh log is started.
const DefaultMaxBytes = 5 * 1024 * 1024

// Entry is a single recorded interaction.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Modality  string    `json:"modality"`
	ImagePath string    `json:"image_path,omitempty"`
}

// Log is a file-backed append-only interaction log.
type Log struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
}

// Option configures a Log.
type Option func(*Log)

// WithMaxBytes overrides the rotation ceiling.
func WithMaxBytes(n int64) Option {
	return func(l *Log) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// New creates a Log persisting to path, creating parent directories as
// needed.
func New(path string, opts ...Option) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}
	l := &Log{path: path, maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Append adds one entry to the log. Serialized across callers; the caller
// (the agent recorder) swallows any returned error so logging never affects
// the response to the farmer.
func (l *Log) Append(entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.loadLocked()
	entries = append(entries, entry)

	// Rotate when the current file is past the ceiling: archive it and start
	// fresh with just the new entry.
	if info, err := os.Stat(l.path); err == nil && info.Size() > l.maxBytes {
		if err := os.Rename(l.path, l.archivePath()); err != nil {
			slog.Warn("interactionlog: rotation failed", "error", err)
		} else {
			entries = []Entry{entry}
		}
	}

	return l.writeLocked(entries)
}

// Entries returns the recorded entries, newest last. A missing or corrupt
// file reads as empty.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked()
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// loadLocked reads the current log content. Corrupt content self-heals to an
// empty log rather than refusing to record further. Must hold l.mu.
func (l *Log) loadLocked() []Entry {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return []Entry{}
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("interactionlog: corrupt log content, resetting", "path", l.path, "error", err)
		return []Entry{}
	}
	return entries
}

// writeLocked writes the full entry list via a temporary file and atomic
// rename. Must hold l.mu.
func (l *Log) writeLocked(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal log entries")
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return errors.Wrap(err, "write temporary log file")
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return errors.Wrap(err, "replace log file")
	}
	return nil
}

func (l *Log) archivePath() string {
	ext := filepath.Ext(l.path)
	return strings.TrimSuffix(l.path, ext) + ".archive" + ext
}
