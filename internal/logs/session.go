// Package logs persists conversation transcripts as JSONL session logs.
package logs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ai/mull/internal/chat"
)

// Session writes one conversation's messages to a per-session directory.
// The full transcript goes to transcript.jsonl; thoughts are additionally
// mirrored to thoughts.jsonl so reasoning traces can be inspected on their
// own.
type Session struct {
	ID        string
	StartTime time.Time
	LogDir    string

	transcript *os.File
	thoughts   *os.File
	mu         sync.Mutex
}

// Entry is one logged line.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
}

// NewSession creates a logging session under baseDir. Each session gets a
// timestamped directory.
func NewSession(baseDir string) (*Session, error) {
	now := time.Now()
	sessionID := now.Format("20060102-150405")
	logDir := filepath.Join(baseDir, sessionID)

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	transcript, err := os.Create(filepath.Join(logDir, "transcript.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript file: %w", err)
	}

	thoughts, err := os.Create(filepath.Join(logDir, "thoughts.jsonl"))
	if err != nil {
		transcript.Close()
		return nil, fmt.Errorf("failed to create thoughts file: %w", err)
	}

	return &Session{
		ID:         sessionID,
		StartTime:  now,
		LogDir:     logDir,
		transcript: transcript,
		thoughts:   thoughts,
	}, nil
}

// Record logs a transcript message. Thoughts also land in the thoughts
// file. Write failures are swallowed; logging must never break the
// conversation.
func (s *Session) Record(msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		Timestamp: msg.CreatedAt,
		Kind:      msg.Kind.String(),
		Content:   msg.Text,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	line := append(data, '\n')

	s.transcript.Write(line)
	if msg.Kind == chat.KindThought {
		s.thoughts.Write(line)
	}
}

// Close closes the session files.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.transcript != nil {
		if err := s.transcript.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.thoughts != nil {
		if err := s.thoughts.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Path returns the log directory path.
func (s *Session) Path() string {
	return s.LogDir
}

// DefaultBaseDir returns the default base directory for session logs,
// ~/.mull/logs, falling back to a temp directory when the home directory
// is unknown.
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "mull", "logs")
	}
	return filepath.Join(home, ".mull", "logs")
}

// ListSessions returns the session IDs under baseDir, oldest first.
func ListSessions(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []string
	for _, entry := range entries {
		if entry.IsDir() {
			sessions = append(sessions, entry.Name())
		}
	}
	return sessions, nil
}

// ReadTranscript reads all entries from a session's transcript.
func ReadTranscript(sessionDir string) ([]Entry, error) {
	content, err := os.ReadFile(filepath.Join(sessionDir, "transcript.jsonl"))
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, line := range splitLines(string(content)) {
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
