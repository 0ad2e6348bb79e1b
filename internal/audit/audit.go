package audit

import (
	"encoding/json"
	"io"
	"os"
	"os/user"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultPath is the audit log location relative to the project root.
const DefaultPath = ".env.audit.jsonl"

// Entry represents a single audit log entry. Secret values are never
// recorded, only key names.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	RunID     string `json:"run"`  // Shared by every entry of one command.
	User      string `json:"user"` // Local account running the command.
	Operation string `json:"op"`   // Operation name.
	Env       string `json:"env"`  // dev or prod.

	// Optional fields depending on operation.
	Target    string   `json:"target,omitempty"`     // For sync: convex or wrangler:<config>.
	RemoteEnv string   `json:"remote_env,omitempty"` // For sync: wrangler --env.
	Added     []string `json:"added,omitempty"`      // For sync.
	Updated   []string `json:"updated,omitempty"`    // For sync.
	Removed   []string `json:"removed,omitempty"`    // For sync.
	Failures  int      `json:"failures,omitempty"`   // For sync.
	Keys      []string `json:"keys,omitempty"`       // For set/rm/import.
	File      string   `json:"file,omitempty"`       // For set/rm/import.
}

// Logger appends entries to a size-rotated JSON Lines file.
type Logger struct {
	mu    sync.Mutex
	out   io.WriteCloser
	runID string
	user  string
}

// New returns a logger writing to path. The file is created on first write
// and rotated once it grows past a few megabytes.
func New(path string) *Logger {
	return newLogger(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
	})
}

func newLogger(out io.WriteCloser) *Logger {
	return &Logger{
		out:   out,
		runID: uuid.NewString(),
		user:  currentUser(),
	}
}

// RunID identifies the entries written by this logger.
func (l *Logger) RunID() string {
	return l.runID
}

// Log appends an entry to the audit log.
// If logging fails, it does not return an error.
// Operations should not fail just because audit logging failed.
func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	entry.RunID = l.runID
	if entry.User == "" {
		entry.User = l.user
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(data, '\n'))
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// ReadEntries reads all entries from the audit log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
