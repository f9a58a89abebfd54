package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	logger "github.com/PolarWolf314/keyward/internal/logging"
)

// Entry represents a single audit log entry.
type Entry struct {
	ID        string `json:"id"`   // Random UUID, unique per entry.
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Local account running keyward.
	Operation string `json:"op"`   // keygen, encrypt, decrypt, seal, unseal.

	// Optional fields depending on operation.
	Key   string   `json:"key,omitempty"`   // Key path, or "inline" for PEM arguments.
	Files []string `json:"files,omitempty"` // For seal/unseal of files.
	Names []string `json:"names,omitempty"` // For seal of named values.
	Mode  string   `json:"mode,omitempty"`  // Envelope mode.
	Error string   `json:"error,omitempty"` // Set when the operation failed.
}

// Logger appends entries to a JSON Lines file. A Logger with an empty Path
// discards entries.
type Logger struct {
	Path string

	mu sync.Mutex
}

// New returns a Logger writing to path.
func New(path string) *Logger {
	return &Logger{Path: path}
}

// Begin starts an entry for op with the id, timestamp and user filled in.
func Begin(op string) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000000Z"),
		Operation: op,
	}
	if u, err := user.Current(); err == nil {
		entry.User = u.Username
	}
	return entry
}

// KeyRef describes a key argument without recording key material.
func KeyRef(keyOrPath string) string {
	if strings.Contains(keyOrPath, "-----BEGIN ") || strings.HasPrefix(keyOrPath, "ssh-rsa ") {
		return "inline"
	}
	return keyOrPath
}

// Log appends an entry to the audit log.
// If logging fails, it logs a warning but does not return an error.
// Operations should not fail just because audit logging failed.
func (l *Logger) Log(entry Entry) {
	if l == nil || l.Path == "" {
		return
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		logger.L().Warnf("Failed to encode audit entry: %v", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.Path), 0700); err != nil {
		logger.L().Warnf("Failed to create audit log directory: %v", err)
		return
	}

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		logger.L().Warnf("Failed to open audit log: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		logger.L().Warnf("Failed to write audit log: %v", err)
	}
}

// Record logs entry, marking it failed when err is non-nil.
func (l *Logger) Record(entry Entry, err error) {
	if err != nil {
		entry.Error = err.Error()
	}
	l.Log(entry)
}

// ReadEntries returns every entry in the log at path, oldest first. A
// missing log has no entries.
func ReadEntries(path string) ([]Entry, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data)
}

// ParseEntries decodes JSON lines. Lines that do not decode, such as a
// record torn by a crash mid-write, are skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if json.Unmarshal(line, &entry) == nil {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
