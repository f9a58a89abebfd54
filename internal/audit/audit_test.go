package audit

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLog_CreatesFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "audit.jsonl")

	New(logPath).Log(Entry{Operation: "encrypt", Files: []string{"db.conf"}})

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("Audit log file was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}
}

func TestLog_AppendsEntries(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	l := New(logPath)

	l.Log(Entry{User: "alice", Operation: "keygen"})
	l.Log(Entry{User: "bob", Operation: "seal"})
	l.Log(Entry{User: "carol", Operation: "unseal"})

	entries, err := ReadEntries(logPath)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	expected := []string{"keygen", "seal", "unseal"}
	for i, op := range expected {
		if entries[i].Operation != op {
			t.Errorf("Entry %d: expected op %q, got %q", i, op, entries[i].Operation)
		}
	}
}

func TestLog_FillsIDAndTimestamp(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	l := New(logPath)

	l.Log(Entry{Operation: "decrypt"})
	l.Log(Entry{Operation: "decrypt"})

	entries, err := ReadEntries(logPath)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if len(entries[0].ID) != 36 {
		t.Errorf("Expected UUID id, got %q", entries[0].ID)
	}
	if entries[0].ID == entries[1].ID {
		t.Error("Expected distinct ids")
	}
	if _, err := time.Parse(time.RFC3339Nano, entries[0].Timestamp); err != nil {
		t.Errorf("Timestamp %q is not RFC3339: %v", entries[0].Timestamp, err)
	}
	if !strings.HasSuffix(entries[0].Timestamp, "Z") {
		t.Errorf("Expected UTC timestamp, got %q", entries[0].Timestamp)
	}
}

func TestLog_OmitsEmptyFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	New(logPath).Log(Entry{ID: "fixed", Timestamp: "2024-01-15T10:30:00.000000Z", User: "alice", Operation: "keygen"})

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	for _, field := range []string{"key", "files", "names", "mode", "error"} {
		if _, ok := raw[field]; ok {
			t.Errorf("Expected %q to be omitted", field)
		}
	}
	if raw["id"] != "fixed" {
		t.Errorf("Expected id to be preserved, got %v", raw["id"])
	}
}

func TestLog_EmptyPathDiscards(t *testing.T) {
	dir := t.TempDir()
	New("").Log(Entry{Operation: "encrypt"})

	var nilLogger *Logger
	nilLogger.Log(Entry{Operation: "encrypt"})

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected nothing written, got %v", entries)
	}
}

func TestLog_UnwritablePathDoesNotPanic(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	New(filepath.Join(blocker, "audit.jsonl")).Log(Entry{Operation: "seal"})
}

func TestLog_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	l := New(logPath)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Log(Entry{Operation: "seal", Names: []string{strings.Repeat("n", 200)}})
		}()
	}
	wg.Wait()

	entries, err := ReadEntries(logPath)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 20 {
		t.Errorf("Expected 20 intact entries, got %d", len(entries))
	}
}

func TestRecord_SetsError(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	l := New(logPath)

	l.Record(Begin("decrypt"), errors.New("decrypt conf value error"))
	l.Record(Begin("decrypt"), nil)

	entries, err := ReadEntries(logPath)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Error != "decrypt conf value error" {
		t.Errorf("Expected error to be recorded, got %q", entries[0].Error)
	}
	if entries[1].Error != "" {
		t.Errorf("Expected no error, got %q", entries[1].Error)
	}
}

func TestBegin(t *testing.T) {
	entry := Begin("keygen")
	if entry.Operation != "keygen" {
		t.Errorf("Expected op keygen, got %q", entry.Operation)
	}
	if entry.ID == "" || entry.Timestamp == "" {
		t.Errorf("Expected id and timestamp to be set, got %+v", entry)
	}
}

func TestKeyRef(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/etc/keyward/id_rsa", "/etc/keyward/id_rsa"},
		{"-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----", "inline"},
		{"ssh-rsa AAAAB3Nza user@host", "inline"},
	}

	for _, tt := range tests {
		if got := KeyRef(tt.in); got != tt.want {
			t.Errorf("KeyRef(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseEntries_ValidData(t *testing.T) {
	data := []byte(`{"id":"1","ts":"2024-01-15T10:30:00.000000Z","user":"alice","op":"encrypt"}
{"id":"2","ts":"2024-01-15T10:31:00.000000Z","user":"bob","op":"decrypt"}
`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[1].User != "bob" || entries[1].ID != "2" {
		t.Errorf("Unexpected second entry %+v", entries[1])
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := []byte(`{"id":"1","op":"encrypt"}
not json
{"id":"2","op":"decrypt"}`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries (skipping malformed), got %d", len(entries))
	}
}

func TestReadEntries_Missing(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil || entries != nil {
		t.Errorf("Expected nil, nil for a missing log, got %v, %v", entries, err)
	}
}
