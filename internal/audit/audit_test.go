package audit

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestLog_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)

	log := New(path)
	log.Log(Entry{Operation: "sync", Env: "prod", Target: "convex", Added: []string{"API_KEY"}})
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].RunID != log.RunID() {
		t.Errorf("RunID = %q, want %q", entries[0].RunID, log.RunID())
	}
	if entries[0].Added[0] != "API_KEY" {
		t.Errorf("Added = %v", entries[0].Added)
	}
}

func TestLog_AppendsEntriesWithSharedRunID(t *testing.T) {
	buf := &bufferCloser{}
	log := newLogger(buf)

	log.Log(Entry{Operation: "sync", Env: "dev"})
	log.Log(Entry{Operation: "sync", Env: "prod"})

	entries, err := ParseEntries(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID == "" || entries[0].RunID != entries[1].RunID {
		t.Errorf("entries should share a run id: %q %q", entries[0].RunID, entries[1].RunID)
	}
}

func TestLog_TimestampFormat(t *testing.T) {
	buf := &bufferCloser{}
	newLogger(buf).Log(Entry{Operation: "set"})

	var entry Entry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Failed to unmarshal entry: %v", err)
	}

	if _, err := time.Parse("2006-01-02T15:04:05.000000Z", entry.Timestamp); err != nil {
		t.Errorf("Timestamp %q has unexpected format: %v", entry.Timestamp, err)
	}
}

func TestLog_OmitsEmptyFields(t *testing.T) {
	buf := &bufferCloser{}
	newLogger(buf).Log(Entry{Operation: "rm", Env: "dev", Keys: []string{"OLD"}})

	line := buf.String()
	for _, field := range []string{`"target"`, `"added"`, `"failures"`, `"remote_env"`} {
		if strings.Contains(line, field) {
			t.Errorf("Expected %s to be omitted: %s", field, line)
		}
	}
	if !strings.Contains(line, `"keys":["OLD"]`) {
		t.Errorf("Expected keys in entry: %s", line)
	}
}

func TestLog_ConcurrentWrites(t *testing.T) {
	buf := &bufferCloser{}
	log := newLogger(buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Log(Entry{Operation: "sync", Env: "dev"})
		}()
	}
	wg.Wait()

	entries, _ := ParseEntries(buf.Bytes())
	if len(entries) != 20 {
		t.Errorf("Expected 20 intact entries, got %d", len(entries))
	}
}

func TestLog_NilLogger(t *testing.T) {
	var log *Logger
	log.Log(Entry{Operation: "sync"})
	if err := log.Close(); err != nil {
		t.Errorf("Close on nil logger returned %v", err)
	}
}

func TestClose(t *testing.T) {
	buf := &bufferCloser{}
	if err := newLogger(buf).Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !buf.closed {
		t.Error("underlying writer was not closed")
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := []byte(`{"ts":"2024-01-15T10:30:00.000000Z","op":"sync","env":"dev"}
not json
{"ts":"2024-01-15T10:31:00.000000Z","op":"set","env":"prod"}
`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[1].Operation != "set" || entries[1].Env != "prod" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestParseEntries_EmptyData(t *testing.T) {
	entries, err := ParseEntries(nil)
	if err != nil || entries != nil {
		t.Errorf("ParseEntries(nil) = %v, %v", entries, err)
	}
}

func TestReadEntries_MissingFile(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil || entries != nil {
		t.Errorf("ReadEntries(missing) = %v, %v", entries, err)
	}
}
