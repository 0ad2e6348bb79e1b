package workflows

import (
	"path/filepath"
	"testing"

	"github.com/ethan-huo/env/internal/audit"

	"github.com/google/go-cmp/cmp"
)

func TestLogFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), audit.DefaultPath)
	writeFile(t, path, `{"ts":"2026-01-02T03:04:05.000000Z","op":"set","env":"dev","keys":["A"]}
{"ts":"2026-01-02T03:04:06.000000Z","op":"sync","env":"dev","target":"convex","added":["A"]}
not json
{"ts":"2026-01-02T03:04:07.000000Z","op":"sync","env":"prod","target":"wrangler wrangler.jsonc","remote_env":"production","removed":["B"],"failures":1}
`)

	tests := []struct {
		name    string
		opts    LogOptions
		wantOps []string
	}{
		{name: "All", opts: LogOptions{}, wantOps: []string{"set", "sync", "sync"}},
		{name: "Operation", opts: LogOptions{Operations: "set, rm"}, wantOps: []string{"set"}},
		{name: "Env", opts: LogOptions{Env: "prod"}, wantOps: []string{"sync"}},
		{name: "LimitKeepsLatest", opts: LogOptions{Limit: 1}, wantOps: []string{"sync"}},
		{name: "Reverse", opts: LogOptions{Reverse: true, Operations: "sync,set"}, wantOps: []string{"sync", "sync", "set"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Path = path
			result, err := Log(tt.opts)
			if err != nil {
				t.Fatalf("Log failed: %v", err)
			}
			if result.Total != 3 {
				t.Errorf("Expected 3 total entries, got %d", result.Total)
			}
			var ops []string
			for _, e := range result.Entries {
				ops = append(ops, e.Operation)
			}
			if diff := cmp.Diff(tt.wantOps, ops); diff != "" {
				t.Errorf("operations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLogMissingFile(t *testing.T) {
	result, err := Log(LogOptions{Path: filepath.Join(t.TempDir(), "none.jsonl")})
	if err != nil || len(result.Entries) != 0 {
		t.Errorf("Expected no entries, got %v, %v", result, err)
	}
}

func TestFormatDetails(t *testing.T) {
	tests := []struct {
		entry audit.Entry
		want  string
	}{
		{audit.Entry{Target: "convex", Added: []string{"A", "B"}, Removed: []string{"C"}}, "convex +2 -1"},
		{audit.Entry{Target: "wrangler w.toml", RemoteEnv: "staging", Updated: []string{"A"}, Failures: 1}, "wrangler w.toml --env staging ~1 1 failed"},
		{audit.Entry{Keys: []string{"API_KEY"}, File: ".env.development"}, "API_KEY .env.development"},
	}
	for _, tt := range tests {
		if got := FormatDetails(tt.entry); got != tt.want {
			t.Errorf("FormatDetails(%+v) = %q, want %q", tt.entry, got, tt.want)
		}
	}
	if got := FormatDateTime("2026-01-02T03:04:05.000000Z"); got != "2026-01-02 03:04:05" {
		t.Errorf("FormatDateTime = %q", got)
	}
}
