package workflows

import (
	"fmt"
	"strings"

	"github.com/ethan-huo/env/internal/audit"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Path is the audit log. audit.DefaultPath when empty.
	Path string

	// Limit keeps only the last N matching entries. Zero keeps all.
	Limit int

	// Reverse puts the most recent entry first.
	Reverse bool

	// Operations is a comma separated list of operations to keep.
	Operations string

	// Env keeps only entries for this env. Empty keeps all.
	Env string
}

// LogResult contains the filtered audit entries.
type LogResult struct {
	Entries []audit.Entry

	// Total is the number of entries before filtering.
	Total int
}

// Log reads and filters the audit log. A missing log yields no entries.
func Log(opts LogOptions) (*LogResult, error) {
	path := opts.Path
	if path == "" {
		path = audit.DefaultPath
	}
	entries, err := audit.ReadEntries(path)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	ops := make(map[string]bool)
	for _, op := range strings.Split(opts.Operations, ",") {
		if op = strings.TrimSpace(op); op != "" {
			ops[op] = true
		}
	}

	result := &LogResult{Total: len(entries)}
	for _, e := range entries {
		if len(ops) > 0 && !ops[e.Operation] {
			continue
		}
		if opts.Env != "" && e.Env != opts.Env {
			continue
		}
		result.Entries = append(result.Entries, e)
	}

	if opts.Limit > 0 && len(result.Entries) > opts.Limit {
		result.Entries = result.Entries[len(result.Entries)-opts.Limit:]
	}
	if opts.Reverse {
		for i, j := 0, len(result.Entries)-1; i < j; i, j = i+1, j-1 {
			result.Entries[i], result.Entries[j] = result.Entries[j], result.Entries[i]
		}
	}
	return result, nil
}

// FormatDetails summarizes the operation specific fields of an entry.
func FormatDetails(e audit.Entry) string {
	var parts []string
	if e.Target != "" {
		target := e.Target
		if e.RemoteEnv != "" {
			target += " --env " + e.RemoteEnv
		}
		parts = append(parts, target)
	}
	if n := len(e.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d", n))
	}
	if n := len(e.Updated); n > 0 {
		parts = append(parts, fmt.Sprintf("~%d", n))
	}
	if n := len(e.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d", n))
	}
	if e.Failures > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", e.Failures))
	}
	if len(e.Keys) > 0 {
		parts = append(parts, strings.Join(e.Keys, ","))
	}
	if e.File != "" && e.Target == "" {
		parts = append(parts, e.File)
	}
	return strings.Join(parts, " ")
}

// FormatDateTime trims an audit timestamp to "YYYY-MM-DD HH:MM:SS".
func FormatDateTime(ts string) string {
	if len(ts) < 19 {
		return ts
	}
	return strings.Replace(ts[:19], "T", " ", 1)
}
