// Package usage finds process.env references in source files that name
// variables missing from an env file.
package usage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	DefaultGlob        = "**/*.{ts,tsx}"
	DefaultMaxFileSize = 2_000_000
)

// DefaultExcludeDirs are never descended into.
var DefaultExcludeDirs = []string{
	"node_modules", ".git", "dist", "build", "out", ".next", ".turbo",
	"coverage", "storybook-static", "vendor", "tmp",
}

var (
	dotRef     = regexp.MustCompile(`process\.env(?:\?\.|\.)([A-Za-z0-9_]+)`)
	bracketRef = regexp.MustCompile(`process\.env(?:\?\.)?\[\s*(?:'([A-Za-z0-9_]+)'|"([A-Za-z0-9_]+)")\s*\]`)
)

// Issue is a variable referenced in code but absent from the env file.
type Issue struct {
	Key string

	// Locations are "path:line:column" with slash separated relative paths.
	Locations []string
}

// Options configures FindIssues.
type Options struct {
	// EnvKeys are the variables that exist.
	EnvKeys []string

	// Dir is the root to scan, the working directory when empty.
	Dir string

	// Glob selects files relative to Dir. DefaultGlob when empty.
	Glob string

	// MaxFileSize skips larger files. DefaultMaxFileSize when zero.
	MaxFileSize int64

	// ExcludeDirs are directory names to skip. DefaultExcludeDirs when nil.
	ExcludeDirs []string
}

// Ref is one process.env reference within a file.
type Ref struct {
	Key    string
	Offset int
}

// FindIssues scans the files under opts.Dir and reports every referenced
// key missing from opts.EnvKeys, sorted by key.
func FindIssues(opts Options) ([]Issue, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	glob := opts.Glob
	if glob == "" {
		glob = DefaultGlob
	}
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("invalid glob pattern %q", glob)
	}
	maxSize := opts.MaxFileSize
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}
	excludeDirs := opts.ExcludeDirs
	if excludeDirs == nil {
		excludeDirs = DefaultExcludeDirs
	}
	skip := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		skip[d] = true
	}
	known := make(map[string]bool, len(opts.EnvKeys))
	for _, k := range opts.EnvKeys {
		known[k] = true
	}

	missing := make(map[string][]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || skip[d.Name()] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(glob, rel); !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxSize {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		text := string(content)
		for _, ref := range ExtractRefs(text) {
			if known[ref.Key] {
				continue
			}
			line, col := lineColumn(text, ref.Offset)
			missing[ref.Key] = append(missing[ref.Key], fmt.Sprintf("%s:%d:%d", rel, line, col))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(missing))
	for key, locations := range missing {
		issues = append(issues, Issue{Key: key, Locations: locations})
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].Key < issues[j].Key })
	return issues, nil
}

// ExtractRefs returns the process.env.KEY, process.env?.KEY and
// process.env["KEY"] references in text, ordered by offset.
func ExtractRefs(text string) []Ref {
	var refs []Ref
	for _, m := range dotRef.FindAllStringSubmatchIndex(text, -1) {
		refs = append(refs, Ref{Key: text[m[2]:m[3]], Offset: m[0]})
	}
	for _, m := range bracketRef.FindAllStringSubmatchIndex(text, -1) {
		key := ""
		if m[2] >= 0 {
			key = text[m[2]:m[3]]
		} else {
			key = text[m[4]:m[5]]
		}
		refs = append(refs, Ref{Key: key, Offset: m[0]})
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Offset < refs[j].Offset })
	return refs
}

// lineColumn converts a byte offset to a 1-based line and character column.
func lineColumn(text string, offset int) (int, int) {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	line := strings.Count(text[:start], "\n") + 1
	return line, utf8.RuneCountInString(text[start:offset]) + 1
}
