package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Exists reports whether path exists. Dangling symlinks count as missing.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LinkResult says what LinkFile did.
type LinkResult int

const (
	// LinkCreated means a new symlink was made.
	LinkCreated LinkResult = iota
	// LinkUnchanged means the symlink already pointed at the target.
	LinkUnchanged
	// LinkReplaced means a symlink to somewhere else was replaced.
	LinkReplaced
	// LinkSkipped means a regular file is in the way and was left alone.
	LinkSkipped
)

// LinkFile makes link a symlink to target. The symlink stores target
// relative to link's directory so the project can be moved. Regular files
// at link are never overwritten.
func LinkFile(target, link string) (LinkResult, error) {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return LinkSkipped, fmt.Errorf("resolving %s: %w", target, err)
	}
	absLink, err := filepath.Abs(link)
	if err != nil {
		return LinkSkipped, fmt.Errorf("resolving %s: %w", link, err)
	}

	dest, err := filepath.Rel(filepath.Dir(absLink), absTarget)
	if err != nil {
		dest = absTarget
	}

	result := LinkCreated
	info, err := os.Lstat(absLink)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink == 0:
		return LinkSkipped, nil
	case err == nil:
		current, readErr := os.Readlink(absLink)
		if readErr == nil && (current == dest || current == absTarget) {
			return LinkUnchanged, nil
		}
		if err := os.Remove(absLink); err != nil {
			return LinkSkipped, fmt.Errorf("removing stale link %s: %w", link, err)
		}
		result = LinkReplaced
	case !os.IsNotExist(err):
		return LinkSkipped, fmt.Errorf("checking %s: %w", link, err)
	}

	if err := os.MkdirAll(filepath.Dir(absLink), 0755); err != nil {
		return LinkSkipped, fmt.Errorf("creating directory for %s: %w", link, err)
	}
	if err := os.Symlink(dest, absLink); err != nil {
		return LinkSkipped, fmt.Errorf("linking %s: %w", link, err)
	}
	return result, nil
}

// AppendMissingLines appends the lines that path does not already
// contain, under header. It creates path when missing and reports whether
// the file changed.
func AppendMissingLines(path, header string, lines []string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	existing := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		existing[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, line := range lines {
		if !existing[line] {
			missing = append(missing, line)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	var b strings.Builder
	b.Write(content)
	if len(content) > 0 {
		if !strings.HasSuffix(string(content), "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if header != "" {
		b.WriteString(header + "\n")
	}
	for _, line := range missing {
		b.WriteString(line + "\n")
	}

	// #nosec G306 -- .gitignore is committed.
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
