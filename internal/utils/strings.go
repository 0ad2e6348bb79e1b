package utils

import (
	"strings"

	"github.com/ethan-huo/env/internal/ui"
)

// FormatPaths formats a slice of paths into a readable string.
func FormatPaths(paths []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, path := range paths {
		b.WriteString("    - ")
		b.WriteString(ui.Path.Sprint(path))
		b.WriteString("\n")
	}
	return b.String()
}

// MaskValue hides all but the first few characters of a secret value.
func MaskValue(value string) string {
	runes := []rune(value)
	switch {
	case len(runes) == 0:
		return ""
	case len(runes) <= 8:
		return strings.Repeat("*", len(runes))
	default:
		return string(runes[:3]) + strings.Repeat("*", 5)
	}
}
