// Package pattern implements the glob matching used to include and exclude
// variables by name.
//
// A glob supports two wildcards: * matches any run of characters (including
// none) and ? matches exactly one character. Every other character matches
// itself. Patterns are anchored, so "API_*" matches "API_KEY" but not
// "MY_API_KEY".
package pattern

import (
	"regexp"
	"strings"
	"sync"
)

// BuiltinExcludePrefixes are always excluded from every sync target.
// dotenvx stores its key material under DOTENV_*.
var BuiltinExcludePrefixes = []string{"DOTENV_"}

var cache sync.Map // glob -> *regexp.Regexp

// Compile translates a glob into an anchored regular expression.
func Compile(glob string) (*regexp.Regexp, error) {
	if re, ok := cache.Load(glob); ok {
		return re.(*regexp.Regexp), nil
	}

	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	cache.Store(glob, re)
	return re, nil
}

// Match reports whether key matches any of the globs.
func Match(key string, globs []string) bool {
	for _, g := range globs {
		re, err := Compile(g)
		if err != nil {
			continue
		}
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// ShouldExclude reports whether key matches any of the given exclude globs
// or any builtin exclusion prefix.
func ShouldExclude(key string, excludes []string) bool {
	for _, prefix := range BuiltinExcludePrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return Match(key, excludes)
}

// IsBuiltin reports whether key carries a builtin exclusion prefix.
func IsBuiltin(key string) bool {
	return ShouldExclude(key, nil)
}

// Filter returns a copy of values without the keys ShouldExclude rejects.
func Filter(values map[string]string, excludes []string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if ShouldExclude(k, excludes) {
			continue
		}
		out[k] = v
	}
	return out
}

// FilterNames is Filter for a set of names.
func FilterNames(names map[string]struct{}, excludes []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for k := range names {
		if ShouldExclude(k, excludes) {
			continue
		}
		out[k] = struct{}{}
	}
	return out
}

// Validate returns the first glob that does not compile, with its error.
func Validate(globs []string) (string, error) {
	for _, g := range globs {
		if _, err := Compile(g); err != nil {
			return g, err
		}
	}
	return "", nil
}
