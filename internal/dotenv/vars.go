package dotenv

import (
	"sort"
	"strings"

	"github.com/ethan-huo/env/internal/pattern"
)

// Scope classifies a variable as safe to expose to client code or not.
type Scope string

const (
	ScopePublic  Scope = "public"
	ScopePrivate Scope = "private"
)

// DefaultPublicPrefixes are used when no typegen.publicPrefix is configured.
var DefaultPublicPrefixes = []string{"VITE_", "PUBLIC_"}

// Var is a derived, display oriented view of one record entry.
type Var struct {
	Key       string `json:"key" yaml:"key"`
	Value     string `json:"value,omitempty" yaml:"value,omitempty"`
	Scope     Scope  `json:"scope" yaml:"scope"`
	Encrypted bool   `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`
}

// ScopeOf returns the scope of key for the given public prefixes.
func ScopeOf(key string, publicPrefixes []string) Scope {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(key, p) {
			return ScopePublic
		}
	}
	return ScopePrivate
}

// ParseVars converts a record into Vars sorted by key, skipping DOTENV_* keys.
// Values still carrying the encrypted: prefix are masked.
func ParseVars(record Record, publicPrefixes []string) []Var {
	if publicPrefixes == nil {
		publicPrefixes = DefaultPublicPrefixes
	}

	vars := make([]Var, 0, len(record))
	for key, value := range record {
		if isBookkeeping(key) {
			continue
		}
		v := Var{
			Key:   key,
			Value: value,
			Scope: ScopeOf(key, publicPrefixes),
		}
		if IsEncrypted(value) {
			v.Value = MaskedValue
			v.Encrypted = true
		}
		vars = append(vars, v)
	}

	sort.Slice(vars, func(i, j int) bool { return vars[i].Key < vars[j].Key })
	return vars
}

// FilterVars keeps vars whose key matches glob. An empty glob keeps all.
func FilterVars(vars []Var, glob string) []Var {
	if glob == "" {
		return vars
	}
	out := make([]Var, 0, len(vars))
	for _, v := range vars {
		if pattern.Match(v.Key, []string{glob}) {
			out = append(out, v)
		}
	}
	return out
}

// CountScopes returns the number of public and private vars.
func CountScopes(vars []Var) (public, private int) {
	for _, v := range vars {
		if v.Scope == ScopePublic {
			public++
		} else {
			private++
		}
	}
	return public, private
}

func isBookkeeping(key string) bool {
	return pattern.IsBuiltin(key)
}
