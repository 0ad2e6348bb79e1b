package dotenv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseVars(t *testing.T) {
	record := Record{
		"VITE_API_URL":                  "https://api.example.com",
		"DATABASE_URL":                  "postgres://localhost",
		"PUBLIC_NAME":                   "site",
		"DOTENV_PUBLIC_KEY_DEVELOPMENT": "03abc",
		"LEFTOVER":                      "encrypted:BASE64",
	}

	got := ParseVars(record, nil)
	want := []Var{
		{Key: "DATABASE_URL", Value: "postgres://localhost", Scope: ScopePrivate},
		{Key: "LEFTOVER", Value: "(encrypted)", Scope: ScopePrivate, Encrypted: true},
		{Key: "PUBLIC_NAME", Value: "site", Scope: ScopePublic},
		{Key: "VITE_API_URL", Value: "https://api.example.com", Scope: ScopePublic},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseVars() mismatch (-want +got):\n%s", diff)
	}

	public, private := CountScopes(got)
	if public != 2 || private != 2 {
		t.Errorf("CountScopes() = %d, %d, want 2, 2", public, private)
	}
}

func TestParseVarsCustomPrefixes(t *testing.T) {
	got := ParseVars(Record{"NEXT_PUBLIC_X": "1", "VITE_Y": "2"}, []string{"NEXT_PUBLIC_"})

	scopes := map[string]Scope{}
	for _, v := range got {
		scopes[v.Key] = v.Scope
	}
	if scopes["NEXT_PUBLIC_X"] != ScopePublic || scopes["VITE_Y"] != ScopePrivate {
		t.Errorf("unexpected scopes: %v", scopes)
	}
}

func TestFilterVars(t *testing.T) {
	vars := ParseVars(Record{"VITE_A": "1", "VITE_B": "2", "SECRET": "3"}, nil)

	tests := []struct {
		glob string
		want []string
	}{
		{"", []string{"SECRET", "VITE_A", "VITE_B"}},
		{"VITE_*", []string{"VITE_A", "VITE_B"}},
		{"*_A", []string{"VITE_A"}},
		{"NOPE", nil},
	}

	for _, tt := range tests {
		t.Run(tt.glob, func(t *testing.T) {
			var got []string
			for _, v := range FilterVars(vars, tt.glob) {
				got = append(got, v.Key)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterVars(%q) mismatch (-want +got):\n%s", tt.glob, diff)
			}
		})
	}
}
