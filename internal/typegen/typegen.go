// Package typegen generates TypeScript accessors for env variables.
//
// The generated env.ts declares one schema for public variables and one for
// private variables, written for valibot, zod, or as plain types when no
// schema library is used. A lazy.ts helper that validates on first access is
// placed next to env.ts once and never overwritten.
package typegen

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"text/template"

	"github.com/ethan-huo/env/internal/dotenv"
)

// Schema libraries.
const (
	SchemaValibot = "valibot"
	SchemaZod     = "zod"
	SchemaNone    = "none"
)

// LazyFile is the helper written next to the generated file.
const LazyFile = "lazy.ts"

type field struct {
	Key string
	URL bool
}

type model struct {
	Public  []field
	Private []field
}

var funcs = template.FuncMap{
	"valibot": func(f field) string {
		if f.URL {
			return "v.pipe(v.string(), v.url())"
		}
		return "v.string()"
	},
	"zod": func(f field) string {
		if f.URL {
			return "z.string().url()"
		}
		return "z.string()"
	},
}

var templates = map[string]*template.Template{
	SchemaValibot: template.Must(template.New(SchemaValibot).Funcs(funcs).Parse(`// Generated by env. Do not edit.
import * as v from 'valibot'

export const publicEnvSchema = v.object({
{{- range .Public}}
  {{.Key}}: {{valibot .}},
{{- end}}
})

export const privateEnvSchema = v.object({
{{- range .Private}}
  {{.Key}}: {{valibot .}},
{{- end}}
})

export type PublicEnv = v.InferOutput<typeof publicEnvSchema>
export type PrivateEnv = v.InferOutput<typeof privateEnvSchema>
`)),
	SchemaZod: template.Must(template.New(SchemaZod).Funcs(funcs).Parse(`// Generated by env. Do not edit.
import { z } from 'zod'

export const publicEnvSchema = z.object({
{{- range .Public}}
  {{.Key}}: {{zod .}},
{{- end}}
})

export const privateEnvSchema = z.object({
{{- range .Private}}
  {{.Key}}: {{zod .}},
{{- end}}
})

export type PublicEnv = z.infer<typeof publicEnvSchema>
export type PrivateEnv = z.infer<typeof privateEnvSchema>
`)),
	SchemaNone: template.Must(template.New(SchemaNone).Parse(`// Generated by env. Do not edit.

export type PublicEnv = {
{{- range .Public}}
  {{.Key}}: string
{{- end}}
}

export type PrivateEnv = {
{{- range .Private}}
  {{.Key}}: string
{{- end}}
}
`)),
}

const lazyValibot = `import * as v from 'valibot'

// lazyEnv validates source against schema on first property access.
export function lazyEnv<T extends v.GenericSchema>(
  schema: T,
  source: Record<string, string | undefined>,
): v.InferOutput<T> {
  let parsed: v.InferOutput<T> | undefined
  return new Proxy({} as v.InferOutput<T>, {
    get(_, key) {
      parsed ??= v.parse(schema, source)
      return (parsed as Record<PropertyKey, unknown>)[key]
    },
  })
}
`

const lazyZod = `import type { z } from 'zod'

// lazyEnv validates source against schema on first property access.
export function lazyEnv<T extends z.ZodTypeAny>(
  schema: T,
  source: Record<string, string | undefined>,
): z.infer<T> {
  let parsed: z.infer<T> | undefined
  return new Proxy({} as z.infer<T>, {
    get(_, key) {
      parsed ??= schema.parse(source)
      return (parsed as Record<PropertyKey, unknown>)[key]
    },
  })
}
`

// Generate renders env.ts for vars using schema.
func Generate(vars []dotenv.Var, schema string) (string, error) {
	tmpl, ok := templates[schema]
	if !ok {
		return "", fmt.Errorf("unknown schema %q", schema)
	}

	var m model
	for _, v := range vars {
		f := field{Key: v.Key, URL: looksLikeURL(v.Value)}
		if v.Scope == dotenv.ScopePublic {
			m.Public = append(m.Public, f)
		} else {
			m.Private = append(m.Private, f)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, m); err != nil {
		return "", fmt.Errorf("rendering %s types: %w", schema, err)
	}
	return buf.String(), nil
}

// LazyContent returns the lazy.ts helper for schema, or "" for none.
func LazyContent(schema string) string {
	switch schema {
	case SchemaValibot:
		return lazyValibot
	case SchemaZod:
		return lazyZod
	default:
		return ""
	}
}

// Options configures Write.
type Options struct {
	Output string
	Schema string
}

// Result describes the files Write produced.
type Result struct {
	Output   string
	LazyPath string

	// LazyWritten is set when lazy.ts did not exist and was created.
	LazyWritten bool

	Public  int
	Private int
}

// Write generates opts.Output and, for schema libraries, a lazy.ts next to
// it when none exists yet.
func Write(vars []dotenv.Var, opts Options) (*Result, error) {
	content, err := Generate(vars, opts.Schema)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(opts.Output), 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(opts.Output, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", opts.Output, err)
	}

	result := &Result{Output: opts.Output}
	result.Public, result.Private = dotenv.CountScopes(vars)

	lazy := LazyContent(opts.Schema)
	if lazy == "" {
		return result, nil
	}

	result.LazyPath = filepath.Join(filepath.Dir(opts.Output), LazyFile)
	if _, err := os.Stat(result.LazyPath); err == nil {
		return result, nil
	}
	if err := os.WriteFile(result.LazyPath, []byte(lazy), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", result.LazyPath, err)
	}
	result.LazyWritten = true
	return result, nil
}

func looksLikeURL(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
