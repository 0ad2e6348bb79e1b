package configs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethan-huo/env/internal/pattern"
)

// Schemas supported by typegen.
var validSchemas = []string{"valibot", "zod", "none"}

// ValidationError describes one invalid config field.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateEnvFiles()...)
	errors = append(errors, c.validateTypegen()...)
	errors = append(errors, c.validateSync()...)

	return errors
}

func (c *Config) validateEnvFiles() []ValidationError {
	var errors []ValidationError
	for path, value := range map[string]string{
		"envFiles.dev":  c.EnvFiles.Dev,
		"envFiles.prod": c.EnvFiles.Prod,
		"envFiles.keys": c.EnvFiles.Keys,
	} {
		if strings.TrimSpace(value) == "" {
			errors = append(errors, ValidationError{Path: path, Message: "must not be empty"})
		}
	}
	if c.EnvFiles.Dev != "" && c.EnvFiles.Dev == c.EnvFiles.Prod {
		errors = append(errors, ValidationError{
			Path:    "envFiles",
			Message: fmt.Sprintf("dev and prod must be different files, both are '%s'", c.EnvFiles.Dev),
		})
	}
	sortErrors(errors)
	return errors
}

func (c *Config) validateTypegen() []ValidationError {
	if c.Typegen == nil {
		return nil
	}

	var errors []ValidationError
	if strings.TrimSpace(c.Typegen.Output) == "" {
		errors = append(errors, ValidationError{Path: "typegen.output", Message: "is required"})
	}
	if !contains(validSchemas, c.Typegen.Schema) {
		errors = append(errors, ValidationError{
			Path:    "typegen.schema",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validSchemas, c.Typegen.Schema),
		})
	}
	for i, prefix := range c.Typegen.PublicPrefix {
		if prefix == "" {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("typegen.publicPrefix[%d]", i),
				Message: "must not be empty",
			})
		}
	}
	return errors
}

func (c *Config) validateSync() []ValidationError {
	if c.Sync == nil {
		return nil
	}

	var errors []ValidationError
	if c.Sync.Timeout < 0 {
		errors = append(errors, ValidationError{
			Path:    "sync.timeout",
			Message: fmt.Sprintf("must not be negative, got %s", c.Sync.Timeout),
		})
	}

	if c.Sync.Convex != nil {
		if glob, err := pattern.Validate(c.Sync.Convex.Exclude); err != nil {
			errors = append(errors, ValidationError{
				Path:    "sync.convex.exclude",
				Message: fmt.Sprintf("invalid pattern '%s': %v", glob, err),
			})
		}
	}

	seen := make(map[string]bool)
	for i, w := range c.Sync.Wrangler {
		prefix := fmt.Sprintf("sync.wrangler[%d]", i)
		if seen[w.Config] {
			errors = append(errors, ValidationError{
				Path:    prefix + ".config",
				Message: fmt.Sprintf("'%s' is configured more than once", w.Config),
			})
		}
		seen[w.Config] = true

		if glob, err := pattern.Validate(w.Exclude); err != nil {
			errors = append(errors, ValidationError{
				Path:    prefix + ".exclude",
				Message: fmt.Sprintf("invalid pattern '%s': %v", glob, err),
			})
		}
		for env := range w.EnvMapping {
			if env != EnvDev && env != EnvProd {
				errors = append(errors, ValidationError{
					Path:    prefix + ".envMapping",
					Message: fmt.Sprintf("unknown environment '%s', want dev or prod", env),
				})
			}
		}
	}
	return errors
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func sortErrors(errors []ValidationError) {
	sort.Slice(errors, func(i, j int) bool { return errors[i].Path < errors[j].Path })
}
