package remote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ConvexStore manages Convex deployment environment variables.
// The env argument of its methods is "prod" for the production deployment;
// anything else targets the dev deployment.
type ConvexStore struct {
	cli cli
}

// NewConvexStore returns a store running the Convex CLI in dir.
func NewConvexStore(runner Runner, packageRunner, dir string) *ConvexStore {
	return &ConvexStore{cli: newCLI(runner, packageRunner, "convex", dir)}
}

// ListWithValues returns every variable of the deployment with its value.
func (s *ConvexStore) ListWithValues(ctx context.Context, env string) (map[string]string, error) {
	out, err := s.cli.run(ctx, -1, withProd([]string{"env", "list"}, env)...)
	if err != nil {
		return nil, err
	}
	return parseConvexList(out.Stdout), nil
}

// BulkWrite sets every secret. The Convex CLI has no batch command, so each
// key is set individually; all keys are attempted and the failures joined.
func (s *ConvexStore) BulkWrite(ctx context.Context, secrets map[string]string, env string) error {
	keys := make([]string, 0, len(secrets))
	for k := range secrets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		// "--" keeps values that start with a dash from being read as flags.
		args := withProd([]string{"env", "set"}, env)
		args = append(args, "--", k, secrets[k])
		if _, err := s.cli.run(ctx, len(args)-1, args...); err != nil {
			errs = append(errs, fmt.Errorf("setting %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Delete removes one variable.
func (s *ConvexStore) Delete(ctx context.Context, key, env string) error {
	args := withProd([]string{"env", "remove"}, env)
	_, err := s.cli.run(ctx, -1, append(args, key)...)
	return err
}

func withProd(args []string, env string) []string {
	if env == "prod" {
		return append(args, "--prod")
	}
	return args
}

// parseConvexList reads the KEY=value lines printed by `convex env list`.
// Lines without an assignment are skipped.
func parseConvexList(stdout string) map[string]string {
	values := make(map[string]string)
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimRight(line, "\r")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		values[key] = value
	}
	return values
}
