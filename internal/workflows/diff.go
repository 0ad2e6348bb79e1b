package workflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethan-huo/env/internal/configs"
	kerrors "github.com/ethan-huo/env/internal/errors"
	"github.com/ethan-huo/env/internal/pattern"
	"github.com/ethan-huo/env/internal/remote"
)

// DiffStatus classifies one key of a comparison, from left to right.
type DiffStatus string

const (
	// DiffAdded means the key only exists on the right.
	DiffAdded DiffStatus = "added"
	// DiffRemoved means the key only exists on the left.
	DiffRemoved DiffStatus = "removed"
	// DiffChanged means both sides hold different values.
	DiffChanged DiffStatus = "changed"
	// DiffUnknown means both sides hold the key but the right value is hidden.
	DiffUnknown DiffStatus = "unknown"
)

// HiddenValue stands in for values a remote does not reveal.
const HiddenValue = "(value unknown)"

// DiffEntry is one differing key.
type DiffEntry struct {
	Key    string
	Status DiffStatus
	Left   string
	Right  string
}

// InLeft reports whether the key exists on the left side.
func (e DiffEntry) InLeft() bool {
	return e.Status != DiffAdded
}

// InRight reports whether the key exists on the right side.
func (e DiffEntry) InRight() bool {
	return e.Status != DiffRemoved
}

// DiffResult is a comparison of two sides.
type DiffResult struct {
	LeftLabel  string
	RightLabel string
	Entries    []DiffEntry

	// SkipReason is set when a wrangler target does not apply to the env.
	SkipReason string

	// Warnings describe sides that were treated as empty.
	Warnings []string
}

// ComputeDiff compares left with right after dropping excluded keys.
// Keys with equal values are omitted. Entries are sorted by key.
func ComputeDiff(left, right map[string]string, exclude []string) []DiffEntry {
	entries := []DiffEntry{}
	for key, l := range left {
		if pattern.ShouldExclude(key, exclude) {
			continue
		}
		r, ok := right[key]
		switch {
		case !ok:
			entries = append(entries, DiffEntry{Key: key, Status: DiffRemoved, Left: l})
		case l != r:
			entries = append(entries, DiffEntry{Key: key, Status: DiffChanged, Left: l, Right: r})
		}
	}
	for key, r := range right {
		if _, ok := left[key]; ok || pattern.ShouldExclude(key, exclude) {
			continue
		}
		entries = append(entries, DiffEntry{Key: key, Status: DiffAdded, Right: r})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// DiffOptions configures the diff workflows.
type DiffOptions struct {
	Config *configs.Config

	// Env is the local env compared with a remote.
	Env string

	// Left and Right are the envs compared by DiffEnvs.
	Left  string
	Right string

	// Backends creates the remote stores. Defaults to the CLIs.
	Backends Backends

	// Getenv reads private keys from the process environment. os.Getenv when nil.
	Getenv func(string) string
}

// ParseEnvPair splits "dev:prod" into its two envs.
func ParseEnvPair(pair string) (string, string, error) {
	left, right, ok := strings.Cut(pair, ":")
	if !ok {
		return "", "", fmt.Errorf("%w: %q (want left:right, e.g. dev:prod)", kerrors.ErrUnknownEnv, pair)
	}
	for _, env := range []string{left, right} {
		if env != configs.EnvDev && env != configs.EnvProd {
			return "", "", fmt.Errorf("%w: %q", kerrors.ErrUnknownEnv, env)
		}
	}
	return left, right, nil
}

// DiffEnvs compares two env files. A missing file is treated as empty and
// reported as a warning.
func DiffEnvs(opts DiffOptions) (*DiffResult, error) {
	cfg := configOrDefault(opts.Config)
	result := &DiffResult{LeftLabel: opts.Left, RightLabel: opts.Right}

	records := make([]map[string]string, 2)
	for i, env := range []string{opts.Left, opts.Right} {
		file, err := loadEnvFile(cfg, env, opts.Getenv)
		switch {
		case errors.Is(err, kerrors.ErrFileNotFound):
			result.Warnings = append(result.Warnings, err.Error())
			records[i] = map[string]string{}
		case err != nil:
			return nil, err
		default:
			records[i] = file.Record
		}
	}

	result.Entries = ComputeDiff(records[0], records[1], nil)
	return result, nil
}

// DiffConvex compares the local env with the Convex deployment, using the
// exclude list of sync.convex when configured.
func DiffConvex(ctx context.Context, opts DiffOptions) (*DiffResult, error) {
	cfg := configOrDefault(opts.Config)
	file, err := loadEnvFile(cfg, opts.Env, opts.Getenv)
	if err != nil {
		return nil, err
	}

	backends := opts.backends(cfg)
	remoteValues, err := backends.Convex().ListWithValues(ctx, opts.Env)
	if err != nil {
		return nil, fmt.Errorf("listing convex env: %w", err)
	}

	var exclude []string
	if cfg.Sync != nil && cfg.Sync.Convex != nil {
		exclude = cfg.Sync.Convex.Exclude
	}
	return &DiffResult{
		LeftLabel:  "local",
		RightLabel: "convex",
		Entries:    ComputeDiff(file.Record, remoteValues, exclude),
	}, nil
}

// DiffWrangler compares the local env with every configured worker. Wrangler
// only reveals names, so keys present on both sides are DiffUnknown.
//
// Returns ErrNothingToSync if no wrangler target is configured.
func DiffWrangler(ctx context.Context, opts DiffOptions) ([]*DiffResult, error) {
	cfg := configOrDefault(opts.Config)
	if cfg.Sync == nil || len(cfg.Sync.Wrangler) == 0 {
		return nil, fmt.Errorf("%w: sync.wrangler", kerrors.ErrNothingToSync)
	}

	plans, err := preflight(cfg, []string{opts.Env})
	if err != nil {
		return nil, err
	}

	file, err := loadEnvFile(cfg, opts.Env, opts.Getenv)
	if err != nil {
		return nil, err
	}

	backends := opts.backends(cfg)
	var results []*DiffResult
	for _, plan := range plans {
		res := plan.resolutions[opts.Env]
		label := "wrangler " + plan.target.Config
		if res.Env != "" {
			label += " --env " + res.Env
		}
		result := &DiffResult{LeftLabel: "local", RightLabel: label, SkipReason: res.Reason}
		results = append(results, result)
		if res.Skip {
			continue
		}

		names, err := backends.Wrangler(plan.target.Config).ListNames(ctx, res.Env)
		if err != nil {
			return nil, fmt.Errorf("listing %s secrets: %w", label, err)
		}
		result.Entries = namesDiff(file.Record, names, plan.target.Exclude)
	}
	return results, nil
}

func namesDiff(local map[string]string, names map[string]struct{}, exclude []string) []DiffEntry {
	right := make(map[string]string, len(names))
	for name := range names {
		right[name] = HiddenValue
	}
	entries := ComputeDiff(local, right, exclude)
	for i := range entries {
		if entries[i].Status == DiffChanged {
			entries[i].Status = DiffUnknown
		}
	}
	return entries
}

func (opts DiffOptions) backends(cfg *configs.Config) Backends {
	if opts.Backends != nil {
		return opts.Backends
	}
	return defaultBackends(cfg, ".")
}

// DiffTools are the external programs RunDiffTool accepts.
var DiffTools = []string{"difft", "delta"}

// RunDiffTool renders both sides of result as env files and shows them with
// an external diff program, copying its output to w.
func RunDiffTool(ctx context.Context, runner remote.Runner, tool string, result *DiffResult, w io.Writer) error {
	known := false
	for _, t := range DiffTools {
		known = known || t == tool
	}
	if !known {
		return fmt.Errorf("unsupported diff tool %q (want %s)", tool, strings.Join(DiffTools, " or "))
	}

	dir, err := os.MkdirTemp("", "env-diff-")
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(dir)

	leftPath := filepath.Join(dir, sanitizeLabel(result.LeftLabel)+".env")
	rightPath := filepath.Join(dir, sanitizeLabel(result.RightLabel)+".env")
	if leftPath == rightPath {
		rightPath = filepath.Join(dir, "right-"+filepath.Base(rightPath))
	}

	var left, right strings.Builder
	for _, e := range result.Entries {
		if e.InLeft() {
			fmt.Fprintf(&left, "%s=%s\n", e.Key, e.Left)
		}
		if e.InRight() {
			fmt.Fprintf(&right, "%s=%s\n", e.Key, e.Right)
		}
	}
	if err := os.WriteFile(leftPath, []byte(left.String()), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", leftPath, err)
	}
	if err := os.WriteFile(rightPath, []byte(right.String()), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", rightPath, err)
	}

	out, err := runner.Run(ctx, "", tool, leftPath, rightPath)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out.Stdout); err != nil {
		return err
	}
	// delta exits 1 when the inputs differ.
	if out.ExitCode > 1 || (out.ExitCode == 1 && tool != "delta") {
		return &remote.CommandError{Command: tool, ExitCode: out.ExitCode, Stderr: strings.TrimSpace(out.Stderr)}
	}
	return nil
}

func sanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}
