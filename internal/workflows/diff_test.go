package workflows

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethan-huo/env/internal/configs"
	kerrors "github.com/ethan-huo/env/internal/errors"
	"github.com/ethan-huo/env/internal/remote"

	"github.com/google/go-cmp/cmp"
)

func TestComputeDiff(t *testing.T) {
	left := map[string]string{
		"SAME":                          "1",
		"CHANGED":                       "a",
		"ONLY_LEFT":                     "x",
		"CONVEX_URL":                    "u",
		"DOTENV_PUBLIC_KEY_DEVELOPMENT": "k",
	}
	right := map[string]string{
		"SAME":       "1",
		"CHANGED":    "b",
		"ONLY_RIGHT": "y",
	}

	got := ComputeDiff(left, right, []string{"CONVEX_*"})
	want := []DiffEntry{
		{Key: "CHANGED", Status: DiffChanged, Left: "a", Right: "b"},
		{Key: "ONLY_LEFT", Status: DiffRemoved, Left: "x"},
		{Key: "ONLY_RIGHT", Status: DiffAdded, Right: "y"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ComputeDiff mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEnvPair(t *testing.T) {
	left, right, err := ParseEnvPair("prod:dev")
	if err != nil || left != "prod" || right != "dev" {
		t.Errorf("ParseEnvPair = %q, %q, %v", left, right, err)
	}
	for _, bad := range []string{"dev", "dev:staging", ":prod"} {
		if _, _, err := ParseEnvPair(bad); !errors.Is(err, kerrors.ErrUnknownEnv) {
			t.Errorf("ParseEnvPair(%q) expected ErrUnknownEnv, got %v", bad, err)
		}
	}
}

func TestDiffEnvsMissingFileIsEmpty(t *testing.T) {
	_, cfg := newProject(t)
	writeFile(t, cfg.EnvFiles.Dev, "A=1\n")

	result, err := DiffEnvs(DiffOptions{Config: cfg, Left: "dev", Right: "prod", Getenv: noEnv})
	if err != nil {
		t.Fatalf("DiffEnvs failed: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("Expected one warning, got %v", result.Warnings)
	}
	want := []DiffEntry{{Key: "A", Status: DiffRemoved, Left: "1"}}
	if diff := cmp.Diff(want, result.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffConvex(t *testing.T) {
	_, cfg := newProject(t)
	writeFile(t, cfg.EnvFiles.Prod, "A=1\nB=2\nCONVEX_DEPLOYMENT=x\n")
	cfg.Sync = &configs.Sync{Convex: &configs.ConvexTarget{Exclude: []string{"CONVEX_*"}}}
	convex := newFakeStore(map[string]map[string]string{"prod": {"A": "1", "B": "3", "C": "4"}})

	result, err := DiffConvex(context.Background(), DiffOptions{
		Config:   cfg,
		Env:      "prod",
		Backends: &fakeBackends{convex: convex},
		Getenv:   noEnv,
	})
	if err != nil {
		t.Fatalf("DiffConvex failed: %v", err)
	}
	want := []DiffEntry{
		{Key: "B", Status: DiffChanged, Left: "2", Right: "3"},
		{Key: "C", Status: DiffAdded, Right: "4"},
	}
	if diff := cmp.Diff(want, result.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffWranglerValuesAreUnknown(t *testing.T) {
	dir, cfg := newProject(t)
	writeFile(t, cfg.EnvFiles.Dev, "A=1\nB=2\n")
	workerPath := filepath.Join(dir, "wrangler.jsonc")
	writeFile(t, workerPath, multiEnvWorker)
	cfg.Sync = &configs.Sync{Wrangler: []configs.WranglerTarget{{
		Config:     workerPath,
		EnvMapping: map[string]string{"dev": "staging"},
	}}}
	wrangler := newFakeStore(map[string]map[string]string{"staging": {"B": "", "C": ""}})

	results, err := DiffWrangler(context.Background(), DiffOptions{
		Config:   cfg,
		Env:      "dev",
		Backends: &fakeBackends{wrangler: map[string]*fakeStore{workerPath: wrangler}},
		Getenv:   noEnv,
	})
	if err != nil {
		t.Fatalf("DiffWrangler failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected one result, got %d", len(results))
	}
	want := []DiffEntry{
		{Key: "A", Status: DiffRemoved, Left: "1"},
		{Key: "B", Status: DiffUnknown, Left: "2", Right: HiddenValue},
		{Key: "C", Status: DiffAdded, Right: HiddenValue},
	}
	if diff := cmp.Diff(want, results[0].Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffWranglerNotConfigured(t *testing.T) {
	_, cfg := newProject(t)
	if _, err := DiffWrangler(context.Background(), DiffOptions{Config: cfg, Env: "dev"}); !errors.Is(err, kerrors.ErrNothingToSync) {
		t.Errorf("Expected ErrNothingToSync, got %v", err)
	}
}

func TestRunDiffTool(t *testing.T) {
	result := &DiffResult{
		LeftLabel:  "dev",
		RightLabel: "prod",
		Entries: []DiffEntry{
			{Key: "A", Status: DiffChanged, Left: "1", Right: "2"},
			{Key: "B", Status: DiffRemoved, Left: "x"},
		},
	}

	var leftContent, rightContent string
	runner := &fakeRunner{
		out: remote.Output{ExitCode: 1, Stdout: "rendered diff\n"},
		onRun: func(args []string) {
			left, _ := os.ReadFile(args[1])
			right, _ := os.ReadFile(args[2])
			leftContent, rightContent = string(left), string(right)
		},
	}

	var out bytes.Buffer
	if err := RunDiffTool(context.Background(), runner, "delta", result, &out); err != nil {
		t.Fatalf("RunDiffTool failed: %v", err)
	}
	if out.String() != "rendered diff\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
	if leftContent != "A=1\nB=x\n" || rightContent != "A=2\n" {
		t.Errorf("Unexpected files: left %q right %q", leftContent, rightContent)
	}
	if runner.calls[0][0] != "delta" {
		t.Errorf("Expected delta to run, got %v", runner.calls[0])
	}
	if _, err := os.Stat(filepath.Dir(runner.calls[0][1])); !os.IsNotExist(err) {
		t.Error("Temp files should be removed")
	}

	if err := RunDiffTool(context.Background(), runner, "difft", result, &out); !errors.Is(err, kerrors.ErrRemoteCommand) {
		t.Errorf("difft exit 1 should fail with ErrRemoteCommand, got %v", err)
	}
	if err := RunDiffTool(context.Background(), runner, "vimdiff", result, &out); err == nil {
		t.Error("Unknown tool should fail")
	}
}
