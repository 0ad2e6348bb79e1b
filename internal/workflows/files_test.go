package workflows

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethan-huo/env/internal/dotenv"
	kerrors "github.com/ethan-huo/env/internal/errors"

	"github.com/google/go-cmp/cmp"
)

func TestSetThenGetRoundTripsThroughEncryption(t *testing.T) {
	_, cfg := newProject(t)

	reports, err := Set(SetOptions{Config: cfg, Envs: []string{"dev", "prod"}, Key: "API_KEY", Value: "s3cr3t"})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if len(reports) != 2 || !reports[0].Encrypted || !reports[0].GeneratedKey {
		t.Fatalf("Unexpected set reports: %+v", reports)
	}

	raw, _ := os.ReadFile(cfg.EnvFiles.Dev)
	if strings.Contains(string(raw), "s3cr3t") {
		t.Error("Plaintext value leaked into the env file")
	}

	values, err := Get(GetOptions{Config: cfg, Envs: []string{"dev", "prod"}, Key: "API_KEY", Getenv: noEnv})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := []EnvValue{
		{Env: "dev", Value: "s3cr3t", Found: true},
		{Env: "prod", Value: "s3cr3t", Found: true},
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestSetRejectsInvalidKey(t *testing.T) {
	_, cfg := newProject(t)
	if _, err := Set(SetOptions{Config: cfg, Envs: []string{"dev"}, Key: "1BAD", Value: "x"}); !errors.Is(err, kerrors.ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	_, cfg := newProject(t)
	writeFile(t, cfg.EnvFiles.Dev, "A=1\n")

	if _, err := Get(GetOptions{Config: cfg, Envs: []string{"dev"}, Key: "B", Getenv: noEnv}); !errors.Is(err, kerrors.ErrVariableNotFound) {
		t.Errorf("Expected ErrVariableNotFound, got %v", err)
	}
	if _, err := Get(GetOptions{Config: cfg, Envs: []string{"prod"}, Key: "A", Getenv: noEnv}); !errors.Is(err, kerrors.ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound for a single env, got %v", err)
	}

	values, err := Get(GetOptions{Config: cfg, Envs: []string{"dev", "prod"}, Key: "A", Getenv: noEnv})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !values[0].Found || values[1].Found || values[1].Err == nil {
		t.Errorf("Unexpected values: %+v", values)
	}
}

func TestRemoveReportsPerEnv(t *testing.T) {
	_, cfg := newProject(t)
	writeFile(t, cfg.EnvFiles.Dev, "A=1\nAB=2\n")

	reports, err := Remove(RemoveOptions{Config: cfg, Envs: []string{"dev", "prod"}, Key: "A"})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if reports[0].Err != nil {
		t.Errorf("dev removal failed: %v", reports[0].Err)
	}
	if !errors.Is(reports[1].Err, kerrors.ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound for prod, got %v", reports[1].Err)
	}

	raw, _ := os.ReadFile(cfg.EnvFiles.Dev)
	if string(raw) != "AB=2\n" {
		t.Errorf("Only the exact key should be removed, got %q", raw)
	}

	reports, _ = Remove(RemoveOptions{Config: cfg, Envs: []string{"dev"}, Key: "A"})
	if !errors.Is(reports[0].Err, kerrors.ErrVariableNotFound) {
		t.Errorf("Expected ErrVariableNotFound, got %v", reports[0].Err)
	}
}

func TestListMasksWithoutKey(t *testing.T) {
	_, cfg := newProject(t)
	if _, err := Set(SetOptions{Config: cfg, Envs: []string{"dev"}, Key: "SECRET", Value: "x"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := Set(SetOptions{Config: cfg, Envs: []string{"dev"}, Key: "VITE_URL", Value: "https://a.dev", Plain: true}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := os.Remove(cfg.EnvFiles.Keys); err != nil {
		t.Fatalf("Failed to remove keys file: %v", err)
	}

	result, err := List(ListOptions{Config: cfg, Env: "dev", Getenv: noEnv})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !result.Locked {
		t.Error("Expected Locked without a private key")
	}
	want := []dotenv.Var{
		{Key: "SECRET", Value: dotenv.MaskedValue, Scope: dotenv.ScopePrivate, Encrypted: true},
		{Key: "VITE_URL", Value: "https://a.dev", Scope: dotenv.ScopePublic},
	}
	if diff := cmp.Diff(want, result.Vars); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}

	filtered, err := List(ListOptions{Config: cfg, Env: "dev", Filter: "VITE_*", Getenv: noEnv})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(filtered.Vars) != 1 || filtered.Vars[0].Key != "VITE_URL" {
		t.Errorf("Unexpected filtered vars: %+v", filtered.Vars)
	}
}

func TestImport(t *testing.T) {
	dir, cfg := newProject(t)
	source := filepath.Join(dir, "legacy.env")
	writeFile(t, source, "B=2\nA=1\nDOTENV_PUBLIC_KEY=abc\n")
	target := filepath.Join(dir, "envs", ".env.staging")

	t.Run("PlainWithoutKeysFile", func(t *testing.T) {
		result, err := Import(ImportOptions{Config: cfg, Source: source, Target: target, Getenv: noEnv})
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if !result.Plain {
			t.Error("Expected a plain import without a keys file")
		}
		if diff := cmp.Diff([]string{"A", "B"}, result.Imported); diff != "" {
			t.Errorf("imported mismatch (-want +got):\n%s", diff)
		}
		record, err := dotenv.Load(target, dotenv.KeyLookup{KeysPath: cfg.EnvFiles.Keys, Getenv: noEnv})
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if diff := cmp.Diff(dotenv.Record{"A": "1", "B": "2"}, record); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("EncryptedWithKeysFile", func(t *testing.T) {
		writeFile(t, cfg.EnvFiles.Keys, "")
		encTarget := filepath.Join(dir, ".env.encrypted")
		result, err := Import(ImportOptions{Config: cfg, Source: source, Target: encTarget, Getenv: noEnv})
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if result.Plain {
			t.Error("Expected an encrypted import")
		}
		f, err := dotenv.LoadFile(encTarget, dotenv.KeyLookup{KeysPath: cfg.EnvFiles.Keys, Getenv: noEnv})
		if err != nil {
			t.Fatalf("LoadFile failed: %v", err)
		}
		if f.Record["A"] != "1" || !f.Encrypted["A"] {
			t.Errorf("A should round-trip encrypted, got %q encrypted=%v", f.Record["A"], f.Encrypted["A"])
		}
	})

	t.Run("MissingSource", func(t *testing.T) {
		_, err := Import(ImportOptions{Config: cfg, Source: filepath.Join(dir, "nope.env"), Target: target, Getenv: noEnv})
		if !errors.Is(err, kerrors.ErrFileNotFound) {
			t.Errorf("Expected ErrFileNotFound, got %v", err)
		}
	})
}
