package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/ethan-huo/env/internal/configs"
	"github.com/ethan-huo/env/internal/reconcile"
	"github.com/ethan-huo/env/internal/remote"
)

func noEnv(string) string { return "" }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// newProject returns a temp project directory and a config whose paths all
// point into it.
func newProject(t *testing.T) (string, *configs.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := configs.Default()
	cfg.EnvFiles.Dev = filepath.Join(dir, configs.DefaultDevFile)
	cfg.EnvFiles.Prod = filepath.Join(dir, configs.DefaultProdFile)
	cfg.EnvFiles.Keys = filepath.Join(dir, configs.DefaultKeysFile)
	return dir, cfg
}

// fakeStore is an in-memory remote that implements both store interfaces.
type fakeStore struct {
	mu sync.Mutex

	values  map[string]map[string]string // env -> key -> value
	listErr error
	bulkErr error

	bulkCalls []map[string]string
	deletes   []string
	envs      []string
	lists     int
}

func newFakeStore(values map[string]map[string]string) *fakeStore {
	if values == nil {
		values = map[string]map[string]string{}
	}
	return &fakeStore{values: values}
}

func (s *fakeStore) ListWithValues(_ context.Context, env string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := map[string]string{}
	for k, v := range s.values[env] {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) ListNames(ctx context.Context, env string) (map[string]struct{}, error) {
	values, err := s.ListWithValues(ctx, env)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(values))
	for k := range values {
		names[k] = struct{}{}
	}
	return names, nil
}

func (s *fakeStore) BulkWrite(_ context.Context, secrets map[string]string, env string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envs = append(s.envs, env)
	s.bulkCalls = append(s.bulkCalls, secrets)
	if s.bulkErr != nil {
		return s.bulkErr
	}
	if s.values[env] == nil {
		s.values[env] = map[string]string{}
	}
	for k, v := range secrets {
		s.values[env][k] = v
	}
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key, env string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envs = append(s.envs, env)
	s.deletes = append(s.deletes, key)
	delete(s.values[env], key)
	return nil
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists + len(s.bulkCalls) + len(s.deletes)
}

func (s *fakeStore) sortedDeletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.deletes...)
	sort.Strings(out)
	return out
}

type fakeBackends struct {
	convex   *fakeStore
	wrangler map[string]*fakeStore
}

func (b *fakeBackends) Convex() reconcile.ValueStore {
	return b.convex
}

func (b *fakeBackends) Wrangler(configPath string) reconcile.NameStore {
	return b.wrangler[configPath]
}

var errBoom = errors.New("boom")

// fakeRunner answers every command with out and records the arguments.
type fakeRunner struct {
	out   remote.Output
	calls [][]string
	onRun func(args []string)
}

func (f *fakeRunner) Run(_ context.Context, _ string, name string, args ...string) (remote.Output, error) {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	if f.onRun != nil {
		f.onRun(call)
	}
	return f.out, nil
}
