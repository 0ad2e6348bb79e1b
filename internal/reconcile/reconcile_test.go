package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/ethan-huo/env/internal/dotenv"
	kerrors "github.com/ethan-huo/env/internal/errors"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// fakeStore implements both ValueStore and NameStore over an in-memory map.
type fakeStore struct {
	values map[string]string

	listErr   error
	writeErr  error
	deleteErr map[string]error

	writes  []map[string]string
	deletes []string
	calls   int
}

func newFakeStore(values map[string]string) *fakeStore {
	if values == nil {
		values = map[string]string{}
	}
	return &fakeStore{values: values, deleteErr: map[string]error{}}
}

func (f *fakeStore) ListWithValues(_ context.Context, _ string) (map[string]string, error) {
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) ListNames(_ context.Context, _ string) (map[string]struct{}, error) {
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[string]struct{}, len(f.values))
	for k := range f.values {
		out[k] = struct{}{}
	}
	return out, nil
}

func (f *fakeStore) BulkWrite(_ context.Context, secrets map[string]string, _ string) error {
	f.calls++
	f.writes = append(f.writes, secrets)
	if f.writeErr != nil {
		return f.writeErr
	}
	for k, v := range secrets {
		f.values[k] = v
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key, _ string) error {
	f.calls++
	f.deletes = append(f.deletes, key)
	if err := f.deleteErr[key]; err != nil {
		return err
	}
	delete(f.values, key)
	return nil
}

var emptyAsNil = cmpopts.EquateEmpty()

func TestReconcileVisibleScenario(t *testing.T) {
	store := newFakeStore(map[string]string{"FOO": "1", "BAZ": "3"})
	local := dotenv.Record{"FOO": "1", "BAR": "2"}

	result := ReconcileVisible(context.Background(), store, local, Options{Env: "dev"})

	want := Diff{Added: []string{"BAR"}, Removed: []string{"BAZ"}, Unchanged: []string{"FOO"}}
	if diff := cmp.Diff(want, result.Diff, emptyAsNil); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}
	if result.ReadErr != nil || result.Failed() {
		t.Errorf("unexpected errors: read=%v apply=%v", result.ReadErr, result.ApplyErrs)
	}

	if diff := cmp.Diff([]map[string]string{{"BAR": "2"}}, store.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"BAZ"}, store.deletes); diff != "" {
		t.Errorf("deletes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"FOO": "1", "BAR": "2"}, store.values); diff != "" {
		t.Errorf("remote state mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileVisibleUpdatesChangedValues(t *testing.T) {
	store := newFakeStore(map[string]string{"A": "old", "B": "same"})
	local := dotenv.Record{"A": "new", "B": "same"}

	result := ReconcileVisible(context.Background(), store, local, Options{})

	want := Diff{Updated: []string{"A"}, Unchanged: []string{"B"}}
	if diff := cmp.Diff(want, result.Diff, emptyAsNil); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]map[string]string{{"A": "new"}}, store.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileVisibleIdempotent(t *testing.T) {
	store := newFakeStore(map[string]string{"OLD": "x", "KEEP": "1"})
	local := dotenv.Record{"KEEP": "2", "NEW": "3"}

	first := ReconcileVisible(context.Background(), store, local, Options{})
	if first.Empty() {
		t.Fatal("first run should produce changes")
	}

	second := ReconcileVisible(context.Background(), store, local, Options{})
	if !second.Empty() {
		t.Errorf("second run should be a no-op, got %+v", second.Diff)
	}
	if len(store.writes) != 1 || len(store.deletes) != 1 {
		t.Errorf("second run touched the store: writes=%v deletes=%v", store.writes, store.deletes)
	}
}

func TestReconcileExcludedBeforeClassification(t *testing.T) {
	tests := []struct {
		name string
		run  func(*fakeStore, dotenv.Record, Options) *Result
	}{
		{"visible", func(s *fakeStore, l dotenv.Record, o Options) *Result {
			return ReconcileVisible(context.Background(), s, l, o)
		}},
		{"opaque", func(s *fakeStore, l dotenv.Record, o Options) *Result {
			return ReconcileOpaque(context.Background(), s, l, o)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(map[string]string{"FOO": "1", "FOOBAR": "remote"})
			local := dotenv.Record{"FOO": "1", "DOTENV_PUBLIC_KEY_DEVELOPMENT": "03ab"}

			result := tt.run(store, local, Options{Exclude: []string{"FOO*"}})

			if diff := cmp.Diff(Diff{}, result.Diff, emptyAsNil); diff != "" {
				t.Errorf("expected empty diff (-want +got):\n%s", diff)
			}
			if len(store.writes) != 0 || len(store.deletes) != 0 {
				t.Errorf("excluded keys touched the store: writes=%v deletes=%v", store.writes, store.deletes)
			}
		})
	}
}

func TestReconcileBuiltinExclusionCannotBeOverridden(t *testing.T) {
	store := newFakeStore(map[string]string{"DOTENV_PRIVATE_KEY": "remote"})
	local := dotenv.Record{"DOTENV_PUBLIC_KEY": "03ab", "APP": "1"}

	result := ReconcileOpaque(context.Background(), store, local, Options{Exclude: nil})

	want := Diff{Added: []string{"APP"}}
	if diff := cmp.Diff(want, result.Diff, emptyAsNil); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}
	if len(store.deletes) != 0 {
		t.Errorf("builtin key was deleted: %v", store.deletes)
	}
}

func TestReconcileOpaqueAlwaysUpdates(t *testing.T) {
	store := newFakeStore(map[string]string{"A": "1"})
	local := dotenv.Record{"A": "1"}

	result := ReconcileOpaque(context.Background(), store, local, Options{Env: "production"})

	want := Diff{Updated: []string{"A"}}
	if diff := cmp.Diff(want, result.Diff, emptyAsNil); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}

	// Re-running still rewrites every shared key.
	again := ReconcileOpaque(context.Background(), store, local, Options{Env: "production"})
	if diff := cmp.Diff(want, again.Diff, emptyAsNil); diff != "" {
		t.Errorf("second Diff mismatch (-want +got):\n%s", diff)
	}
	if len(store.writes) != 2 {
		t.Errorf("expected a write on every run, got %d", len(store.writes))
	}
}

func TestReconcileOpaqueScenario(t *testing.T) {
	store := newFakeStore(map[string]string{"SHARED": "?", "STALE": "?"})
	local := dotenv.Record{"SHARED": "1", "FRESH": "2"}

	result := ReconcileOpaque(context.Background(), store, local, Options{})

	want := Diff{Added: []string{"FRESH"}, Updated: []string{"SHARED"}, Removed: []string{"STALE"}}
	if diff := cmp.Diff(want, result.Diff, emptyAsNil); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]map[string]string{{"FRESH": "2", "SHARED": "1"}}, store.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileFailOpenOnReadError(t *testing.T) {
	listErr := errors.New("convex: not logged in")

	for _, opaque := range []bool{false, true} {
		store := newFakeStore(map[string]string{"GONE": "x"})
		store.listErr = listErr
		local := dotenv.Record{"A": "1", "B": "2"}

		var result *Result
		if opaque {
			result = ReconcileOpaque(context.Background(), store, local, Options{DryRun: true})
		} else {
			result = ReconcileVisible(context.Background(), store, local, Options{DryRun: true})
		}

		if !errors.Is(result.ReadErr, listErr) {
			t.Errorf("opaque=%v: ReadErr = %v, want %v", opaque, result.ReadErr, listErr)
		}
		want := Diff{Added: []string{"A", "B"}}
		if diff := cmp.Diff(want, result.Diff, emptyAsNil); diff != "" {
			t.Errorf("opaque=%v: Diff mismatch (-want +got):\n%s", opaque, diff)
		}
	}
}

func TestReconcileWriteFailureStillDeletes(t *testing.T) {
	store := newFakeStore(map[string]string{"OLD1": "x", "OLD2": "y"})
	store.writeErr = errors.New("exit status 1")
	store.deleteErr["OLD1"] = errors.New("not found")
	local := dotenv.Record{"NEW": "1"}

	result := ReconcileVisible(context.Background(), store, local, Options{})

	if !result.Failed() {
		t.Fatal("expected apply failures")
	}
	if len(result.ApplyErrs) != 2 {
		t.Fatalf("expected 2 apply errors, got %d: %v", len(result.ApplyErrs), result.ApplyErrs)
	}
	for _, err := range result.ApplyErrs {
		if !errors.Is(err, kerrors.ErrRemoteWrite) {
			t.Errorf("apply error %v does not wrap ErrRemoteWrite", err)
		}
	}
	if !errors.Is(result.ApplyErrs[0], store.writeErr) {
		t.Errorf("first error should be the write failure, got %v", result.ApplyErrs[0])
	}

	if diff := cmp.Diff([]string{"OLD1", "OLD2"}, store.deletes); diff != "" {
		t.Errorf("deletes mismatch (-want +got):\n%s", diff)
	}
	if _, ok := store.values["OLD2"]; ok {
		t.Error("OLD2 should have been deleted after OLD1 failed")
	}
}

func TestReconcileDryRunMakesNoChanges(t *testing.T) {
	store := newFakeStore(map[string]string{"A": "old", "B": "x"})
	local := dotenv.Record{"A": "new", "C": "1"}

	result := ReconcileVisible(context.Background(), store, local, Options{DryRun: true})

	if !result.DryRun {
		t.Error("result should be marked DryRun")
	}
	if result.Changes() != 3 {
		t.Errorf("Changes() = %d, want 3", result.Changes())
	}
	if store.calls != 1 {
		t.Errorf("dry run made %d store calls, want only the listing", store.calls)
	}
}

func TestClassifyCompleteness(t *testing.T) {
	local := dotenv.Record{"A": "1", "B": "2", "C": "3"}
	remote := map[string]string{"B": "2", "C": "x", "D": "4"}

	d := ClassifyVisible(local, remote)

	seen := map[string]int{}
	for _, group := range [][]string{d.Added, d.Updated, d.Removed, d.Unchanged} {
		for _, k := range group {
			seen[k]++
		}
	}
	for _, k := range []string{"A", "B", "C", "D"} {
		if seen[k] != 1 {
			t.Errorf("key %s classified %d times, want exactly once", k, seen[k])
		}
	}

	names := map[string]struct{}{"B": {}, "C": {}, "D": {}}
	od := ClassifyOpaque(local, names)
	if len(od.Unchanged) != 0 {
		t.Errorf("opaque classification must never report unchanged keys: %v", od.Unchanged)
	}
	if diff := cmp.Diff([]string{"B", "C"}, od.Updated); diff != "" {
		t.Errorf("opaque Updated mismatch (-want +got):\n%s", diff)
	}
}
