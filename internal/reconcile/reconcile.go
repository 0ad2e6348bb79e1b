package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethan-huo/env/internal/dotenv"
	kerrors "github.com/ethan-huo/env/internal/errors"
	"github.com/ethan-huo/env/internal/pattern"
)

// ValueStore is a remote store whose listing exposes current values.
type ValueStore interface {
	ListWithValues(ctx context.Context, env string) (map[string]string, error)
	BulkWrite(ctx context.Context, secrets map[string]string, env string) error
	Delete(ctx context.Context, key, env string) error
}

// NameStore is a remote store whose listing exposes secret names only.
type NameStore interface {
	ListNames(ctx context.Context, env string) (map[string]struct{}, error)
	BulkWrite(ctx context.Context, secrets map[string]string, env string) error
	Delete(ctx context.Context, key, env string) error
}

// Options configures a single reconciliation.
type Options struct {
	// Env is the remote environment name handed to the store.
	Env string

	// Exclude lists glob patterns for keys that are neither written nor
	// deleted. DOTENV_* keys are always excluded.
	Exclude []string

	// DryRun computes the diff without touching the store.
	DryRun bool
}

// Diff is the classification of every key after exclusion.
// Added, Updated, Removed and Unchanged are disjoint and sorted.
type Diff struct {
	Added     []string
	Updated   []string
	Removed   []string
	Unchanged []string
}

// Empty reports whether the diff requires no remote change.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Changes returns the number of keys that will be written or deleted.
func (d Diff) Changes() int {
	return len(d.Added) + len(d.Updated) + len(d.Removed)
}

// Result is the outcome of one reconciliation.
type Result struct {
	Diff

	// ReadErr is set when the remote listing failed and an empty remote
	// was assumed.
	ReadErr error

	// ApplyErrs holds every failed write or delete.
	ApplyErrs []error

	// DryRun indicates that nothing was applied.
	DryRun bool
}

// Failed reports whether any apply step failed.
func (r *Result) Failed() bool {
	return len(r.ApplyErrs) > 0
}

// ClassifyVisible diffs local against a remote listing that includes values.
// Both sides must already be filtered.
func ClassifyVisible(local dotenv.Record, remote map[string]string) Diff {
	var d Diff
	for key, value := range local {
		remoteValue, ok := remote[key]
		switch {
		case !ok:
			d.Added = append(d.Added, key)
		case remoteValue == value:
			d.Unchanged = append(d.Unchanged, key)
		default:
			d.Updated = append(d.Updated, key)
		}
	}
	for key := range remote {
		if _, ok := local[key]; !ok {
			d.Removed = append(d.Removed, key)
		}
	}
	d.sort()
	return d
}

// ClassifyOpaque diffs local against a remote listing of names. Keys present
// on both sides are always Updated: they may be false positives since the
// store cannot disprove equality.
func ClassifyOpaque(local dotenv.Record, remote map[string]struct{}) Diff {
	var d Diff
	for key := range local {
		if _, ok := remote[key]; ok {
			d.Updated = append(d.Updated, key)
		} else {
			d.Added = append(d.Added, key)
		}
	}
	for key := range remote {
		if _, ok := local[key]; !ok {
			d.Removed = append(d.Removed, key)
		}
	}
	d.sort()
	return d
}

func (d *Diff) sort() {
	sort.Strings(d.Added)
	sort.Strings(d.Updated)
	sort.Strings(d.Removed)
	sort.Strings(d.Unchanged)
}

// ReconcileVisible reconciles a ValueStore with local.
func ReconcileVisible(ctx context.Context, store ValueStore, local dotenv.Record, opts Options) *Result {
	result := &Result{DryRun: opts.DryRun}

	remote, err := store.ListWithValues(ctx, opts.Env)
	if err != nil {
		result.ReadErr = err
		remote = map[string]string{}
	}

	result.Diff = ClassifyVisible(
		pattern.Filter(local, opts.Exclude),
		pattern.Filter(remote, opts.Exclude),
	)
	if !opts.DryRun {
		result.ApplyErrs = apply(ctx, store, local, result.Diff, opts.Env)
	}
	return result
}

// ReconcileOpaque reconciles a NameStore with local. Every key in
// Added and Updated is written on each run.
func ReconcileOpaque(ctx context.Context, store NameStore, local dotenv.Record, opts Options) *Result {
	result := &Result{DryRun: opts.DryRun}

	remote, err := store.ListNames(ctx, opts.Env)
	if err != nil {
		result.ReadErr = err
		remote = map[string]struct{}{}
	}

	result.Diff = ClassifyOpaque(
		pattern.Filter(local, opts.Exclude),
		pattern.FilterNames(remote, opts.Exclude),
	)
	if !opts.DryRun {
		result.ApplyErrs = apply(ctx, store, local, result.Diff, opts.Env)
	}
	return result
}

type applier interface {
	BulkWrite(ctx context.Context, secrets map[string]string, env string) error
	Delete(ctx context.Context, key, env string) error
}

// apply writes before it deletes so a failed delete never loses a write.
func apply(ctx context.Context, store applier, local dotenv.Record, d Diff, env string) []error {
	var errs []error

	if len(d.Added)+len(d.Updated) > 0 {
		batch := make(map[string]string, len(d.Added)+len(d.Updated))
		for _, key := range d.Added {
			batch[key] = local[key]
		}
		for _, key := range d.Updated {
			batch[key] = local[key]
		}
		if err := store.BulkWrite(ctx, batch, env); err != nil {
			errs = append(errs, fmt.Errorf("%w: writing %d secrets: %w", kerrors.ErrRemoteWrite, len(batch), err))
		}
	}

	for _, key := range d.Removed {
		if err := store.Delete(ctx, key, env); err != nil {
			errs = append(errs, fmt.Errorf("%w: deleting %s: %w", kerrors.ErrRemoteWrite, key, err))
		}
	}

	return errs
}
