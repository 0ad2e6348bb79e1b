package workflows

import (
	"context"
	"time"

	"github.com/ethan-huo/env/internal/watcher"
)

// WatchOptions configures the watch workflow.
type WatchOptions struct {
	SyncOptions

	// Settle is how long a burst of file events settles before a run.
	// watcher.DefaultSettle when zero.
	Settle time.Duration

	// OnReport receives every env report, starting with the initial runs.
	// Reports for different files may be delivered concurrently.
	OnReport func(report *EnvReport)

	// OnReady is called with the watched paths once the initial runs are
	// done and the watcher is armed.
	OnReady func(paths []string)
}

// Watch runs Sync once for every env, then runs it again for a single env
// each time that env's file changes. Runs for one file never overlap.
//
// Configuration errors of the initial run are returned immediately.
// Otherwise Watch returns when ctx is cancelled.
func Watch(ctx context.Context, opts WatchOptions) error {
	cfg := configOrDefault(opts.Config)
	opts.Config = cfg

	initial, err := Sync(ctx, opts.SyncOptions)
	if err != nil {
		return err
	}
	for _, report := range initial.Envs {
		opts.report(report)
	}

	envsByPath := make(map[string][]string)
	var paths []string
	for _, env := range opts.Envs {
		path, err := cfg.EnvFilePath(env)
		if err != nil {
			return err
		}
		if _, ok := envsByPath[path]; !ok {
			paths = append(paths, path)
		}
		envsByPath[path] = append(envsByPath[path], env)
	}

	fw, err := watcher.New(paths, opts.Settle)
	if err != nil {
		return err
	}
	if err := fw.Start(); err != nil {
		return err
	}
	defer func() {
		if err := fw.Stop(); err != nil {
			opts.Logger.Warnf("Stopping watcher: %v", err)
		}
	}()

	go func() {
		for err := range fw.Errors() {
			opts.Logger.WarnfAlways("watch error: %v", err)
		}
	}()

	if opts.OnReady != nil {
		opts.OnReady(paths)
	}

	return fw.Run(ctx, func(ctx context.Context, event watcher.FileEvent) {
		for _, env := range envsByPath[event.Path] {
			opts.Logger.With(env).Infof("%s: %s", event.Op, event.Path)
			opts.report(opts.runOne(ctx, env, event.Path))
		}
	})
}

func (opts WatchOptions) runOne(ctx context.Context, env, path string) *EnvReport {
	single := opts.SyncOptions
	single.Envs = []string{env}
	single.Logger = opts.Logger.With(env)

	result, err := Sync(ctx, single)
	if err != nil {
		return &EnvReport{Env: env, EnvPath: path, Err: err}
	}
	return result.Envs[0]
}

func (opts WatchOptions) report(r *EnvReport) {
	if opts.OnReport != nil {
		opts.OnReport(r)
	}
}
