package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethan-huo/env/internal/audit"
	"github.com/ethan-huo/env/internal/configs"
	"github.com/ethan-huo/env/internal/dotenv"
	kerrors "github.com/ethan-huo/env/internal/errors"
	logger "github.com/ethan-huo/env/internal/logging"
	"github.com/ethan-huo/env/internal/reconcile"
	"github.com/ethan-huo/env/internal/remote"
	"github.com/ethan-huo/env/internal/typegen"
	"github.com/ethan-huo/env/internal/usage"
	"github.com/ethan-huo/env/internal/utils"
)

// LocalFile is the decrypted copy of the dev env file used by local tooling.
const LocalFile = ".env.local"

// SyncOptions configures the sync workflow.
type SyncOptions struct {
	Config *configs.Config

	// Envs lists the environments to process, in order.
	Envs []string

	// DryRun computes every diff without writing files or touching remotes.
	DryRun bool

	// WorkDir receives .env.local and anchors relative sync.links.
	// Defaults to the working directory.
	WorkDir string

	// Backends creates the remote stores. Defaults to the convex and
	// wrangler CLIs started through sync.runner.
	Backends Backends

	// Getenv reads private keys from the process environment. os.Getenv when nil.
	Getenv func(string) string

	// Audit receives one entry per applied target. May be nil.
	Audit *audit.Logger

	Logger logger.Logger
}

// TargetReport is the outcome of one remote target for one env.
type TargetReport struct {
	// Name is "convex" or "wrangler <config path>".
	Name string

	// RemoteEnv is the Wrangler environment, empty for the top-level worker.
	RemoteEnv string

	// SkipReason is set when the target does not apply to this env.
	SkipReason string

	Result *reconcile.Result
}

// Skipped reports whether the target was not reconciled.
func (t TargetReport) Skipped() bool {
	return t.SkipReason != ""
}

// EnvReport is the outcome of syncing one env.
type EnvReport struct {
	Env     string
	EnvPath string

	// LocalPath is the .env.local written (or that would be written) for dev.
	LocalPath string

	// Links are the .env.local symlinks that were created or replaced.
	Links []string

	// Typegen is nil when typegen is not configured. In dry-run mode only
	// the variable counts are set.
	Typegen *typegen.Result

	// Issues are process.env references to keys the env file lacks.
	Issues []usage.Issue

	Targets []TargetReport

	// Err stops the rest of this env. Other envs still run.
	Err error
}

// Failed reports whether the env errored or any target failed to apply.
func (r *EnvReport) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, t := range r.Targets {
		if t.Result != nil && t.Result.Failed() {
			return true
		}
	}
	return false
}

// SyncResult contains the outcome of a sync operation.
type SyncResult struct {
	Envs   []*EnvReport
	DryRun bool
}

// Failed reports whether any env or target failed.
func (r *SyncResult) Failed() bool {
	for _, e := range r.Envs {
		if e.Failed() {
			return true
		}
	}
	return false
}

// wranglerPlan is a wrangler target with its resolved environment per local env.
type wranglerPlan struct {
	target      configs.WranglerTarget
	resolutions map[string]remote.Resolution
}

// Sync writes .env.local, generates types and reconciles every configured
// remote for each requested env.
//
// Configuration problems are detected for every env before any remote call:
// Returns ErrNothingToSync if neither sync nor typegen is configured.
// Returns a *ConfigError if a wrangler target cannot be resolved.
// Failures after that point are recorded per env and per target, and the
// remaining envs and targets still run.
func Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	cfg := configOrDefault(opts.Config)
	if !cfg.HasTargets() {
		return nil, kerrors.ErrNothingToSync
	}

	plans, err := preflight(cfg, opts.Envs)
	if err != nil {
		return nil, err
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	backends := opts.Backends
	if backends == nil {
		backends = defaultBackends(cfg, workDir)
	}

	result := &SyncResult{DryRun: opts.DryRun}
	for _, env := range opts.Envs {
		opts.Logger.Infof("Syncing %s", env)
		report := syncEnv(ctx, cfg, env, plans, backends, workDir, opts)
		if report.Err != nil {
			opts.Logger.Errorf("%s: %v", env, report.Err)
		}
		result.Envs = append(result.Envs, report)
	}
	return result, nil
}

// preflight validates env names and resolves every wrangler target for
// every env, so that configuration errors surface before remote calls.
func preflight(cfg *configs.Config, envs []string) ([]wranglerPlan, error) {
	for _, env := range envs {
		if _, err := cfg.EnvFilePath(env); err != nil {
			return nil, err
		}
	}
	if cfg.Sync == nil {
		return nil, nil
	}

	plans := make([]wranglerPlan, 0, len(cfg.Sync.Wrangler))
	for _, target := range cfg.Sync.Wrangler {
		worker, err := remote.LoadWorkerConfig(target.Config)
		if err != nil {
			return nil, &kerrors.ConfigError{Target: "wrangler " + target.Config, Err: err}
		}

		plan := wranglerPlan{target: target, resolutions: make(map[string]remote.Resolution, len(envs))}
		for _, env := range envs {
			res, err := remote.ResolveWranglerEnv(worker, target.EnvMapping, env)
			if err != nil {
				return nil, err
			}
			plan.resolutions[env] = res
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func syncEnv(ctx context.Context, cfg *configs.Config, env string, plans []wranglerPlan, backends Backends, workDir string, opts SyncOptions) *EnvReport {
	report := &EnvReport{Env: env}
	report.EnvPath, _ = cfg.EnvFilePath(env)

	file, err := loadEnvFile(cfg, env, opts.Getenv)
	if err != nil {
		report.Err = err
		return report
	}
	opts.Logger.Debugf("Loaded %d variables from %s", len(file.Record), report.EnvPath)

	if env == configs.EnvDev {
		if err := writeLocal(report, file.Record, cfg, workDir, opts); err != nil {
			report.Err = err
			return report
		}
	}

	if cfg.Typegen != nil {
		if err := generateTypes(report, file, cfg, workDir, opts); err != nil {
			report.Err = err
			return report
		}
	}

	if cfg.Sync == nil {
		return report
	}

	if cfg.Sync.Convex != nil {
		res := reconcile.ReconcileVisible(ctx, backends.Convex(), file.Record, reconcile.Options{
			Env:     env,
			Exclude: cfg.Sync.Convex.Exclude,
			DryRun:  opts.DryRun,
		})
		report.Targets = append(report.Targets, TargetReport{Name: "convex", Result: res})
		logTarget(opts, env, "convex", "", res)
	}

	for _, plan := range plans {
		name := "wrangler " + plan.target.Config
		res := plan.resolutions[env]
		if res.Skip {
			opts.Logger.Infof("Skipping %s for %s: %s", name, env, res.Reason)
			report.Targets = append(report.Targets, TargetReport{Name: name, SkipReason: res.Reason})
			continue
		}

		result := reconcile.ReconcileOpaque(ctx, backends.Wrangler(plan.target.Config), file.Record, reconcile.Options{
			Env:     res.Env,
			Exclude: plan.target.Exclude,
			DryRun:  opts.DryRun,
		})
		report.Targets = append(report.Targets, TargetReport{Name: name, RemoteEnv: res.Env, Result: result})
		logTarget(opts, env, name, res.Env, result)
	}

	return report
}

// writeLocal writes the decrypted dev record to .env.local and links it into
// every sync.links directory.
func writeLocal(report *EnvReport, record dotenv.Record, cfg *configs.Config, workDir string, opts SyncOptions) error {
	report.LocalPath = filepath.Join(workDir, LocalFile)
	if opts.DryRun {
		return nil
	}

	content, err := dotenv.Serialize(record)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", LocalFile, err)
	}
	if err := os.WriteFile(report.LocalPath, []byte(content+"\n"), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", report.LocalPath, err)
	}

	if cfg.Sync == nil {
		return nil
	}
	for _, dir := range cfg.Sync.Links {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(workDir, dir)
		}
		link := filepath.Join(dir, LocalFile)
		result, err := utils.LinkFile(report.LocalPath, link)
		if err != nil {
			return err
		}
		switch result {
		case utils.LinkCreated, utils.LinkReplaced:
			report.Links = append(report.Links, link)
		case utils.LinkSkipped:
			opts.Logger.WarnfAlways("%s exists and is not a symlink, leaving it alone", link)
		}
	}
	return nil
}

// generateTypes writes the typed accessors and scans for process.env
// references the env file does not define.
func generateTypes(report *EnvReport, file *dotenv.File, cfg *configs.Config, workDir string, opts SyncOptions) error {
	vars := file.Vars(cfg.PublicPrefixes())

	if opts.DryRun {
		report.Typegen = &typegen.Result{Output: cfg.Typegen.Output}
		report.Typegen.Public, report.Typegen.Private = dotenv.CountScopes(vars)
	} else {
		res, err := typegen.Write(vars, typegen.Options{Output: cfg.Typegen.Output, Schema: cfg.Typegen.Schema})
		if err != nil {
			return err
		}
		report.Typegen = res
	}

	issues, err := usage.FindIssues(usage.Options{EnvKeys: file.Record.Keys(), Dir: workDir})
	if err != nil {
		opts.Logger.Warnf("process.env scan failed: %v", err)
		return nil
	}
	report.Issues = issues
	return nil
}

func logTarget(opts SyncOptions, env, target, remoteEnv string, res *reconcile.Result) {
	if res.ReadErr != nil {
		opts.Logger.Warnf("%s (%s): listing failed, assumed empty: %v", target, env, res.ReadErr)
	}
	for _, err := range res.ApplyErrs {
		opts.Logger.Errorf("%s (%s): %v", target, env, err)
	}
	if res.DryRun || res.Empty() {
		return
	}
	opts.Audit.Log(audit.Entry{
		Operation: "sync",
		Env:       env,
		Target:    target,
		RemoteEnv: remoteEnv,
		Added:     res.Added,
		Updated:   res.Updated,
		Removed:   res.Removed,
		Failures:  len(res.ApplyErrs),
	})
}
