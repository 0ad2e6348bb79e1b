package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/ethan-huo/env/internal/ui"
	"github.com/ethan-huo/env/internal/utils"
	"github.com/ethan-huo/env/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	syncWatch  bool
	syncDryRun bool
)

func init() {
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "keep running and sync an env each time its file changes")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "show what would change without writing anything")
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile Convex and Cloudflare Workers with the env files",
	Long: `Makes every configured remote match the selected env file(s):

  - dev also writes .env.local (and its symlinks)
  - typegen regenerates the typed accessors
  - Convex receives new and changed values; keys missing locally are removed
  - each Wrangler worker receives every local secret; extra secrets are removed

Configuration errors stop the command before any remote call. A failed
remote write does not stop the other targets; the command exits with
status 1 once everything has run.

Examples:
  env sync
  env sync -e all --dry-run
  env sync --watch`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting sync command")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	envs, err := selectedEnvs()
	if err != nil {
		return err
	}

	auditLog := openAudit()
	defer auditLog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := workflows.SyncOptions{
		Config: cfg,
		Envs:   envs,
		DryRun: syncDryRun,
		Audit:  auditLog,
		Logger: Logger,
	}

	if syncWatch {
		return runWatch(ctx, opts)
	}

	spinner, cleanup := startSpinner("Syncing " + strings.Join(envs, ", ") + "...")
	defer cleanup()

	result, err := workflows.Sync(ctx, opts)
	if err != nil {
		spinner.FinalMSG = formatError(err)
		return errReported
	}

	var b strings.Builder
	for _, report := range result.Envs {
		b.WriteString(formatEnvReport(report, result.DryRun))
	}
	spinner.FinalMSG = b.String()

	if result.Failed() {
		return errReported
	}
	return nil
}

func runWatch(ctx context.Context, opts workflows.SyncOptions) error {
	var mu sync.Mutex
	err := workflows.Watch(ctx, workflows.WatchOptions{
		SyncOptions: opts,
		OnReport: func(report *workflows.EnvReport) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Print(formatEnvReport(report, opts.DryRun))
		},
		OnReady: func(paths []string) {
			fmt.Printf("%s Watching %s:%s", ui.Info.Sprint("→"), ui.Muted.Sprint("Ctrl+C to stop"), utils.FormatPaths(paths))
		},
	})
	if err != nil {
		fmt.Println(formatError(err))
		return errReported
	}
	return nil
}

// formatEnvReport renders one env of a sync run.
func formatEnvReport(report *workflows.EnvReport, dryRun bool) string {
	var b strings.Builder
	verb := func(done, planned string) string {
		if dryRun {
			return planned
		}
		return done
	}

	fmt.Fprintf(&b, "%s %s %s\n", ui.Mark(report.Failed()), ui.Highlight.Sprint(report.Env), ui.Path.Sprint(report.EnvPath))

	if report.Err != nil {
		fmt.Fprintf(&b, "  %s\n", formatError(report.Err))
		return b.String()
	}

	if report.LocalPath != "" {
		fmt.Fprintf(&b, "  %s %s %s\n", ui.Info.Sprint("→"), verb("wrote", "would write"), ui.Path.Sprint(report.LocalPath))
		for _, link := range report.Links {
			fmt.Fprintf(&b, "    %s linked %s\n", ui.Muted.Sprint("↳"), ui.Path.Sprint(link))
		}
	}

	if t := report.Typegen; t != nil {
		fmt.Fprintf(&b, "  %s %s %s %s\n", ui.Info.Sprint("→"), verb("generated", "would generate"), ui.Path.Sprint(t.Output),
			ui.Muted.Sprintf("%d public, %d private", t.Public, t.Private))
		if t.LazyWritten {
			fmt.Fprintf(&b, "    %s created %s\n", ui.Muted.Sprint("↳"), ui.Path.Sprint(t.LazyPath))
		}
	}

	for _, target := range report.Targets {
		b.WriteString(formatTarget(target, dryRun))
	}

	for _, issue := range report.Issues {
		fmt.Fprintf(&b, "  %s %s is used but not defined: %s\n", ui.Warning.Sprint("⚠"), ui.Highlight.Sprint(issue.Key), strings.Join(issue.Locations, ", "))
	}
	return b.String()
}

func formatTarget(target workflows.TargetReport, dryRun bool) string {
	var b strings.Builder
	name := target.Name
	if target.RemoteEnv != "" {
		name += " --env " + target.RemoteEnv
	}

	if target.Skipped() {
		fmt.Fprintf(&b, "  %s %s %s\n", ui.Muted.Sprint("-"), name, ui.Muted.Sprint("skipped: "+target.SkipReason))
		return b.String()
	}

	res := target.Result
	summary := ui.Changes(len(res.Added), len(res.Updated), len(res.Removed))
	if dryRun && !res.Empty() {
		summary += " " + ui.Muted.Sprint("dry run")
	}
	fmt.Fprintf(&b, "  %s %s %s\n", ui.Mark(res.Failed()), name, summary)

	if res.ReadErr != nil {
		fmt.Fprintf(&b, "    %s could not list remote secrets, treated as empty: %v\n", ui.Warning.Sprint("⚠"), res.ReadErr)
	}
	if dryRun || Logger.Verbose || Logger.Debug {
		for _, group := range []struct {
			sign string
			keys []string
		}{{"+", res.Added}, {"~", res.Updated}, {"-", res.Removed}} {
			for _, key := range group.keys {
				fmt.Fprintf(&b, "    %s %s\n", group.sign, key)
			}
		}
	}
	for _, err := range res.ApplyErrs {
		fmt.Fprintf(&b, "    %s %v\n", ui.Error.Sprint("✗"), err)
	}
	return b.String()
}
