package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/ethan-huo/env/internal/remote"
	"github.com/ethan-huo/env/internal/ui"
	"github.com/ethan-huo/env/internal/utils"
	"github.com/ethan-huo/env/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	diffEnvPair    string
	diffTool       string
	diffShowValues bool
)

func init() {
	diffCmd.Flags().StringVar(&diffEnvPair, "envs", "dev:prod", "env files to compare, as left:right")
	diffCmd.Flags().StringVar(&diffTool, "tool", "", "render with an external diff tool: "+strings.Join(workflows.DiffTools, " or "))
	diffCmd.Flags().BoolVar(&diffShowValues, "show-values", false, "show values instead of masking them")
}

var diffCmd = &cobra.Command{
	Use:   "diff [envs|convex|wrangler]",
	Short: "Compare env files with each other or with a remote",
	Long: `Compares two env files (the default), or the selected env file with
what Convex or the configured Cloudflare Workers currently hold.

Wrangler never reveals secret values, so keys present on both sides are
shown as "present, value unknown".

Examples:
  env diff
  env diff envs --envs prod:dev
  env diff convex -e prod
  env diff wrangler -e all
  env diff --tool delta`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"envs", "convex", "wrangler"},
	RunE:      runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting diff command")

	mode := "envs"
	if len(args) == 1 {
		mode = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var results []*workflows.DiffResult
	switch mode {
	case "envs":
		left, right, err := workflows.ParseEnvPair(diffEnvPair)
		if err != nil {
			return err
		}
		result, err := workflows.DiffEnvs(workflows.DiffOptions{Config: cfg, Left: left, Right: right})
		if err != nil {
			return err
		}
		results = append(results, result)

	default:
		envs, err := selectedEnvs()
		if err != nil {
			return err
		}
		spinner, cleanup := startSpinner("Reading " + mode + " secrets...")
		for _, env := range envs {
			opts := workflows.DiffOptions{Config: cfg, Env: env}
			if mode == "convex" {
				var result *workflows.DiffResult
				if result, err = workflows.DiffConvex(ctx, opts); err == nil {
					results = append(results, result)
				}
			} else {
				var found []*workflows.DiffResult
				if found, err = workflows.DiffWrangler(ctx, opts); err == nil {
					results = append(results, found...)
				}
			}
			if err != nil {
				break
			}
		}
		spinner.FinalMSG = ""
		cleanup()
		if err != nil {
			return err
		}
	}

	for i, result := range results {
		if i > 0 {
			fmt.Println()
		}
		if diffTool != "" && result.SkipReason == "" {
			fmt.Println(ui.Highlight.Sprint(result.LeftLabel + " → " + result.RightLabel))
			if err := workflows.RunDiffTool(ctx, remote.ExecRunner{}, diffTool, result, os.Stdout); err != nil {
				return err
			}
			continue
		}
		fmt.Print(formatDiff(result, diffShowValues))
	}
	return nil
}

func formatDiff(result *workflows.DiffResult, showValues bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", ui.Highlight.Sprint(result.LeftLabel), ui.Muted.Sprint("vs"), ui.Highlight.Sprint(result.RightLabel))
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "%s %s\n", ui.Warning.Sprint("⚠"), w)
	}
	if result.SkipReason != "" {
		fmt.Fprintf(&b, "%s skipped: %s\n", ui.Info.Sprint("→"), result.SkipReason)
		return b.String()
	}
	if len(result.Entries) == 0 {
		fmt.Fprintf(&b, "%s No differences\n", ui.Success.Sprint("✓"))
		return b.String()
	}

	show := func(v string) string {
		if showValues || v == workflows.HiddenValue {
			return v
		}
		return utils.MaskValue(v)
	}
	for _, e := range result.Entries {
		switch e.Status {
		case workflows.DiffAdded:
			fmt.Fprintf(&b, "%s %s %s\n", ui.Success.Sprint("+"), e.Key, ui.Muted.Sprint("only in "+result.RightLabel))
		case workflows.DiffRemoved:
			fmt.Fprintf(&b, "%s %s %s\n", ui.Error.Sprint("-"), e.Key, ui.Muted.Sprint("only in "+result.LeftLabel))
		case workflows.DiffChanged:
			fmt.Fprintf(&b, "%s %s %s → %s\n", ui.Warning.Sprint("~"), e.Key, show(e.Left), show(e.Right))
		case workflows.DiffUnknown:
			fmt.Fprintf(&b, "%s %s %s\n", ui.Info.Sprint("?"), e.Key, ui.Muted.Sprint("present, value unknown"))
		}
	}
	return b.String()
}
