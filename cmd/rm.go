package cmd

import (
	"errors"
	"fmt"

	kerrors "github.com/ethan-huo/env/internal/errors"
	"github.com/ethan-huo/env/internal/ui"
	"github.com/ethan-huo/env/internal/workflows"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm KEY",
	Aliases: []string{"remove"},
	Short:   "Remove a variable from env files",
	Long: `Removes a variable from the selected env file(s). Only the exact key is
removed. Envs that do not define the variable are reported and skipped.

Exits with status 1 when nothing was removed or a file could not be written.

Examples:
  env rm OLD_TOKEN
  env rm OLD_TOKEN -e all`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting rm command")

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

	reports, err := workflows.Remove(workflows.RemoveOptions{Config: cfg, Envs: envs, Key: args[0], Audit: auditLog})
	if err != nil {
		return err
	}

	removed, failed := 0, false
	for _, r := range reports {
		switch {
		case r.Err == nil:
			removed++
			fmt.Printf("%s Removed %s from %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(args[0]), ui.Path.Sprint(r.Path))
		case errors.Is(r.Err, kerrors.ErrVariableNotFound), errors.Is(r.Err, kerrors.ErrFileNotFound):
			fmt.Printf("%s %s: %v\n", ui.Warning.Sprint("⚠"), r.Env, r.Err)
		default:
			failed = true
			fmt.Printf("%s %s: %v\n", ui.Error.Sprint("✗"), r.Env, r.Err)
		}
	}
	if removed == 0 || failed {
		return errReported
	}
	return nil
}
