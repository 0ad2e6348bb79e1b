package cmd

import (
	"fmt"

	"github.com/ethan-huo/env/internal/ui"
	"github.com/ethan-huo/env/internal/workflows"

	"github.com/spf13/cobra"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing env files, .env.local and config")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up env files, keys and config in the current directory",
	Long: `Prepares the current directory for env:

  - links .env.keys to ~/.env.keys, or writes it from DOTENV_PRIVATE_KEY_*
    variables when running in CI
  - creates the development and production env files
  - decrypts an existing development file into .env.local
  - writes a starter env.config.toml
  - adds .env.keys, .env.local and the audit log to .gitignore

Existing files are left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting init command")

	result, err := workflows.Init(workflows.InitOptions{Force: initForce})
	if err != nil {
		return err
	}

	for _, step := range result.Steps {
		path := ui.Path.Sprint(step.Path)
		switch step.Action {
		case workflows.InitCreated:
			fmt.Printf("%s Created %s %s\n", ui.Success.Sprint("✓"), path, detail(step.Detail))
		case workflows.InitLinked:
			fmt.Printf("%s Linked %s → %s\n", ui.Success.Sprint("✓"), path, ui.Path.Sprint(step.Detail))
		case workflows.InitUpdated:
			fmt.Printf("%s Updated %s %s\n", ui.Success.Sprint("✓"), path, detail(step.Detail))
		case workflows.InitSkipped:
			fmt.Printf("%s Kept %s %s\n", ui.Muted.Sprint("-"), path, detail(step.Detail))
		case workflows.InitWarning:
			fmt.Printf("%s %s: %s\n", ui.Warning.Sprint("⚠"), path, step.Detail)
		}
	}

	fmt.Println()
	fmt.Println(ui.Info.Sprint("→") + " Add a secret with " + ui.Code.Sprint("env set KEY") +
		", then configure targets in env.config.toml and run " + ui.Code.Sprint("env sync"))
	return nil
}

func detail(s string) string {
	if s == "" {
		return ""
	}
	return ui.Muted.Sprint(s)
}
