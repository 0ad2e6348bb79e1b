package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethan-huo/env/internal/ui"
	"github.com/ethan-huo/env/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	githubKeysFile string
	githubRepo     string
)

func init() {
	githubActionCmd.Flags().StringVar(&githubKeysFile, "file", "", "keys file (default: envFiles.keys)")
	githubActionCmd.Flags().StringVar(&githubRepo, "repo", "", "GitHub repository as owner/name (default: the origin remote)")
}

var githubActionCmd = &cobra.Command{
	Use:   "install-github-action",
	Short: "Make the private keys available to GitHub Actions",
	Long: `Stores every DOTENV_PRIVATE_KEY_* entry of the keys file as a repository
Actions secret, using GH_TOKEN or GITHUB_TOKEN.

Inside a workflow run, where the keys file does not exist but the secrets
are exposed as environment variables, the keys file is written from them
instead.

Examples:
  GH_TOKEN=$(gh auth token) env install-github-action
  env install-github-action --repo acme/app`,
	Args: cobra.NoArgs,
	RunE: runInstallGithubAction,
}

func runInstallGithubAction(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting install-github-action command")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	keysPath := githubKeysFile
	if keysPath == "" {
		keysPath = cfg.KeysPath()
	}

	auditLog := openAudit()
	defer auditLog.Close()

	result, err := workflows.InstallGithubAction(context.Background(), workflows.GithubActionOptions{
		KeysPath: keysPath,
		Repo:     githubRepo,
		Audit:    auditLog,
	})
	if err != nil {
		return err
	}

	if result.KeysWritten {
		fmt.Printf("%s Wrote %s from the environment\n", ui.Success.Sprint("✓"), ui.Path.Sprint(result.KeysPath))
		return nil
	}
	fmt.Printf("%s Stored %s in %s\n", ui.Success.Sprint("✓"), strings.Join(result.Stored, ", "), ui.Highlight.Sprint(result.Repo))
	fmt.Println(ui.Info.Sprint("→") + " In your workflow, run " + ui.Code.Sprint("env install-github-action") +
		" with the secrets exposed as environment variables to recreate " + keysPath)
	return nil
}
