package cmd

import (
	"fmt"

	"github.com/ethan-huo/env/internal/ui"
	"github.com/ethan-huo/env/internal/workflows"

	"github.com/spf13/cobra"
)

var importTarget string

func init() {
	importCmd.Flags().StringVarP(&importTarget, "file", "f", "", "env file to import into (default: the -e env file)")
}

var importCmd = &cobra.Command{
	Use:   "import SOURCE",
	Short: "Copy the variables of a plain .env file into an env file",
	Long: `Copies every variable of SOURCE into the target env file, encrypting
the values when a keys file exists. Existing variables are replaced.

Examples:
  env import .env.old
  env import legacy/.env -e prod
  env import .env.staging -f .env.staging.encrypted`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting import command")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	target := importTarget
	if target == "" {
		if target, err = cfg.EnvFilePath(envFlag); err != nil {
			return err
		}
	}

	auditLog := openAudit()
	defer auditLog.Close()

	result, err := workflows.Import(workflows.ImportOptions{Config: cfg, Source: args[0], Target: target, Audit: auditLog})
	if err != nil {
		return err
	}

	mode := "encrypted"
	if result.Plain {
		mode = "plain, no keys file"
	}
	fmt.Printf("%s Imported %d variables into %s %s\n", ui.Success.Sprint("✓"), len(result.Imported), ui.Path.Sprint(result.Target), ui.Muted.Sprint(mode))
	Logger.Debugf("Imported keys: %v", result.Imported)
	return nil
}
