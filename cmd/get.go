package cmd

import (
	"fmt"

	"github.com/ethan-huo/env/internal/ui"
	"github.com/ethan-huo/env/internal/workflows"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print the decrypted value of a variable",
	Long: `Prints the decrypted value of a variable from the selected env file.

With -e all, prints a table with the value in each environment.
Exits with status 1 when no environment defines the variable.

Examples:
  env get DATABASE_URL
  env get DATABASE_URL -e all`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting get command")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	envs, err := selectedEnvs()
	if err != nil {
		return err
	}

	values, err := workflows.Get(workflows.GetOptions{Config: cfg, Envs: envs, Key: args[0]})
	if err != nil {
		return err
	}

	if len(values) == 1 {
		fmt.Println(values[0].Value)
		return nil
	}

	rows := make([][]string, 0, len(values))
	for _, v := range values {
		switch {
		case v.Err != nil:
			rows = append(rows, []string{v.Env, ui.Error.Sprint(v.Err.Error())})
		case !v.Found:
			rows = append(rows, []string{v.Env, ui.Muted.Sprint("not set")})
		default:
			rows = append(rows, []string{v.Env, v.Value})
		}
	}
	fmt.Print(ui.EnsureNewline(ui.RenderTable([]string{"ENV", args[0]}, rows)))
	return nil
}
