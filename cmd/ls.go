package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethan-huo/env/internal/dotenv"
	kerrors "github.com/ethan-huo/env/internal/errors"
	"github.com/ethan-huo/env/internal/ui"
	"github.com/ethan-huo/env/internal/utils"
	"github.com/ethan-huo/env/internal/workflows"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	lsFilter     string
	lsShowValues bool
	lsFormat     string
)

func init() {
	lsCmd.Flags().StringVar(&lsFilter, "filter", "", "only list variables matching a glob, e.g. VITE_*")
	lsCmd.Flags().BoolVar(&lsShowValues, "show-values", false, "show decrypted values instead of masking them")
	lsCmd.Flags().StringVar(&lsFormat, "format", "table", "output format: table, json, yaml or export")
}

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List the variables of env files",
	Long: `Lists the variables of the selected env file(s) with their scope.
Public variables match a typegen.publicPrefix; everything else is private.

Values are masked unless --show-values is given. Without a private key,
encrypted values are shown as "(encrypted)".

The export format prints shell export statements and always includes values.

Examples:
  env ls
  env ls -e all --filter 'VITE_*'
  env ls --format json --show-values
  eval "$(env ls --format export)"`,
	Args: cobra.NoArgs,
	RunE: runLs,
}

// listOutput is the json and yaml shape of one env.
type listOutput struct {
	Env    string       `json:"env" yaml:"env"`
	Path   string       `json:"path" yaml:"path"`
	Locked bool         `json:"locked,omitempty" yaml:"locked,omitempty"`
	Vars   []dotenv.Var `json:"vars" yaml:"vars"`
}

func runLs(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting ls command")

	switch lsFormat {
	case "table", "json", "yaml", "export":
	default:
		return fmt.Errorf("unknown format %q (want table, json, yaml or export)", lsFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	envs, err := selectedEnvs()
	if err != nil {
		return err
	}

	var results []*workflows.ListResult
	for _, env := range envs {
		result, err := workflows.List(workflows.ListOptions{Config: cfg, Env: env, Filter: lsFilter})
		if err != nil {
			return err
		}
		if result.Locked && lsFormat == "export" {
			return fmt.Errorf("%w for %s, cannot export encrypted values", kerrors.ErrPrivateKeyNotFound, result.Path)
		}
		results = append(results, result)
	}

	showValues := lsShowValues || lsFormat == "export"
	outputs := make([]listOutput, len(results))
	for i, r := range results {
		outputs[i] = listOutput{Env: r.Env, Path: r.Path, Locked: r.Locked, Vars: displayVars(r.Vars, showValues)}
	}

	switch lsFormat {
	case "json":
		data, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal variables to JSON: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(outputs)
		if err != nil {
			return fmt.Errorf("failed to marshal variables to YAML: %w", err)
		}
		fmt.Print(string(data))
	case "export":
		for _, o := range outputs {
			for _, v := range o.Vars {
				fmt.Printf("export %s=%s\n", v.Key, shellQuote(v.Value))
			}
		}
	default:
		for i, o := range outputs {
			if i > 0 {
				fmt.Println()
			}
			printVarTable(o)
		}
	}
	return nil
}

func displayVars(vars []dotenv.Var, showValues bool) []dotenv.Var {
	out := make([]dotenv.Var, len(vars))
	for i, v := range vars {
		if !showValues && v.Value != dotenv.MaskedValue {
			v.Value = utils.MaskValue(v.Value)
		}
		out[i] = v
	}
	return out
}

func printVarTable(o listOutput) {
	public, private := dotenv.CountScopes(o.Vars)
	fmt.Printf("%s %s %s\n", ui.Highlight.Sprint(o.Env), ui.Path.Sprint(o.Path),
		ui.Muted.Sprintf("%d public, %d private", public, private))
	if o.Locked {
		fmt.Printf("%s No private key for %s; encrypted values are hidden\n", ui.Warning.Sprint("⚠"), o.Path)
	}
	if len(o.Vars) == 0 {
		fmt.Println(ui.Muted.Sprint("no variables"))
		return
	}

	rows := make([][]string, len(o.Vars))
	for i, v := range o.Vars {
		lock := ""
		if v.Encrypted {
			lock = "✓"
		}
		rows[i] = []string{v.Key, string(v.Scope), lock, ui.Truncate(v.Value, 60)}
	}
	fmt.Print(ui.EnsureNewline(ui.RenderTable([]string{"KEY", "SCOPE", "ENC", "VALUE"}, rows)))
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
