package cmd

import (
	"fmt"
	"strings"

	"github.com/ethan-huo/env/internal/ui"
	"github.com/ethan-huo/env/internal/utils"
	"github.com/ethan-huo/env/internal/workflows"

	"github.com/spf13/cobra"
)

var setPlain bool

func init() {
	setCmd.Flags().BoolVar(&setPlain, "plain", false, "store the value unencrypted")
}

var setCmd = &cobra.Command{
	Use:   "set KEY [VALUE]",
	Short: "Encrypt and store a variable",
	Long: `Stores a variable in the selected env file, encrypted with the file's
public key. A key pair is generated when the file has none yet, and the
private key is added to .env.keys.

The value is read from stdin when VALUE is "-", and prompted for without
echo when VALUE is omitted.

Examples:
  env set API_URL https://api.example.com --plain
  env set STRIPE_KEY -e all
  pbpaste | env set SERVICE_ACCOUNT -`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting set command")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	envs, err := selectedEnvs()
	if err != nil {
		return err
	}

	key := args[0]
	value, err := readValue(key, args[1:])
	if err != nil {
		return err
	}

	auditLog := openAudit()
	defer auditLog.Close()

	reports, err := workflows.Set(workflows.SetOptions{
		Config: cfg,
		Envs:   envs,
		Key:    key,
		Value:  value,
		Plain:  setPlain,
		Audit:  auditLog,
	})
	for _, r := range reports {
		var notes []string
		if r.Encrypted {
			notes = append(notes, "encrypted")
		} else {
			notes = append(notes, "plain")
		}
		if r.Replaced {
			notes = append(notes, "replaced")
		}
		fmt.Printf("%s Set %s in %s %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(key), ui.Path.Sprint(r.Path), ui.Muted.Sprint(strings.Join(notes, ", ")))
		if r.GeneratedKey {
			fmt.Printf("%s Generated a key pair for %s; the private key was added to %s\n", ui.Info.Sprint("→"), ui.Path.Sprint(r.Path), ui.Path.Sprint(cfg.KeysPath()))
		}
	}
	return err
}

// readValue returns the value argument, stdin for "-", or a hidden prompt.
func readValue(key string, rest []string) (string, error) {
	if len(rest) == 1 && rest[0] != "-" {
		return rest[0], nil
	}
	if len(rest) == 0 && utils.IsTerminal() {
		return utils.ReadSecret(fmt.Sprintf("Value for %s: ", key))
	}
	Logger.Debugf("Reading value for %s from stdin", key)
	return utils.ReadStdin()
}
