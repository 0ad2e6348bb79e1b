package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethan-huo/env/internal/audit"
	"github.com/ethan-huo/env/internal/configs"
	logger "github.com/ethan-huo/env/internal/logging"
	"github.com/ethan-huo/env/internal/ui"
	"github.com/ethan-huo/env/internal/utils"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	envFlag    string
	configPath string
	verbose    bool
	debug      bool
	Logger     logger.Logger

	// RootCmd is the env command.
	RootCmd = &cobra.Command{
		Use:   "env",
		Short: "Manage encrypted env files and sync them to Convex and Cloudflare Workers",
		Long: `env keeps one encrypted env file per environment (development and
production) in the repository and reconciles remote secret stores with it.

Values are encrypted with dotenvx-compatible keys; private keys live in
.env.keys, which is never committed.

Examples:
  # Set up a project
  env init

  # Store a secret in both environments
  env set STRIPE_KEY -e all

  # Push production to Convex and every configured worker
  env sync -e prod

  # See what would change without touching anything
  env sync -e all --dry-run`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
				Out:     cmd.OutOrStdout(),
				Err:     cmd.ErrOrStderr(),
			}
			Logger.Debugf("Running %s with env=%s, config=%q", cmd.CommandPath(), envFlag, configPath)
		},
		Run: func(cmd *cobra.Command, args []string) {
			if utils.IsStdoutTerminal() {
				fmt.Println()
				figure.NewColorFigure("env", "", "green", true).Print()
				fmt.Println()
			}
			fmt.Println("Run " + ui.Code.Sprint("env --help") + " to see available commands.")
		},
	}
)

// errReported is returned when the command already printed why it failed.
var errReported = errors.New("command failed")

func init() {
	RootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", configs.EnvDev, "environment: dev, prod or all")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: env.config.{toml,yaml,json} in the working directory)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(setCmd)
	RootCmd.AddCommand(rmCmd)
	RootCmd.AddCommand(lsCmd)
	RootCmd.AddCommand(diffCmd)
	RootCmd.AddCommand(syncCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(githubActionCmd)
	RootCmd.AddCommand(logCmd)
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, formatError(err))
		}
		os.Exit(1)
	}
}

// loadConfig reads the --config file or the one in the working directory.
func loadConfig() (*configs.Config, error) {
	cfg, err := configs.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		Logger.Debugf("Loaded config from %s", cfg.Path)
	} else {
		Logger.Debugf("No config file found, using defaults")
	}
	return cfg, nil
}

// selectedEnvs expands the -e flag.
func selectedEnvs() ([]string, error) {
	return configs.ResolveEnvs(envFlag)
}

// openAudit returns the project audit log. Callers close it.
func openAudit() *audit.Logger {
	return audit.New(audit.DefaultPath)
}

// ResetGlobalState restores every flag of every command to its default
// value, for tests that execute RootCmd more than once.
func ResetGlobalState() {
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		visit := func(flag *pflag.Flag) {
			_ = flag.Value.Set(flag.DefValue)
			flag.Changed = false
		}
		c.Flags().VisitAll(visit)
		c.PersistentFlags().VisitAll(visit)
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(RootCmd)
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
