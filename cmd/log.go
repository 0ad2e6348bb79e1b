package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/ethan-huo/env/internal/audit"
	"github.com/ethan-huo/env/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logOperation string
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation (comma-separated): sync, set, rm, import, install-github-action")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the local audit log of changes made by env: applied syncs,
set, rm, import and install-github-action.

Entries are filtered by env only when -e is given explicitly.

Examples:
  env log
  env log -n 10 --reverse
  env log --operation sync -e prod
  env log --json`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	opts := workflows.LogOptions{
		Limit:      logLimit,
		Reverse:    logReverse,
		Operations: logOperation,
	}
	if cmd.Flags().Changed("env") && envFlag != "all" {
		opts.Env = envFlag
	}

	result, err := workflows.Log(opts)
	if err != nil {
		return err
	}
	Logger.Debugf("Parsed %d entries, %d after filtering", result.Total, len(result.Entries))

	if logJSON {
		entries := result.Entries
		if entries == nil {
			entries = []audit.Entry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal entries to JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(result.Entries) == 0 {
		if result.Total == 0 {
			fmt.Println("No audit log entries found.")
		} else {
			fmt.Println("No audit log entries found matching the filters.")
		}
		return nil
	}

	for _, e := range result.Entries {
		fmt.Printf("%-19s  %-12s  %-8s  %-4s  %s\n", workflows.FormatDateTime(e.Timestamp), e.User, e.Operation, e.Env, workflows.FormatDetails(e))
	}
	return nil
}
