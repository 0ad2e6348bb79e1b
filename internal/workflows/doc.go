// Package workflows provides high-level orchestration for env commands.
//
// Workflows coordinate multiple operations across packages (configs, dotenv,
// reconcile, remote, audit) to implement complete user-facing features. Each
// workflow handles a single command's business logic, independent of CLI
// concerns like flag parsing, spinners, and output formatting.
//
// # Layering
//
// cmd/ parses flags, loads the config, calls one workflow and prints the
// result. Workflows load and decrypt env files, check prerequisites before
// any remote call, do the work and append audit entries. Remote stores are
// reached through the Backends interface.
//
// # Available Workflows
//
//   - Sync: Writes .env.local, generates types and reconciles remote targets
//   - Watch: Runs Sync again for each env file that changes
//   - DiffEnvs, DiffConvex, DiffWrangler: Compare env files and remotes
//   - Get, Set, Remove, List: Read and edit env files
//   - Import: Copies a plain .env file into an env file
//   - Init: Scaffolds env files, config and ignore rules
//   - InstallGithubAction: Stores private keys as Actions secrets
//   - Log: Reads and filters the audit log
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching. Use errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Sync(ctx, opts)
//	if kerrors.IsConfigError(err) {
//	    // Nothing was sent to any remote
//	}
//
// Sync never stops at the first remote failure. Per environment and per
// target failures are carried in the result, and SyncResult.Failed reports
// whether the command should exit non-zero.
//
// # Context Usage
//
// Workflow functions that talk to remote stores accept a context.Context as
// their first parameter. Cancelling it stops in-flight CLI processes.
package workflows
