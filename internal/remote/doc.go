// Package remote talks to the secret stores that env syncs into.
//
// Both stores are driven through their official CLIs, started with a package
// runner such as npx or bunx:
//
//   - ConvexStore uses `convex env list|set|remove`. Its listing includes
//     values, so it satisfies reconcile.ValueStore.
//   - WranglerStore uses `wrangler secret list|bulk|delete`. Its listing
//     only returns names, so it satisfies reconcile.NameStore.
//
// Processes are started through the Runner interface. ExecRunner is the
// os/exec implementation; tests substitute a fake that records invocations.
//
// A process that exits non-zero yields a *CommandError wrapping
// errors.ErrRemoteCommand. Secret values are never included in the
// command line recorded on the error.
//
// ResolveWranglerEnv maps a local environment (dev or prod) to the Wrangler
// environment to target, based on the worker config file and the configured
// envMapping.
package remote
