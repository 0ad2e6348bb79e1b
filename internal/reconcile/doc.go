// Package reconcile brings a remote secret store in line with a local env
// record.
//
// Two store shapes are supported:
//
//   - ValueStore: the listing returns names and values (Convex). Keys whose
//     remote value equals the local value are left alone.
//   - NameStore: the listing returns names only (Wrangler). Every key that
//     exists on both sides is rewritten, since equality cannot be checked.
//
// Both reconcilers follow the same pipeline:
//
//  1. Fetch the remote listing. A failed listing is treated as an empty
//     remote and recorded in Result.ReadErr, so the diff still reports
//     every local key as added while removals go undetected.
//  2. Drop excluded keys from both sides. DOTENV_* keys are always excluded.
//  3. Classify every remaining key as added, updated, removed or unchanged.
//  4. Unless DryRun is set, write added and updated keys in one batch and
//     then delete removed keys one at a time. Failures are collected in
//     Result.ApplyErrs and never stop the remaining steps.
//
// The reconcilers never return an error. Callers inspect Result.ReadErr and
// Result.ApplyErrs and decide how to report them.
package reconcile
