// Package audit records what env changed and where.
//
// Every applied sync target and every local edit (set, rm, import) is
// recorded in a project-level audit log. Dry runs are not recorded.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	.env.audit.jsonl
//
// The file is rotated by size through lumberjack. Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Run ID shared by all entries of one command invocation
//   - Local user name
//   - Operation name and environment
//   - Key names that were added, updated or removed
//
// Values are never written to the log.
//
// # Usage
//
//	log := audit.New(audit.DefaultPath)
//	defer log.Close()
//	log.Log(audit.Entry{Operation: "sync", Env: "prod", Target: "convex", Added: keys})
//
// A nil *Logger is valid and discards entries.
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
package audit
