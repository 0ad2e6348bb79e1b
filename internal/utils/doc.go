// Package utils provides shared helpers for the env command.
//
// Functions are organized into logical groups:
//
// # Filesystem Utilities
//
// Functions for working with project files:
//   - Exists: reports whether a path exists, following symlinks
//   - LinkFile: points a symlink at a target, replacing stale links
//   - AppendMissingLines: adds ignore rules to .gitignore style files
//
// # String Utilities
//
// Functions for string manipulation and formatting:
//   - FormatPaths: formats file paths for human-readable output
//   - MaskValue: hides secret values in listings
//
// # I/O Utilities
//
// Functions for reading from stdin:
//   - ReadStdin: reads all data from standard input
//
// # Terminal Utilities
//
// Functions for terminal detection and interaction:
//   - IsTerminal: checks if stdin is a terminal
//   - ReadSecret: prompts for a value without echoing it
package utils
