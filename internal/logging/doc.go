// Package logger provides leveled logging for env CLI commands.
//
// The logger supports multiple verbosity levels controlled by command-line
// flags. Output is prefixed with a colored level tag.
//
// # Verbosity Levels
//
//   - --verbose: Shows info and warning messages
//   - --debug: Shows all messages including debug details and errors
//
// Without flags, only WarnfAlways output is shown; user-facing results are
// printed by the cmd layer, not through the logger.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Loaded %d variables from %s", n, path)
//
// The root command creates a logger in its PersistentPreRun, writing to the
// command's output streams, and passes it to workflows through their options.
// Watch mode derives one logger per environment with With, so concurrent
// runs stay distinguishable:
//
//	[info] [prod] write: .env.production
package logger
