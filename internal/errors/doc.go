// Package errors provides typed error values for the env CLI.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
//   - Configuration errors: fatal before any remote call (ErrEnvMappingRequired, ErrInvalidConfig)
//   - File errors: missing env files or variables (ErrFileNotFound, ErrVariableNotFound)
//   - Crypto errors: dotenvx key and value failures (ErrPrivateKeyNotFound, ErrDecryptFailed)
//   - Remote errors: sync target CLI failures (ErrRemoteCommand, ErrRemoteWrite)
//
// Per-target configuration problems are reported as *ConfigError so the
// CLI can name the offending target:
//
//	var cfgErr *errors.ConfigError
//	if errors.As(err, &cfgErr) {
//	    // cfgErr.Target, cfgErr.Env
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("loading %s: %w", path, errors.ErrFileNotFound)
package errors
