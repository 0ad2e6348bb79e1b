package errors

import (
	"errors"
	"fmt"
)

// Configuration errors are fatal: the command exits before any remote call.
var (
	// ErrConfigNotFound indicates an explicitly requested config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = errors.New("configuration is invalid")

	// ErrNothingToSync indicates neither sync targets nor typegen are configured.
	ErrNothingToSync = errors.New("no sync targets or typegen configured")

	// ErrEnvMappingRequired indicates a multi-environment worker has no envMapping.
	ErrEnvMappingRequired = errors.New("wrangler envMapping is required for multi-environment workers")

	// ErrUnknownEnv indicates an environment name other than dev, prod or all.
	ErrUnknownEnv = errors.New("unknown environment")
)

// File errors indicate issues with env files or key files.
var (
	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrVariableNotFound indicates the variable is not present in the env file.
	ErrVariableNotFound = errors.New("variable not found")

	// ErrInvalidKey indicates a variable name is not a valid env key.
	ErrInvalidKey = errors.New("invalid variable name")
)

// Cryptographic errors indicate failures reading or writing encrypted values.
var (
	// ErrPrivateKeyNotFound indicates no DOTENV_PRIVATE_KEY was found for the file.
	ErrPrivateKeyNotFound = errors.New("private key not found")

	// ErrPublicKeyNotFound indicates the env file has no DOTENV_PUBLIC_KEY header.
	ErrPublicKeyNotFound = errors.New("public key not found")

	// ErrDecryptFailed indicates an encrypted value could not be decrypted.
	ErrDecryptFailed = errors.New("failed to decrypt value")

	// ErrEncryptFailed indicates a value could not be encrypted.
	ErrEncryptFailed = errors.New("failed to encrypt value")

	// ErrInvalidPrivateKey indicates the private key is malformed.
	ErrInvalidPrivateKey = errors.New("invalid private key")
)

// Remote errors indicate failures talking to a sync target.
var (
	// ErrRemoteCommand indicates an external CLI exited with a non-zero status.
	ErrRemoteCommand = errors.New("remote command failed")

	// ErrRemoteWrite indicates one or more remote writes or deletes failed.
	ErrRemoteWrite = errors.New("remote write failed")

	// ErrNoPrivateKeys indicates no DOTENV_PRIVATE_* keys were found to install.
	ErrNoPrivateKeys = errors.New("no DOTENV_PRIVATE_* keys found")

	// ErrGitHubToken indicates no GitHub token is available in the environment.
	ErrGitHubToken = errors.New("GH_TOKEN or GITHUB_TOKEN is not set")

	// ErrGitHubRepo indicates the repository could not be determined.
	ErrGitHubRepo = errors.New("could not determine GitHub repository")
)

// ConfigError reports a fatal configuration problem for one sync target.
type ConfigError struct {
	Target string
	Env    string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Env == "" {
		return fmt.Sprintf("%s: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Target, e.Env, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is, or wraps, a configuration error.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return true
	}
	return errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrEnvMappingRequired) || errors.Is(err, ErrNothingToSync)
}
