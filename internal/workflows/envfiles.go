package workflows

import (
	"github.com/ethan-huo/env/internal/configs"
	"github.com/ethan-huo/env/internal/dotenv"
)

// keyLookup locates private keys for the env files of cfg.
func keyLookup(cfg *configs.Config, getenv func(string) string) dotenv.KeyLookup {
	return dotenv.KeyLookup{KeysPath: cfg.KeysPath(), Getenv: getenv}
}

// loadEnvFile decrypts the env file configured for env.
func loadEnvFile(cfg *configs.Config, env string, getenv func(string) string) (*dotenv.File, error) {
	envPath, err := cfg.EnvFilePath(env)
	if err != nil {
		return nil, err
	}
	return dotenv.LoadFile(envPath, keyLookup(cfg, getenv))
}

// configOrDefault returns cfg, or the defaults when no config was loaded.
func configOrDefault(cfg *configs.Config) *configs.Config {
	if cfg == nil {
		return configs.Default()
	}
	return cfg
}
