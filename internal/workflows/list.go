package workflows

import (
	"github.com/ethan-huo/env/internal/configs"
	"github.com/ethan-huo/env/internal/dotenv"
)

// ListOptions configures the list workflow.
type ListOptions struct {
	Config *configs.Config
	Env    string

	// Filter is a glob on variable names. Empty lists everything.
	Filter string

	// Getenv reads private keys from the process environment. os.Getenv when nil.
	Getenv func(string) string
}

// ListResult contains the variables of one env file.
type ListResult struct {
	Env  string
	Path string
	Vars []dotenv.Var

	// Locked is set when encrypted values could not be decrypted and are
	// shown as dotenv.MaskedValue.
	Locked bool
}

// List returns the variables of an env file sorted by name, classified as
// public or private by the configured prefixes. Without a private key the
// encrypted values are masked instead of failing.
func List(opts ListOptions) (*ListResult, error) {
	cfg := configOrDefault(opts.Config)
	envPath, err := cfg.EnvFilePath(opts.Env)
	if err != nil {
		return nil, err
	}

	file, err := dotenv.LoadFileMasked(envPath, keyLookup(cfg, opts.Getenv))
	if err != nil {
		return nil, err
	}

	vars := file.Vars(cfg.PublicPrefixes())
	if opts.Filter != "" {
		vars = dotenv.FilterVars(vars, opts.Filter)
	}
	return &ListResult{Env: opts.Env, Path: envPath, Vars: vars, Locked: file.Locked}, nil
}
