package workflows

import (
	"github.com/ethan-huo/env/internal/audit"
	"github.com/ethan-huo/env/internal/configs"
	"github.com/ethan-huo/env/internal/dotenv"
)

// SetOptions configures the set workflow.
type SetOptions struct {
	Config *configs.Config
	Envs   []string
	Key    string
	Value  string

	// Plain stores the value unencrypted.
	Plain bool

	Audit *audit.Logger
}

// SetReport describes the change to one env file.
type SetReport struct {
	Env  string
	Path string
	*dotenv.SetResult
}

// Set writes the variable into every requested env file, encrypting it
// unless Plain is set. It stops at the first env that fails.
//
// Returns ErrInvalidKey if the key is not a valid variable name.
func Set(opts SetOptions) ([]SetReport, error) {
	cfg := configOrDefault(opts.Config)
	if err := dotenv.ValidateKey(opts.Key); err != nil {
		return nil, err
	}

	var reports []SetReport
	for _, env := range opts.Envs {
		envPath, err := cfg.EnvFilePath(env)
		if err != nil {
			return reports, err
		}

		res, err := dotenv.SetValue(envPath, opts.Key, opts.Value, dotenv.SetOptions{
			Plain: opts.Plain,
			Keys:  keyLookup(cfg, nil),
		})
		if err != nil {
			return reports, err
		}
		reports = append(reports, SetReport{Env: env, Path: envPath, SetResult: res})

		opts.Audit.Log(audit.Entry{
			Operation: "set",
			Env:       env,
			Keys:      []string{opts.Key},
			File:      envPath,
		})
	}
	return reports, nil
}
