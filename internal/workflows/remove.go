package workflows

import (
	"github.com/ethan-huo/env/internal/audit"
	"github.com/ethan-huo/env/internal/configs"
	"github.com/ethan-huo/env/internal/dotenv"
)

// RemoveOptions configures the remove workflow.
type RemoveOptions struct {
	Config *configs.Config
	Envs   []string
	Key    string
	Audit  *audit.Logger
}

// RemoveReport is the outcome for one env file.
type RemoveReport struct {
	Env  string
	Path string

	// Err is ErrFileNotFound or ErrVariableNotFound when there was nothing
	// to remove, or a write failure.
	Err error
}

// Remove deletes the variable from every requested env file. A missing file
// or variable is reported for that env and the other envs still run.
//
// Returns ErrInvalidKey if the key is not a valid variable name.
func Remove(opts RemoveOptions) ([]RemoveReport, error) {
	cfg := configOrDefault(opts.Config)
	if err := dotenv.ValidateKey(opts.Key); err != nil {
		return nil, err
	}

	reports := make([]RemoveReport, 0, len(opts.Envs))
	for _, env := range opts.Envs {
		envPath, err := cfg.EnvFilePath(env)
		if err != nil {
			return reports, err
		}

		report := RemoveReport{Env: env, Path: envPath, Err: dotenv.RemoveKey(envPath, opts.Key)}
		if report.Err == nil {
			opts.Audit.Log(audit.Entry{
				Operation: "rm",
				Env:       env,
				Keys:      []string{opts.Key},
				File:      envPath,
			})
		}
		reports = append(reports, report)
	}
	return reports, nil
}
