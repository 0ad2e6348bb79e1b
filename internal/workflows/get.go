package workflows

import (
	"fmt"

	"github.com/ethan-huo/env/internal/configs"
	kerrors "github.com/ethan-huo/env/internal/errors"
)

// GetOptions configures the get workflow.
type GetOptions struct {
	Config *configs.Config
	Envs   []string
	Key    string

	// Getenv reads private keys from the process environment. os.Getenv when nil.
	Getenv func(string) string
}

// EnvValue is the value of a variable in one env.
type EnvValue struct {
	Env   string
	Value string
	Found bool

	// Err is set when the env file could not be loaded.
	Err error
}

// Get reads one variable from every requested env.
//
// Returns ErrVariableNotFound if no env defines the variable. With a single
// env, a load failure is returned as is.
func Get(opts GetOptions) ([]EnvValue, error) {
	cfg := configOrDefault(opts.Config)

	values := make([]EnvValue, 0, len(opts.Envs))
	found := false
	for _, env := range opts.Envs {
		v := EnvValue{Env: env}
		file, err := loadEnvFile(cfg, env, opts.Getenv)
		if err != nil {
			if len(opts.Envs) == 1 {
				return nil, err
			}
			v.Err = err
		} else {
			v.Value, v.Found = file.Record[opts.Key]
		}
		found = found || v.Found
		values = append(values, v)
	}

	if !found {
		return values, fmt.Errorf("%w: %s", kerrors.ErrVariableNotFound, opts.Key)
	}
	return values, nil
}
