package workflows

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethan-huo/env/internal/audit"
	"github.com/ethan-huo/env/internal/configs"
	"github.com/ethan-huo/env/internal/dotenv"
	"github.com/ethan-huo/env/internal/pattern"
	"github.com/ethan-huo/env/internal/utils"
)

// ImportOptions configures the import workflow.
type ImportOptions struct {
	Config *configs.Config

	// Source is a .env file, plain or itself encrypted.
	Source string

	// Target is the env file that receives the variables.
	Target string

	// Getenv reads private keys from the process environment. os.Getenv when nil.
	Getenv func(string) string

	Audit *audit.Logger
}

// ImportResult contains the outcome of an import.
type ImportResult struct {
	Target   string
	Imported []string

	// Plain is set when no keys file exists and values were stored unencrypted.
	Plain bool
}

// Import copies every variable of Source into Target, encrypted when the
// keys file exists. DOTENV_* keys of the source are not copied.
//
// Returns ErrFileNotFound if the source does not exist.
func Import(opts ImportOptions) (*ImportResult, error) {
	cfg := configOrDefault(opts.Config)
	keys := keyLookup(cfg, opts.Getenv)

	record, err := dotenv.Load(opts.Source, keys)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Target: opts.Target, Plain: !utils.Exists(cfg.KeysPath())}

	if err := os.MkdirAll(filepath.Dir(opts.Target), 0755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", opts.Target, err)
	}
	if !utils.Exists(opts.Target) {
		// #nosec G306 -- encrypted env files are meant to be committed.
		if err := os.WriteFile(opts.Target, []byte("# Imported by env\n"), 0644); err != nil {
			return nil, fmt.Errorf("creating %s: %w", opts.Target, err)
		}
	}

	names := make([]string, 0, len(record))
	for key := range record {
		if !pattern.ShouldExclude(key, nil) {
			names = append(names, key)
		}
	}
	sort.Strings(names)

	for _, key := range names {
		_, err := dotenv.SetValue(opts.Target, key, record[key], dotenv.SetOptions{Plain: result.Plain, Keys: keys})
		if err != nil {
			return result, fmt.Errorf("importing %s: %w", key, err)
		}
		result.Imported = append(result.Imported, key)
	}

	opts.Audit.Log(audit.Entry{
		Operation: "import",
		Keys:      result.Imported,
		File:      opts.Target,
	})
	return result, nil
}
