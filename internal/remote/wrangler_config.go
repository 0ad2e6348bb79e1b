package remote

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	kerrors "github.com/ethan-huo/env/internal/errors"

	"github.com/BurntSushi/toml"
	"github.com/tailscale/hujson"
)

// WorkerConfig is the part of a wrangler.toml / wrangler.json[c] that
// matters for secrets.
type WorkerConfig struct {
	Path         string
	Name         string
	Environments []string
}

// MultiEnv reports whether the worker declares named environments.
func (w *WorkerConfig) MultiEnv() bool {
	return len(w.Environments) > 0
}

type workerFile struct {
	Name string                    `json:"name" toml:"name"`
	Env  map[string]map[string]any `json:"env" toml:"env"`
}

// LoadWorkerConfig reads a Wrangler config file. TOML is used for .toml
// files; everything else is parsed as JSON with comments and trailing commas.
func LoadWorkerConfig(path string) (*WorkerConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file workerFile
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &file); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else {
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := json.Unmarshal(std, &file); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg := &WorkerConfig{Path: path, Name: file.Name}
	for name := range file.Env {
		cfg.Environments = append(cfg.Environments, name)
	}
	sort.Strings(cfg.Environments)
	return cfg, nil
}

// Resolution says which Wrangler environment a local env syncs to.
type Resolution struct {
	// Env is passed as --env. Empty targets the top-level worker.
	Env string

	// Skip is set when this local env must not sync to the worker.
	Skip bool

	// Reason explains a skip.
	Reason string
}

// ResolveWranglerEnv maps localEnv ("dev" or "prod") onto the worker.
//
//   - A mapping that names localEnv selects that environment.
//   - A mapping without localEnv skips the target.
//   - Without a mapping, a multi-environment worker is a configuration error,
//     and a single-environment worker only accepts prod.
func ResolveWranglerEnv(worker *WorkerConfig, mapping map[string]string, localEnv string) (Resolution, error) {
	if len(mapping) > 0 {
		name := strings.TrimSpace(mapping[localEnv])
		if name == "" {
			return Resolution{Skip: true, Reason: fmt.Sprintf("envMapping has no entry for %s", localEnv)}, nil
		}
		return Resolution{Env: name}, nil
	}

	if worker.MultiEnv() {
		return Resolution{}, &kerrors.ConfigError{
			Target: "wrangler " + worker.Path,
			Env:    localEnv,
			Err: fmt.Errorf("%w: worker declares environments [%s]; set sync.wrangler.envMapping",
				kerrors.ErrEnvMappingRequired, strings.Join(worker.Environments, ", ")),
		}
	}

	if localEnv != "prod" {
		return Resolution{Skip: true, Reason: "single-environment worker only syncs prod"}, nil
	}
	return Resolution{}, nil
}
