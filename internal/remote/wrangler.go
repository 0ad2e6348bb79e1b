package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// WranglerStore manages the secrets of one Cloudflare Worker.
// The env argument of its methods is the Wrangler environment name; an empty
// name targets the top-level worker.
type WranglerStore struct {
	cli     cli
	tempDir string
}

// NewWranglerStore returns a store for the worker configured at configPath.
// Commands run in the directory holding the config file.
func NewWranglerStore(runner Runner, packageRunner, configPath string) *WranglerStore {
	dir := filepath.Dir(configPath)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &WranglerStore{cli: newCLI(runner, packageRunner, "wrangler", dir)}
}

type wranglerSecret struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ListNames returns the names of the worker's secrets.
func (s *WranglerStore) ListNames(ctx context.Context, env string) (map[string]struct{}, error) {
	out, err := s.cli.run(ctx, -1, withEnv([]string{"secret", "list", "--format", "json"}, env)...)
	if err != nil {
		return nil, err
	}
	return parseWranglerList(out.Stdout)
}

// BulkWrite uploads secrets with `wrangler secret bulk` through a private
// temporary JSON file that is removed afterwards.
func (s *WranglerStore) BulkWrite(ctx context.Context, secrets map[string]string, env string) error {
	data, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("encoding secrets: %w", err)
	}

	tempDir := s.tempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	path := filepath.Join(tempDir, "env-secrets-"+uuid.NewString()+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing secrets file: %w", err)
	}
	defer os.Remove(path)

	_, err = s.cli.run(ctx, -1, withEnv([]string{"secret", "bulk", path}, env)...)
	return err
}

// Delete removes one secret without prompting.
func (s *WranglerStore) Delete(ctx context.Context, key, env string) error {
	_, err := s.cli.run(ctx, -1, withEnv([]string{"secret", "delete", key, "--force"}, env)...)
	return err
}

func withEnv(args []string, env string) []string {
	if env != "" {
		return append(args, "--env", env)
	}
	return args
}

// parseWranglerList decodes the JSON array printed by `wrangler secret list`.
// Banner lines printed before the array are ignored.
func parseWranglerList(stdout string) (map[string]struct{}, error) {
	start := strings.Index(stdout, "[")
	if start < 0 {
		return nil, fmt.Errorf("unexpected wrangler secret list output: %q", lastLines(strings.TrimSpace(stdout), 3))
	}

	var secrets []wranglerSecret
	if err := json.NewDecoder(strings.NewReader(stdout[start:])).Decode(&secrets); err != nil {
		return nil, fmt.Errorf("parsing wrangler secret list output: %w", err)
	}

	names := make(map[string]struct{}, len(secrets))
	for _, s := range secrets {
		if s.Name != "" {
			names[s.Name] = struct{}{}
		}
	}
	return names, nil
}
