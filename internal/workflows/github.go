package workflows

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethan-huo/env/internal/audit"
	"github.com/ethan-huo/env/internal/dotenv"
	kerrors "github.com/ethan-huo/env/internal/errors"
	"github.com/ethan-huo/env/internal/ghsecrets"
	"github.com/ethan-huo/env/internal/remote"
	"github.com/ethan-huo/env/internal/utils"
)

// SecretSetter stores repository Actions secrets.
type SecretSetter interface {
	SetSecrets(ctx context.Context, repo ghsecrets.Repo, secrets map[string]string) ([]string, error)
}

// GithubActionOptions configures the install-github-action workflow.
type GithubActionOptions struct {
	// KeysPath is the keys file to read, or to write in CI.
	KeysPath string

	// Repo is owner/name. Detected from the origin remote when empty.
	Repo string

	// Environ is scanned for DOTENV_PRIVATE_* keys. os.Environ() when nil.
	Environ []string

	// Getenv reads the GitHub token. os.Getenv when nil.
	Getenv func(string) string

	// Runner runs git to detect the repository. Defaults to os/exec.
	Runner remote.Runner

	// NewClient creates the GitHub client. Defaults to the GitHub API.
	NewClient func(ctx context.Context, token string) SecretSetter

	Audit *audit.Logger
}

// GithubActionResult contains the outcome of install-github-action.
type GithubActionResult struct {
	// Repo and Stored are set when secrets were stored on GitHub.
	Repo   string
	Stored []string

	// KeysWritten is set when the keys file was written from the environment.
	KeysWritten bool
	KeysPath    string
}

// InstallGithubAction makes the private keys available to GitHub Actions.
//
// With a keys file, every DOTENV_PRIVATE_* entry is stored as a repository
// secret through the GitHub API. Without one, as inside a workflow run where
// the secrets arrive as environment variables, the keys file is written
// from those variables instead.
//
// Returns ErrNoPrivateKeys if neither source holds a key.
// Returns ErrGitHubToken if no token is available for the API.
func InstallGithubAction(ctx context.Context, opts GithubActionOptions) (*GithubActionResult, error) {
	keysPath := opts.KeysPath
	if keysPath == "" {
		keysPath = ".env.keys"
	}
	result := &GithubActionResult{KeysPath: keysPath}

	if !utils.Exists(keysPath) {
		environ := opts.Environ
		if environ == nil {
			environ = os.Environ()
		}
		pairs := dotenv.PrivateKeysFromEnv(environ)
		if len(pairs) == 0 {
			return nil, kerrors.ErrNoPrivateKeys
		}
		if err := os.WriteFile(keysPath, []byte(dotenv.KeysFileContent(pairs)), 0600); err != nil {
			return nil, fmt.Errorf("writing %s: %w", keysPath, err)
		}
		result.KeysWritten = true
		return result, nil
	}

	secrets, err := privateKeys(keysPath)
	if err != nil {
		return nil, err
	}

	repo, err := resolveRepo(ctx, opts)
	if err != nil {
		return nil, err
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	token, err := ghsecrets.TokenFromEnv(getenv)
	if err != nil {
		return nil, err
	}

	newClient := opts.NewClient
	if newClient == nil {
		newClient = func(ctx context.Context, token string) SecretSetter {
			return ghsecrets.NewClient(ctx, token)
		}
	}

	stored, err := newClient(ctx, token).SetSecrets(ctx, repo, secrets)
	result.Repo = repo.String()
	result.Stored = stored
	if err != nil {
		return result, err
	}

	opts.Audit.Log(audit.Entry{
		Operation: "install-github-action",
		Target:    repo.String(),
		Keys:      stored,
		File:      keysPath,
	})
	return result, nil
}

// privateKeys reads the DOTENV_PRIVATE_* entries of a keys file.
func privateKeys(keysPath string) (map[string]string, error) {
	keys, err := dotenv.ReadKeysFile(keysPath)
	if err != nil {
		return nil, err
	}

	secrets := make(map[string]string)
	var empty []string
	for name, value := range keys {
		if !strings.HasPrefix(name, "DOTENV_PRIVATE_") {
			continue
		}
		if strings.TrimSpace(value) == "" {
			empty = append(empty, name)
			continue
		}
		secrets[name] = value
	}
	if len(empty) > 0 {
		sort.Strings(empty)
		return nil, fmt.Errorf("%w: %s is empty in %s", kerrors.ErrNoPrivateKeys, strings.Join(empty, ", "), keysPath)
	}
	if len(secrets) == 0 {
		return nil, fmt.Errorf("%w in %s", kerrors.ErrNoPrivateKeys, keysPath)
	}
	return secrets, nil
}

func resolveRepo(ctx context.Context, opts GithubActionOptions) (ghsecrets.Repo, error) {
	if opts.Repo != "" {
		return ghsecrets.ParseRepo(opts.Repo)
	}

	runner := opts.Runner
	if runner == nil {
		runner = remote.ExecRunner{}
	}
	out, err := runner.Run(ctx, "", "git", "remote", "get-url", "origin")
	if err != nil || out.ExitCode != 0 {
		return ghsecrets.Repo{}, fmt.Errorf("%w: no origin remote, pass --repo owner/name", kerrors.ErrGitHubRepo)
	}
	return ghsecrets.ParseRepo(strings.TrimSpace(out.Stdout))
}
