// Package ghsecrets stores repository secrets for GitHub Actions.
//
// Values are sealed with the repository's Actions public key (a libsodium
// sealed box) before they are sent, as the GitHub API requires.
package ghsecrets

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	kerrors "github.com/ethan-huo/env/internal/errors"

	"github.com/google/go-github/v74/github"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/oauth2"
)

// Client sets Actions secrets on one repository.
type Client struct {
	gh *github.Client
}

// NewClient returns a client authenticated with token.
func NewClient(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{gh: github.NewClient(oauth2.NewClient(ctx, ts))}
}

// newClientForURL points a client at a different API root. Used by tests.
func newClientForURL(httpClient *http.Client, baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, err
	}
	gh := github.NewClient(httpClient)
	gh.BaseURL = u
	return &Client{gh: gh}, nil
}

// TokenFromEnv returns GH_TOKEN or GITHUB_TOKEN.
func TokenFromEnv(getenv func(string) string) (string, error) {
	for _, name := range []string{"GH_TOKEN", "GITHUB_TOKEN"} {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v, nil
		}
	}
	return "", kerrors.ErrGitHubToken
}

// SetSecrets seals and stores every secret, sorted by name. It stops at the
// first failure.
func (c *Client) SetSecrets(ctx context.Context, repo Repo, secrets map[string]string) ([]string, error) {
	key, _, err := c.gh.Actions.GetRepoPublicKey(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("fetching Actions public key for %s: %w", repo, err)
	}

	names := make([]string, 0, len(secrets))
	for name := range secrets {
		names = append(names, name)
	}
	sort.Strings(names)

	var stored []string
	for _, name := range names {
		sealed, err := Seal(key.GetKey(), secrets[name])
		if err != nil {
			return stored, err
		}
		_, err = c.gh.Actions.CreateOrUpdateRepoSecret(ctx, repo.Owner, repo.Name, &github.EncryptedSecret{
			Name:           name,
			KeyID:          key.GetKeyID(),
			EncryptedValue: sealed,
		})
		if err != nil {
			return stored, fmt.Errorf("setting %s on %s: %w", name, repo, err)
		}
		stored = append(stored, name)
	}
	return stored, nil
}

// Seal encrypts value for the base64 encoded curve25519 public key and
// returns the base64 encoded sealed box.
func Seal(publicKeyB64, value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil || len(raw) != 32 {
		return "", fmt.Errorf("%w: invalid repository public key", kerrors.ErrEncryptFailed)
	}
	var pub [32]byte
	copy(pub[:], raw)

	sealed, err := box.SealAnonymous(nil, []byte(value), &pub, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

var repoPattern = regexp.MustCompile(`^(?:(?:https?|ssh|git)://(?:[^@/]+@)?github\.com/|git@github\.com:)?([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+?)(?:\.git)?/?$`)

// ParseRepo accepts owner/name, an https or ssh GitHub URL, or an scp-style
// git@github.com:owner/name remote.
func ParseRepo(s string) (Repo, error) {
	m := repoPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Repo{}, fmt.Errorf("%w: %q", kerrors.ErrGitHubRepo, s)
	}
	return Repo{Owner: m[1], Name: m[2]}, nil
}
