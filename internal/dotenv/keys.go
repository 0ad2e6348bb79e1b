package dotenv

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	kerrors "github.com/ethan-huo/env/internal/errors"

	"github.com/joho/godotenv"
)

const (
	PublicKeyName  = "DOTENV_PUBLIC_KEY"
	PrivateKeyName = "DOTENV_PRIVATE_KEY"
)

var nonKeyChars = regexp.MustCompile(`[^A-Z0-9]+`)

// KeySuffix derives the DOTENV_*_KEY suffix from an env file name:
// .env.production -> PRODUCTION, .env -> "".
func KeySuffix(envPath string) string {
	base := filepath.Base(envPath)
	if !strings.HasPrefix(base, ".env.") {
		return ""
	}
	suffix := strings.ToUpper(strings.TrimPrefix(base, ".env."))
	return strings.Trim(nonKeyChars.ReplaceAllString(suffix, "_"), "_")
}

// PublicKeyVar returns the public key variable name for envPath.
func PublicKeyVar(envPath string) string {
	if s := KeySuffix(envPath); s != "" {
		return PublicKeyName + "_" + s
	}
	return PublicKeyName
}

// PrivateKeyVar returns the private key variable name for envPath.
func PrivateKeyVar(envPath string) string {
	if s := KeySuffix(envPath); s != "" {
		return PrivateKeyName + "_" + s
	}
	return PrivateKeyName
}

// KeyLookup resolves private keys for env files.
type KeyLookup struct {
	// KeysPath is the keys file, .env.keys when empty.
	KeysPath string

	// Getenv reads the process environment, os.Getenv when nil.
	Getenv func(string) string
}

// PrivateKey returns the private key for envPath or ErrPrivateKeyNotFound.
// The suffixed name wins over the generic one, and the process environment
// wins over the keys file.
func (k KeyLookup) PrivateKey(envPath string) (string, error) {
	getenv := k.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	keys, err := ReadKeysFile(k.keysPath())
	if err != nil {
		return "", err
	}

	for _, name := range []string{PrivateKeyVar(envPath), PrivateKeyName} {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v, nil
		}
		if v := strings.TrimSpace(keys[name]); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w for %s (set %s or add it to %s)", kerrors.ErrPrivateKeyNotFound, envPath, PrivateKeyVar(envPath), k.keysPath())
}

func (k KeyLookup) keysPath() string {
	if k.KeysPath == "" {
		return ".env.keys"
	}
	return k.KeysPath
}

// ReadKeysFile parses a keys file. A missing file yields an empty map.
func ReadKeysFile(path string) (map[string]string, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	keys, err := godotenv.Unmarshal(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return keys, nil
}

// PrivateKeysFromEnv returns the DOTENV_PRIVATE_* entries of environ
// (os.Environ format), sorted by name.
func PrivateKeysFromEnv(environ []string) [][2]string {
	var out [][2]string
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasPrefix(name, "DOTENV_PRIVATE_") {
			continue
		}
		out = append(out, [2]string{name, value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

const keysFileHeader = `#/------------------!DOTENV_PRIVATE_KEYS!-------------------/
#/ private decryption keys. DO NOT commit to source control /
#/     [how it works](https://dotenvx.com/encryption)       /
#/----------------------------------------------------------/
`

// KeysFileContent renders a keys file holding the given name/value pairs.
func KeysFileContent(pairs [][2]string) string {
	var b strings.Builder
	b.WriteString(keysFileHeader)
	b.WriteString("\n")
	for _, p := range pairs {
		b.WriteString(p[0])
		b.WriteString("=")
		b.WriteString(p[1])
		b.WriteString("\n")
	}
	return b.String()
}
