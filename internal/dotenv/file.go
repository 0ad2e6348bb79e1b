package dotenv

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	kerrors "github.com/ethan-huo/env/internal/errors"

	"github.com/joho/godotenv"
)

var (
	validKey  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	plainSafe = regexp.MustCompile(`^[A-Za-z0-9_./:@,+=-]+$`)
)

const publicKeyHeader = `#/-------------------[DOTENV_PUBLIC_KEY]--------------------/
#/            public-key encryption for .env files          /
#/       [how it works](https://dotenvx.com/encryption)     /
#/----------------------------------------------------------/
`

// ValidateKey checks that key is a usable variable name.
func ValidateKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("%w: %q", kerrors.ErrInvalidKey, key)
	}
	return nil
}

// SetOptions configures SetValue.
type SetOptions struct {
	// Plain stores the value unencrypted.
	Plain bool

	// Keys locates the keys file that receives a newly generated private key.
	Keys KeyLookup
}

// SetResult describes what SetValue changed.
type SetResult struct {
	Replaced     bool
	Encrypted    bool
	GeneratedKey bool
}

// SetValue writes key=value into envPath, replacing an existing assignment
// or appending a new one. Unless opts.Plain is set the value is encrypted
// with the file's public key; a key pair is generated when the file has none.
func SetValue(envPath, key, value string, opts SetOptions) (*SetResult, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	content, err := readOptional(envPath)
	if err != nil {
		return nil, err
	}

	result := &SetResult{}
	stored := value
	if !opts.Plain {
		publicKey, err := publicKeyOf(envPath, content)
		if err != nil {
			return nil, err
		}
		if publicKey == "" {
			pair, err := GenerateKeyPair()
			if err != nil {
				return nil, err
			}
			if err := UpsertKey(opts.Keys.keysPath(), PrivateKeyVar(envPath), pair.PrivateKey, envPath); err != nil {
				return nil, err
			}
			content = publicKeyHeader + PublicKeyVar(envPath) + "=" + quote(pair.PublicKey, true) + "\n" + content
			publicKey = pair.PublicKey
			result.GeneratedKey = true
		}

		stored, err = EncryptValue(publicKey, value)
		if err != nil {
			return nil, err
		}
		result.Encrypted = true
	}

	line := key + "=" + quote(stored, result.Encrypted)
	content, result.Replaced = replaceOrAppend(content, key, line)

	// #nosec G306 -- encrypted env files are meant to be committed.
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", envPath, err)
	}
	return result, nil
}

// RemoveKey deletes every assignment of key from envPath.
// Returns ErrFileNotFound or ErrVariableNotFound when there is nothing to remove.
func RemoveKey(envPath, key string) error {
	content, err := os.ReadFile(envPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, envPath)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", envPath, err)
	}

	matcher := assignment(key)
	lines := strings.Split(string(content), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if matcher.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == len(lines) {
		return fmt.Errorf("%w: %s in %s", kerrors.ErrVariableNotFound, key, envPath)
	}

	// #nosec G306 -- encrypted env files are meant to be committed.
	if err := os.WriteFile(envPath, []byte(strings.Join(kept, "\n")), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", envPath, err)
	}
	return nil
}

// UpsertKey sets name=value in a keys file, creating it with the standard
// header when missing. comment labels a newly appended entry.
func UpsertKey(keysPath, name, value, comment string) error {
	content, err := readOptional(keysPath)
	if err != nil {
		return err
	}
	if content == "" {
		content = keysFileHeader
	}

	line := name + "=" + value
	updated, replaced := replaceOrAppend(content, name, line)
	if !replaced && comment != "" {
		updated, _ = replaceOrAppend(content, name, "\n# "+comment+"\n"+line)
	}

	if err := os.WriteFile(keysPath, []byte(updated), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", keysPath, err)
	}
	return nil
}

func publicKeyOf(envPath, content string) (string, error) {
	values, err := godotenv.Unmarshal(content)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", envPath, err)
	}
	if pk := values[PublicKeyVar(envPath)]; pk != "" {
		return pk, nil
	}
	return values[PublicKeyName], nil
}

func replaceOrAppend(content, key, line string) (string, bool) {
	matcher := assignment(key)
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		if matcher.MatchString(l) {
			lines[i] = line
			return strings.Join(lines, "\n"), true
		}
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + line + "\n", false
}

func assignment(key string) *regexp.Regexp {
	return regexp.MustCompile(`^\s*(?:export\s+)?` + regexp.QuoteMeta(key) + `\s*=`)
}

// quote renders a value so godotenv reads it back unchanged.
func quote(value string, force bool) string {
	if !force && plainSafe.MatchString(value) {
		return value
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "$", `\$`)
	return `"` + r.Replace(value) + `"`
}

func readOptional(path string) (string, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(content), nil
}
