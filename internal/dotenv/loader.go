package dotenv

import (
	"errors"
	"fmt"
	"os"

	kerrors "github.com/ethan-huo/env/internal/errors"

	"github.com/joho/godotenv"
)

// Record maps variable names to plaintext values.
type Record map[string]string

// Keys returns the record's names in no particular order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	return keys
}

// Load reads envPath and decrypts every encrypted value.
//
// Returns ErrFileNotFound when envPath does not exist and
// ErrPrivateKeyNotFound when the file holds encrypted values but no private
// key is available; ciphertext is never returned as a plaintext value.
func Load(envPath string, keys KeyLookup) (Record, error) {
	f, err := LoadFile(envPath, keys)
	if err != nil {
		return nil, err
	}
	return f.Record, nil
}

// MaskedValue replaces encrypted values that cannot be decrypted.
const MaskedValue = "(encrypted)"

// File is a decrypted env file together with which keys were stored encrypted.
type File struct {
	Path      string
	Record    Record
	Encrypted map[string]bool

	// Locked is set by LoadFileMasked when no private key was available and
	// encrypted values were replaced by MaskedValue.
	Locked bool
}

// LoadFile is Load, keeping track of the keys that were stored encrypted.
func LoadFile(envPath string, keys KeyLookup) (*File, error) {
	content, err := readEnvFile(envPath)
	if err != nil {
		return nil, err
	}
	return parse(envPath, content, keys, false)
}

// LoadFileMasked is LoadFile for display purposes: when the private key is
// missing, encrypted values are replaced by MaskedValue instead of failing.
// A key that is present but wrong is still an error.
func LoadFileMasked(envPath string, keys KeyLookup) (*File, error) {
	content, err := readEnvFile(envPath)
	if err != nil {
		return nil, err
	}
	return parse(envPath, content, keys, true)
}

// Parse decodes env file content. envPath only selects the key names.
func Parse(envPath, content string, keys KeyLookup) (*File, error) {
	return parse(envPath, content, keys, false)
}

func readEnvFile(envPath string) (string, error) {
	content, err := os.ReadFile(envPath)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, envPath)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", envPath, err)
	}
	return string(content), nil
}

func parse(envPath, content string, keys KeyLookup, mask bool) (*File, error) {
	parsed, err := godotenv.Unmarshal(content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", envPath, err)
	}

	f := &File{
		Path:      envPath,
		Record:    make(Record, len(parsed)),
		Encrypted: make(map[string]bool),
	}
	var privateKey string
	for key, value := range parsed {
		if !IsEncrypted(value) {
			f.Record[key] = value
			continue
		}
		f.Encrypted[key] = true

		if privateKey == "" && !f.Locked {
			privateKey, err = keys.PrivateKey(envPath)
			if err != nil {
				if !mask || !errors.Is(err, kerrors.ErrPrivateKeyNotFound) {
					return nil, err
				}
				f.Locked = true
			}
		}
		if f.Locked {
			f.Record[key] = MaskedValue
			continue
		}

		plain, err := DecryptValue(privateKey, value)
		if err != nil {
			return nil, fmt.Errorf("decrypting %s in %s: %w", key, envPath, err)
		}
		f.Record[key] = plain
	}

	return f, nil
}

// Vars is ParseVars with the Encrypted flag taken from the file.
func (f *File) Vars(publicPrefixes []string) []Var {
	vars := ParseVars(f.Record, publicPrefixes)
	for i := range vars {
		if f.Encrypted[vars[i].Key] {
			vars[i].Encrypted = true
		}
	}
	return vars
}

// Serialize renders record as .env content without DOTENV_* keys.
func Serialize(record Record) (string, error) {
	out := make(map[string]string, len(record))
	for k, v := range record {
		if isBookkeeping(k) {
			continue
		}
		out[k] = v
	}
	return godotenv.Marshal(out)
}
