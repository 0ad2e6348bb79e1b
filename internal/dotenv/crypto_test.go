package dotenv

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/ethan-huo/env/internal/errors"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	pair, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	if len(pair.PublicKey) != 66 {
		t.Errorf("expected 33 byte compressed public key (66 hex chars), got %d chars", len(pair.PublicKey))
	}
	if len(pair.PrivateKey) != 64 {
		t.Errorf("expected 32 byte private key (64 hex chars), got %d chars", len(pair.PrivateKey))
	}

	for _, plaintext := range []string{"", "hello", "postgres://user:p@ss@localhost:5432/db", "multi\nline", "ключ"} {
		encrypted, err := EncryptValue(pair.PublicKey, plaintext)
		if err != nil {
			t.Fatalf("EncryptValue(%q) failed: %v", plaintext, err)
		}
		if !strings.HasPrefix(encrypted, EncryptedPrefix) {
			t.Fatalf("encrypted value missing prefix: %q", encrypted)
		}

		decrypted, err := DecryptValue(pair.PrivateKey, encrypted)
		if err != nil {
			t.Fatalf("DecryptValue failed: %v", err)
		}
		if decrypted != plaintext {
			t.Errorf("round trip = %q, want %q", decrypted, plaintext)
		}
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	pair, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	a, _ := EncryptValue(pair.PublicKey, "same")
	b, _ := EncryptValue(pair.PublicKey, "same")
	if a == b {
		t.Error("two encryptions of the same value should differ")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	alice, _ := GenerateKeyPair()
	bob, _ := GenerateKeyPair()

	encrypted, err := EncryptValue(alice.PublicKey, "secret")
	if err != nil {
		t.Fatalf("EncryptValue failed: %v", err)
	}

	_, err = DecryptValue(bob.PrivateKey, encrypted)
	if !errors.Is(err, kerrors.ErrDecryptFailed) {
		t.Errorf("expected ErrDecryptFailed, got %v", err)
	}
}

func TestDecryptInvalidInput(t *testing.T) {
	pair, _ := GenerateKeyPair()

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{"bad base64", pair.PrivateKey, "encrypted:!!!", kerrors.ErrDecryptFailed},
		{"too short", pair.PrivateKey, "encrypted:AAAA", kerrors.ErrDecryptFailed},
		{"bad private key", "zz", "encrypted:AAAA", kerrors.ErrInvalidPrivateKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecryptValue(tt.key, tt.value); !errors.Is(err, tt.wantErr) {
				t.Errorf("DecryptValue() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecryptPlainValuePassesThrough(t *testing.T) {
	got, err := DecryptValue("not-even-a-key", "plain")
	if err != nil || got != "plain" {
		t.Errorf("DecryptValue(plain) = %q, %v", got, err)
	}
}

func TestPublicKeyFromPrivate(t *testing.T) {
	pair, _ := GenerateKeyPair()
	pub, err := PublicKeyFromPrivate(pair.PrivateKey)
	if err != nil {
		t.Fatalf("PublicKeyFromPrivate failed: %v", err)
	}
	if pub != pair.PublicKey {
		t.Errorf("derived public key %s, want %s", pub, pair.PublicKey)
	}
}

// Known answer vector in the dotenvx wire format: uncompressed ephemeral
// key, 16 byte nonce, GCM tag, ciphertext, keyed with HKDF-SHA256 over the
// ephemeral key and the uncompressed shared point.
const (
	knownPrivateKey = "7a4a72091b0eb1843163504c3cdc12b237207c51948a6386a89b86a5963fee5e"
	knownPublicKey  = "02080960c52f7bf3bc5f74ba993b81136223abe5919d26b1ae9e10895717b8cc15"
	knownDatabase   = "encrypted:BJU8AbggdJDhfSDX5usiRFVkZ9oNOWMxu6PzsvQkW7q1yvQlfNLxqD8q8Df8YIUYf0c+Vsr0+e+acEuvaAxXNsl4N3tSV1e0lEJ/iQFPl9eZSDE/+qizMBuuxmBd1xsRxXuFINBtyr9WC4uLMvaxTTNBKtBLiPtvdlgcicEHhgspjtFe21CJLgvl"
	knownEmpty      = "encrypted:BJU8AbggdJDhfSDX5usiRFVkZ9oNOWMxu6PzsvQkW7q1yvQlfNLxqD8q8Df8YIUYf0c+Vsr0+e+acEuvaAxXNsl4N3tSV1e0lEJ/iQFPl9eZOmgvS9oHgPmPML4aZ7cGRQ=="
)

func TestDecryptKnownAnswer(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"database url", knownDatabase, "postgres://user:p@ss@db.internal:5432/app"},
		{"empty", knownEmpty, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecryptValue(knownPrivateKey, tt.value)
			if err != nil {
				t.Fatalf("DecryptValue failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("DecryptValue() = %q, want %q", got, tt.want)
			}
		})
	}

	pub, err := PublicKeyFromPrivate(knownPrivateKey)
	if err != nil {
		t.Fatalf("PublicKeyFromPrivate failed: %v", err)
	}
	if pub != knownPublicKey {
		t.Errorf("PublicKeyFromPrivate() = %s, want %s", pub, knownPublicKey)
	}
}

func TestDecryptKnownAnswerTampered(t *testing.T) {
	// Flip one ciphertext character; the GCM tag must reject it.
	tampered := knownDatabase[:len(knownDatabase)-5] + "A" + knownDatabase[len(knownDatabase)-4:]
	if tampered == knownDatabase {
		t.Fatal("tampering did not change the value")
	}
	if _, err := DecryptValue(knownPrivateKey, tampered); !errors.Is(err, kerrors.ErrDecryptFailed) {
		t.Errorf("expected ErrDecryptFailed, got %v", err)
	}
}

func TestLoadKnownAnswerFile(t *testing.T) {
	content := "DOTENV_PUBLIC_KEY_PRODUCTION=\"" + knownPublicKey + "\"\n" +
		"DATABASE_URL=\"" + knownDatabase + "\"\n"
	getenv := func(name string) string {
		if name == "DOTENV_PRIVATE_KEY_PRODUCTION" {
			return knownPrivateKey
		}
		return ""
	}

	keys := KeyLookup{KeysPath: filepath.Join(t.TempDir(), ".env.keys"), Getenv: getenv}
	f, err := Parse(".env.production", content, keys)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := f.Record["DATABASE_URL"]; got != "postgres://user:p@ss@db.internal:5432/app" {
		t.Errorf("DATABASE_URL = %q", got)
	}
	if !f.Encrypted["DATABASE_URL"] {
		t.Error("DATABASE_URL should be marked encrypted")
	}
}
