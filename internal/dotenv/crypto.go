package dotenv

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	kerrors "github.com/ethan-huo/env/internal/errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/hkdf"
)

// EncryptedPrefix marks a value as an ECIES ciphertext.
const EncryptedPrefix = "encrypted:"

const (
	uncompressedKeyLen = 65
	nonceLen           = 16
	tagLen             = 16
)

// KeyPair holds hex encoded secp256k1 keys in the form dotenvx writes them.
type KeyPair struct {
	PublicKey  string // compressed, 33 bytes
	PrivateKey string // 32 bytes
}

// GenerateKeyPair creates a new secp256k1 key pair.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return KeyPair{}, fmt.Errorf("generating private key: %w", err)
	}
	return KeyPair{
		PublicKey:  hex.EncodeToString(priv.PubKey().SerializeCompressed()),
		PrivateKey: hex.EncodeToString(priv.Serialize()),
	}, nil
}

// IsEncrypted reports whether value carries the encrypted: prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncryptedPrefix)
}

// EncryptValue encrypts plaintext for publicKeyHex and returns an
// "encrypted:" prefixed value.
func EncryptValue(publicKeyHex, plaintext string) (string, error) {
	pub, err := parsePublicKey(publicKeyHex)
	if err != nil {
		return "", err
	}

	eph, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}
	ephPub := eph.PubKey().SerializeUncompressed()

	gcm, err := newGCM(deriveKey(ephPub, sharedPoint(eph, pub)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-tagLen], sealed[len(sealed)-tagLen:]

	out := make([]byte, 0, uncompressedKeyLen+nonceLen+tagLen+len(ciphertext))
	out = append(out, ephPub...)
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ciphertext...)

	return EncryptedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// DecryptValue decrypts an "encrypted:" value with privateKeyHex.
// Values without the prefix are returned unchanged.
func DecryptValue(privateKeyHex, value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}

	priv, err := parsePrivateKey(privateKeyHex)
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EncryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %v", kerrors.ErrDecryptFailed, err)
	}
	if len(data) < uncompressedKeyLen+nonceLen+tagLen {
		return "", fmt.Errorf("%w: ciphertext too short", kerrors.ErrDecryptFailed)
	}

	ephPub := data[:uncompressedKeyLen]
	nonce := data[uncompressedKeyLen : uncompressedKeyLen+nonceLen]
	tag := data[uncompressedKeyLen+nonceLen : uncompressedKeyLen+nonceLen+tagLen]
	ciphertext := data[uncompressedKeyLen+nonceLen+tagLen:]

	pub, err := secp256k1.ParsePubKey(ephPub)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ephemeral key: %v", kerrors.ErrDecryptFailed, err)
	}

	gcm, err := newGCM(deriveKey(ephPub, sharedPoint(priv, pub)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrDecryptFailed, err)
	}

	sealed := make([]byte, 0, len(ciphertext)+tagLen)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrDecryptFailed, err)
	}
	return string(plaintext), nil
}

// PublicKeyFromPrivate derives the compressed public key for privateKeyHex.
func PublicKeyFromPrivate(privateKeyHex string) (string, error) {
	priv, err := parsePrivateKey(privateKeyHex)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(priv.PubKey().SerializeCompressed()), nil
}

func parsePrivateKey(privateKeyHex string) (*secp256k1.PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimSpace(privateKeyHex))
	if err != nil || len(b) != 32 {
		return nil, kerrors.ErrInvalidPrivateKey
	}
	return secp256k1.PrivKeyFromBytes(b), nil
}

func parsePublicKey(publicKeyHex string) (*secp256k1.PublicKey, error) {
	b, err := hex.DecodeString(strings.TrimSpace(publicKeyHex))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid public key hex", kerrors.ErrEncryptFailed)
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}
	return pub, nil
}

// sharedPoint returns the uncompressed ECDH point priv*pub.
func sharedPoint(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) []byte {
	var point, result secp256k1.JacobianPoint
	pub.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(&priv.Key, &point, &result)
	result.ToAffine()
	return secp256k1.NewPublicKey(&result.X, &result.Y).SerializeUncompressed()
}

func deriveKey(ephPub, shared []byte) []byte {
	secret := make([]byte, 0, len(ephPub)+len(shared))
	secret = append(secret, ephPub...)
	secret = append(secret, shared...)

	key := make([]byte, 32)
	// HKDF-SHA256 cannot fail for a 32 byte output.
	_, _ = io.ReadFull(hkdf.New(sha256.New, secret, nil, nil), key)
	return key
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, nonceLen)
}
