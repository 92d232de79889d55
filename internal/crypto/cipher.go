// Package crypto implements the token cipher used to protect OAuth tokens
// at rest. Values are encrypted with AES-256-GCM under a key derived from the
// operator-supplied secret, and serialized as four base64 segments so the
// format is self-describing: salt:iv:authTag:ciphertext.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength    = 64
	ivLength      = 16
	authTagLength = 16
	keyLength     = 32
	pbkdf2Rounds  = 100000
)

var base64Segment = regexp.MustCompile(`^[A-Za-z0-9+/]+=*$`)

// DecryptionError indicates a value could not be decrypted: malformed
// format, failed authentication tag, or corrupt base64.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decryption failed: %s: %v", e.Reason, e.Err)
	}
	return "decryption failed: " + e.Reason
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// Cipher encrypts and decrypts token strings with a password-derived key.
type Cipher struct {
	secret []byte
}

// New creates a Cipher from the operator secret. The secret must be
// non-empty; length policy is enforced by config validation at startup.
func New(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is required")
	}
	return &Cipher{secret: []byte(secret)}, nil
}

func (c *Cipher) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(c.secret, salt, pbkdf2Rounds, keyLength, sha256.New)
}

// Encrypt encrypts plaintext and returns salt:iv:authTag:ciphertext with
// each segment base64 encoded. Salt and IV are freshly random per call, so
// encrypting the same value twice yields different outputs.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	aead, err := c.newAEAD(salt)
	if err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	// Seal appends the tag to the ciphertext; store them as separate segments.
	ciphertext := sealed[:len(sealed)-authTagLength]
	authTag := sealed[len(sealed)-authTagLength:]

	enc := base64.StdEncoding
	return strings.Join([]string{
		enc.EncodeToString(salt),
		enc.EncodeToString(iv),
		enc.EncodeToString(authTag),
		enc.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decrypt reverses Encrypt. It returns a *DecryptionError for malformed
// input or when the authentication tag does not verify.
func (c *Cipher) Decrypt(value string) (string, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return "", &DecryptionError{Reason: "invalid encrypted data format"}
	}

	enc := base64.StdEncoding
	salt, err := enc.DecodeString(parts[0])
	if err != nil {
		return "", &DecryptionError{Reason: "invalid salt encoding", Err: err}
	}
	iv, err := enc.DecodeString(parts[1])
	if err != nil {
		return "", &DecryptionError{Reason: "invalid iv encoding", Err: err}
	}
	authTag, err := enc.DecodeString(parts[2])
	if err != nil {
		return "", &DecryptionError{Reason: "invalid auth tag encoding", Err: err}
	}
	ciphertext, err := enc.DecodeString(parts[3])
	if err != nil {
		return "", &DecryptionError{Reason: "invalid ciphertext encoding", Err: err}
	}

	aead, err := c.newAEAD(salt)
	if err != nil {
		return "", err
	}
	if len(iv) != aead.NonceSize() {
		return "", &DecryptionError{Reason: "invalid iv length"}
	}

	plaintext, err := aead.Open(nil, iv, append(ciphertext, authTag...), nil)
	if err != nil {
		return "", &DecryptionError{Reason: "authentication failed", Err: err}
	}

	return string(plaintext), nil
}

func (c *Cipher) newAEAD(salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return aead, nil
}

// IsEncrypted reports whether a value looks like our encrypted format. It is
// a best-effort heuristic: values stored before encryption was introduced
// are plaintext and must pass through reads unchanged.
func IsEncrypted(value string) bool {
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if part == "" || !base64Segment.MatchString(part) {
			return false
		}
	}
	return true
}
