// Package credentials layers token encryption over the admin settings
// repository and provides the availability monitor that gates sync until the
// admin has completed the first OAuth login.
package credentials

import (
	"context"
	"fmt"
	"strings"

	"github.com/xBwomp/famCalendar/internal/crypto"
	"github.com/xBwomp/famCalendar/internal/store"
)

// Well-known setting keys.
const (
	KeyAccessToken  = "google_access_token"
	KeyRefreshToken = "google_refresh_token"
	KeyLastSyncTime = "last_sync_time"

	KeyAdminUserID      = "admin_user_id"
	KeyAdminUserEmail   = "admin_user_email"
	KeyAdminUserName    = "admin_user_name"
	KeyAdminUserPicture = "admin_user_picture"
)

// Store reads and writes admin settings, transparently encrypting token
// values at rest. Reads tolerate plaintext values stored before encryption
// was introduced: only values matching the cipher format are decrypted.
type Store struct {
	settings store.SettingsRepository
	cipher   *crypto.Cipher
}

func NewStore(settings store.SettingsRepository, cipher *crypto.Cipher) *Store {
	return &Store{settings: settings, cipher: cipher}
}

func isTokenKey(key string) bool {
	return strings.Contains(key, "access_token") || strings.Contains(key, "refresh_token")
}

// Get returns the value for key, decrypting token values when they carry
// the encrypted format. Returns store.ErrNotFound when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.settings.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return s.decode(key, value)
}

// Set stores value under key, encrypting token values.
func (s *Store) Set(ctx context.Context, key, value string) error {
	encoded, err := s.encode(key, value)
	if err != nil {
		return err
	}
	return s.settings.Set(ctx, key, encoded)
}

// GetMany returns the present subset of keys, decoded like Get. Absent keys
// are simply missing from the result.
func (s *Store) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	raw, err := s.settings.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}
	decoded := make(map[string]string, len(raw))
	for key, value := range raw {
		plain, err := s.decode(key, value)
		if err != nil {
			return nil, err
		}
		decoded[key] = plain
	}
	return decoded, nil
}

// SetMany stores all values, encrypting token values, and returns the
// number written.
func (s *Store) SetMany(ctx context.Context, values map[string]string) (int, error) {
	encoded := make(map[string]string, len(values))
	for key, value := range values {
		v, err := s.encode(key, value)
		if err != nil {
			return 0, err
		}
		encoded[key] = v
	}
	return s.settings.SetMany(ctx, encoded)
}

func (s *Store) encode(key, value string) (string, error) {
	if !isTokenKey(key) || value == "" {
		return value, nil
	}
	encrypted, err := s.cipher.Encrypt(value)
	if err != nil {
		return "", fmt.Errorf("encrypt %s: %w", key, err)
	}
	return encrypted, nil
}

func (s *Store) decode(key, value string) (string, error) {
	if !isTokenKey(key) || !crypto.IsEncrypted(value) {
		return value, nil
	}
	return s.cipher.Decrypt(value)
}
