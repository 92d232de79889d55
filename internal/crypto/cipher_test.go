package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := New(testSecret)
	require.NoError(t, err)

	tokens := []string{
		"ya29.a0AfH6SMB-short-lived-access-token",
		"1//0gRefreshTokenWithSlashes",
		"x",
		"a token with spaces and unicode ☀",
	}

	for _, token := range tokens {
		encrypted, err := c.Encrypt(token)
		require.NoError(t, err)

		decrypted, err := c.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, token, decrypted)
	}
}

func TestEncryptProducesDistinctCiphertexts(t *testing.T) {
	c, err := New(testSecret)
	require.NoError(t, err)

	first, err := c.Encrypt("same-token")
	require.NoError(t, err)
	second, err := c.Encrypt("same-token")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "random salt and iv must differ per call")

	for _, ct := range []string{first, second} {
		plain, err := c.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, "same-token", plain)
	}
}

func TestDecryptRejectsMalformedInput(t *testing.T) {
	c, err := New(testSecret)
	require.NoError(t, err)

	cases := map[string]string{
		"plaintext":        "just-a-plain-token",
		"too few segments": "a:b:c",
		"too many":         "a:b:c:d:e",
		"bad base64":       "!!!:!!!:!!!:!!!",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decrypt(input)
			require.Error(t, err)
			var decErr *DecryptionError
			assert.ErrorAs(t, err, &decErr)
		})
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	c, err := New(testSecret)
	require.NoError(t, err)

	encrypted, err := c.Encrypt("sensitive")
	require.NoError(t, err)

	parts := strings.Split(encrypted, ":")
	require.Len(t, parts, 4)
	// Flip the ciphertext segment to a valid-base64 but wrong value.
	parts[3] = "AAAA" + parts[3][4:]
	tampered := strings.Join(parts, ":")

	_, err = c.Decrypt(tampered)
	require.Error(t, err)
	var decErr *DecryptionError
	assert.ErrorAs(t, err, &decErr)
}

func TestDecryptRejectsWrongSecret(t *testing.T) {
	c1, err := New(testSecret)
	require.NoError(t, err)
	c2, err := New("another-secret-that-is-32-chars!")
	require.NoError(t, err)

	encrypted, err := c1.Encrypt("token")
	require.NoError(t, err)

	_, err = c2.Decrypt(encrypted)
	require.Error(t, err)
}

func TestIsEncrypted(t *testing.T) {
	c, err := New(testSecret)
	require.NoError(t, err)

	encrypted, err := c.Encrypt("token")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(encrypted))

	assert.False(t, IsEncrypted("plainstringvalue"))
	assert.False(t, IsEncrypted("a:b:c"))
	assert.False(t, IsEncrypted("::::"))
	assert.False(t, IsEncrypted("ya29.legacy-token-with.dots"))
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}
