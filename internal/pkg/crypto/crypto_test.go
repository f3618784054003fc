package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAccessKeyPair(t *testing.T) {
	accessKeyID, secret, err := GenerateAccessKeyPair()
	require.NoError(t, err)

	require.Len(t, accessKeyID, AccessKeyIDLength)
	require.Len(t, secret, SecretKeyLength)

	for _, c := range accessKeyID + secret {
		require.True(t, strings.ContainsRune(tokenChars, c), "unexpected character %q", c)
	}

	other, _, err := GenerateAccessKeyPair()
	require.NoError(t, err)
	require.NotEqual(t, accessKeyID, other)
}

func TestParseHexKey(t *testing.T) {
	master, err := GenerateMasterKey()
	require.NoError(t, err)

	key, err := ParseHexKey(" " + master + "\n")
	require.NoError(t, err)
	require.Len(t, key, KeySize)

	_, err = ParseHexKey("abcd")
	require.ErrorIs(t, err, ErrInvalidHexKey)

	_, err = ParseHexKey(strings.Repeat("zz", KeySize))
	require.ErrorIs(t, err, ErrInvalidHexKey)
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("correct horse battery staple")
	require.NoError(t, err)
	b, err := DeriveKey("correct horse battery staple")
	require.NoError(t, err)
	c, err := DeriveKey("another passphrase")
	require.NoError(t, err)

	require.Len(t, a, KeySize)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)

	_, err = DeriveKey("")
	require.ErrorIs(t, err, ErrEmptyPassphrase)
}

func TestEncryptor_RoundTrip(t *testing.T) {
	master, err := GenerateMasterKey()
	require.NoError(t, err)

	for _, value := range []string{master, "a passphrase"} {
		enc, err := NewEncryptorFromConfig(value)
		require.NoError(t, err)

		ciphertext, err := enc.EncryptString("euFzwfDD8m5wQRujh3touXgLhYudH5AySBPSSzC4")
		require.NoError(t, err)
		require.NotContains(t, ciphertext, "euFzwfDD8m5wQRujh3touXgLhYudH5AySBPSSzC4")

		plaintext, err := enc.DecryptString(ciphertext)
		require.NoError(t, err)
		require.Equal(t, "euFzwfDD8m5wQRujh3touXgLhYudH5AySBPSSzC4", plaintext)
	}
}

func TestEncryptor_Errors(t *testing.T) {
	_, err := NewEncryptor([]byte("short"))
	require.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = NewEncryptorFromConfig("")
	require.ErrorIs(t, err, ErrEmptyPassphrase)

	enc, err := NewEncryptorFromConfig("one")
	require.NoError(t, err)
	other, err := NewEncryptorFromConfig("two")
	require.NoError(t, err)

	ciphertext, err := enc.EncryptString("secret")
	require.NoError(t, err)

	_, err = other.DecryptString(ciphertext)
	require.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = enc.DecryptString("AAAA")
	require.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = enc.DecryptString("!!not base64!!")
	require.Error(t, err)
}
