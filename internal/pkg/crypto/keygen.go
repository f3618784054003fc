package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// AccessKeyIDLength is the length of an access key ID.
	AccessKeyIDLength = 24

	// SecretKeyLength is the length of a secret access key.
	SecretKeyLength = 40
)

// tokenChars is the base58 alphabet; it omits 0, O, I and l.
const tokenChars = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Key generation errors
var (
	// ErrInvalidHexKey indicates the hex key is malformed or wrong length.
	ErrInvalidHexKey = errors.New("invalid hex key: must be 64 hex characters (32 bytes)")
)

// GenerateAccessKeyID generates a random 24-character access key ID.
// Example: "TYkNNrK4wjmche2i6WBAvajZ"
func GenerateAccessKeyID() (string, error) {
	return generateRandomString(AccessKeyIDLength, tokenChars)
}

// GenerateSecretKey generates a random 40-character secret key.
// Example: "euFzwfDD8m5wQRujh3touXgLhYudH5AySBPSSzC4"
func GenerateSecretKey() (string, error) {
	return generateRandomString(SecretKeyLength, tokenChars)
}

// GenerateMasterKey generates a random 32-byte master key for AES-256.
// Returns the key as a 64-character hex string.
func GenerateMasterKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate master key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// ParseHexKey parses a hex-encoded key string into bytes.
// Expects 64 hex characters (32 bytes).
func ParseHexKey(hexKey string) ([]byte, error) {
	hexKey = strings.TrimSpace(hexKey)

	if len(hexKey) != KeySize*2 {
		return nil, ErrInvalidHexKey
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHexKey, err)
	}

	return key, nil
}

// generateRandomString returns length characters drawn uniformly from charset.
func generateRandomString(length int, charset string) (string, error) {
	result := make([]byte, length)
	limit := big.NewInt(int64(len(charset)))

	for i := range result {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		result[i] = charset[n.Int64()]
	}

	return string(result), nil
}

// GenerateAccessKeyPair generates a new access key ID and secret key pair.
// Returns the access key ID, plaintext secret key, and any error.
func GenerateAccessKeyPair() (accessKeyID, secretKey string, err error) {
	accessKeyID, err = GenerateAccessKeyID()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access key ID: %w", err)
	}

	secretKey, err = GenerateSecretKey()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate secret key: %w", err)
	}

	return accessKeyID, secretKey, nil
}
