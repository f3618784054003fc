package domain

import (
	"time"
)

// AccessKeyStatus represents the status of an access key.
type AccessKeyStatus string

const (
	// AccessKeyStatusActive indicates the key can be used for authentication.
	AccessKeyStatusActive AccessKeyStatus = "active"

	// AccessKeyStatusInactive indicates the key is disabled and cannot be used.
	AccessKeyStatusInactive AccessKeyStatus = "inactive"
)

// AccessKey is a credential pair owned by a product.
type AccessKey struct {
	// ID is the unique identifier for the access key record.
	ID int64 `json:"id"`

	// ProductID is the ID of the product that owns this access key.
	ProductID int64 `json:"product_id"`

	// AccessKeyID is the public identifier (24 characters).
	AccessKeyID string `json:"access_key_id"`

	// EncryptedSecret is the AES-256-GCM encrypted 40 character secret.
	// Stored as: base64(nonce || ciphertext || tag)
	EncryptedSecret string `json:"-"`

	// Status indicates whether the key is active or inactive.
	Status AccessKeyStatus `json:"status"`

	// CreatedAt is the timestamp when the key was created.
	CreatedAt time.Time `json:"created_at"`

	// LastUsedAt is the timestamp when the key last authenticated a request.
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// NewAccessKey creates a new active AccessKey.
// The accessKeyID and encryptedSecret should be generated using the crypto package.
func NewAccessKey(productID int64, accessKeyID, encryptedSecret string) *AccessKey {
	return &AccessKey{
		ProductID:       productID,
		AccessKeyID:     accessKeyID,
		EncryptedSecret: encryptedSecret,
		Status:          AccessKeyStatusActive,
		CreatedAt:       time.Now().UTC(),
	}
}

// IsActive returns true if the access key can be used for authentication.
func (ak *AccessKey) IsActive() bool {
	return ak.Status == AccessKeyStatusActive
}

// ActiveIdentity joins an active access key with its owning product.
// EncryptedSecret is still encrypted.
type ActiveIdentity struct {
	ProductID       int64
	ProductName     string
	AccessKeyID     string
	EncryptedSecret string
	Status          AccessKeyStatus
}

// AccessKeyCredentials holds both the access key ID and the plaintext secret.
// It is returned once when a key is created and never stored.
type AccessKeyCredentials struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}
