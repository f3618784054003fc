package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestType is the kind of claim a product makes.
type RequestType int

const (
	RequestType0 RequestType = 0
	RequestType1 RequestType = 1
)

// AcpType selects the anyone-can-pay lock script. Only AcpTypeNew is accepted.
type AcpType int

const (
	AcpTypeOld AcpType = 0
	AcpTypeNew AcpType = 1
)

// ClaimEventStatus is the processing state of a claim.
type ClaimEventStatus string

const (
	ClaimEventStatusPending    ClaimEventStatus = "pending"
	ClaimEventStatusProcessing ClaimEventStatus = "processing"
	ClaimEventStatusProcessed  ClaimEventStatus = "processed"
	ClaimEventStatusFailed     ClaimEventStatus = "failed"
)

// DefaultCapacity is the capacity in shannons granted per claim.
const DefaultCapacity int64 = 145 * 100_000_000

// ClaimEvent is a faucet claim recorded for an authenticated product. The
// signature and request timestamp are kept as provenance.
type ClaimEvent struct {
	// ID is the claim event's UUID.
	ID uuid.UUID `json:"id"`

	// ProductID is the claiming product.
	ProductID int64 `json:"product_id"`

	// AccessKeyID is the access key that signed the request.
	AccessKeyID string `json:"access_key_id"`

	// RequestUUID is the client supplied 0x-prefixed 32-byte hex id.
	RequestUUID string `json:"request_uuid"`

	// Pk160 is the 0x-prefixed 20-byte hex lock args of the recipient.
	Pk160 string `json:"pk160"`

	// RequestType is the kind of claim.
	RequestType RequestType `json:"request_type"`

	// AcpType is the lock script variant.
	AcpType AcpType `json:"acp_type"`

	// Capacity is the amount granted, in shannons.
	Capacity int64 `json:"capacity"`

	// Status is the processing state.
	Status ClaimEventStatus `json:"status"`

	// TxHash is the hash of the transaction that paid the claim, once sent.
	TxHash string `json:"tx_hash,omitempty"`

	// Signature is the request signature that authenticated the claim.
	Signature string `json:"signature"`

	// RequestTimestamp is the x-ckbfs-date of the signed request.
	RequestTimestamp time.Time `json:"request_timestamp"`

	// CreatedAt is the timestamp when the claim was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// NewClaimEvent creates a pending claim with a fresh UUID and the default capacity.
func NewClaimEvent(productID int64, accessKeyID string) *ClaimEvent {
	return &ClaimEvent{
		ID:          uuid.New(),
		ProductID:   productID,
		AccessKeyID: accessKeyID,
		AcpType:     AcpTypeNew,
		Capacity:    DefaultCapacity,
		Status:      ClaimEventStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}
