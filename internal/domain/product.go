// Package domain contains the core business entities of the CKBFS faucet.
// These are plain Go structs with no external dependencies.
package domain

import (
	"time"
)

// QuotaConfig holds the per-product daily claim limits.
type QuotaConfig struct {
	// H24Quota is the number of claims a product may make in 24 hours.
	H24Quota int64 `json:"h24_quota"`

	// H24QuotaPerRequestType is the number of claims per request type in 24 hours.
	H24QuotaPerRequestType int64 `json:"h24_quota_per_request_type"`
}

// Product is an API caller account. A product owns one or more access keys.
type Product struct {
	// ID is the unique identifier for the product.
	ID int64 `json:"id"`

	// Name is the unique product name.
	Name string `json:"name"`

	// Quota is the product's daily claim limits.
	Quota QuotaConfig `json:"quota_config"`

	// CreatedAt is the timestamp when the product was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the product was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProduct creates a new Product with the given quota.
func NewProduct(name string, quota QuotaConfig) *Product {
	now := time.Now().UTC()
	return &Product{
		Name:      name,
		Quota:     quota,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
