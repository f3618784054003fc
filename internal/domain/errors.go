package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Product Errors
	// ===========================================

	// ErrProductNotFound indicates the requested product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrProductAlreadyExists indicates a product with the same name exists.
	ErrProductAlreadyExists = errors.New("product already exists")

	// ErrProductNameEmpty indicates a product was created without a name.
	ErrProductNameEmpty = errors.New("product name must not be empty")

	// ===========================================
	// Access Key Errors
	// ===========================================

	// ErrAccessKeyNotFound indicates the requested access key does not exist.
	ErrAccessKeyNotFound = errors.New("access key not found")

	// ErrAccessKeyInactive indicates the access key is disabled.
	ErrAccessKeyInactive = errors.New("access key is inactive")

	// ErrInvalidAccessKeyID indicates the access key ID format is invalid.
	ErrInvalidAccessKeyID = errors.New("invalid access key ID")

	// ===========================================
	// Claim Event Errors
	// ===========================================

	// ErrClaimEventNotFound indicates the requested claim event does not exist.
	ErrClaimEventNotFound = errors.New("claim event not found")

	// ErrDuplicateClaim indicates the product already claimed for this pk160 and request uuid.
	ErrDuplicateClaim = errors.New("the same pk160 can only claim once per product per uuid")

	// ErrQuotaPerProduct indicates the product's 24 hour quota is used up.
	ErrQuotaPerProduct = errors.New("h24_quota")

	// ErrQuotaPerRequestType indicates the product's 24 hour quota for the request type is used up.
	ErrQuotaPerRequestType = errors.New("h24_quota_per_request_type")

	// ErrQuotaTotal indicates the faucet's 24 hour quota is used up.
	ErrQuotaTotal = errors.New("h24_total_quota")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., product name, claim id).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}
