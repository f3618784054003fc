// Package repository defines data access interfaces for the faucet.
// These interfaces abstract database operations, allowing for different implementations
// (SQLite, PostgreSQL, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/ckbfs-faucet/internal/domain"
)

// =============================================================================
// Product Repository
// =============================================================================

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// Create creates a new product.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by ID.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// GetByName retrieves a product by name.
	GetByName(ctx context.Context, name string) (*domain.Product, error)

	// List returns all products ordered by ID.
	List(ctx context.Context) ([]*domain.Product, error)
}

// =============================================================================
// Access Key Repository
// =============================================================================

// AccessKeyRepository defines the interface for access key data access.
type AccessKeyRepository interface {
	// Create creates a new access key.
	Create(ctx context.Context, key *domain.AccessKey) error

	// GetByAccessKeyID retrieves an access key by its 24 character identifier.
	GetByAccessKeyID(ctx context.Context, accessKeyID string) (*domain.AccessKey, error)

	// GetActiveIdentity joins an active access key with its product.
	// This is the lookup used for authentication.
	GetActiveIdentity(ctx context.Context, accessKeyID string) (*domain.ActiveIdentity, error)

	// ListByProductID returns all access keys for a product.
	ListByProductID(ctx context.Context, productID int64) ([]*domain.AccessKey, error)

	// UpdateStatus activates or deactivates an access key.
	UpdateStatus(ctx context.Context, accessKeyID string, status domain.AccessKeyStatus) error

	// UpdateLastUsed updates the last_used_at timestamp.
	UpdateLastUsed(ctx context.Context, accessKeyID string) error
}

// =============================================================================
// Claim Event Repository
// =============================================================================

// ClaimEventRepository defines the interface for claim event data access.
type ClaimEventRepository interface {
	// Create stores a new claim event.
	Create(ctx context.Context, event *domain.ClaimEvent) error

	// GetByID retrieves a claim event by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ClaimEvent, error)

	// ExistsForProduct reports whether the product has a claim for pk160 and
	// requestUUID that has not failed.
	ExistsForProduct(ctx context.Context, productID int64, pk160, requestUUID string) (bool, error)

	// Count returns the number of claim events matching filter.
	Count(ctx context.Context, filter ClaimCountFilter) (int64, error)
}

// ClaimCountFilter selects claim events for quota counting.
type ClaimCountFilter struct {
	// ProductID restricts the count to one product when non-zero.
	ProductID int64

	// RequestType restricts the count to one request type when set.
	RequestType *domain.RequestType

	// Since counts only events created at or after this time.
	Since time.Time
}

// =============================================================================
// Aggregate
// =============================================================================

// Repositories holds all repository instances.
type Repositories struct {
	Product    ProductRepository
	AccessKey  AccessKeyRepository
	ClaimEvent ClaimEventRepository
}

// DatabaseHealth is an interface for database health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}
