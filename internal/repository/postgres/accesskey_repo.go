package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

// accessKeyRepository implements repository.AccessKeyRepository for PostgreSQL.
type accessKeyRepository struct {
	db *DB
}

// NewAccessKeyRepository creates a new PostgreSQL access key repository.
func NewAccessKeyRepository(db *DB) repository.AccessKeyRepository {
	return &accessKeyRepository{db: db}
}

// Create creates a new access key.
func (r *accessKeyRepository) Create(ctx context.Context, key *domain.AccessKey) error {
	query := `
		INSERT INTO access_keys (product_id, access_key_id, encrypted_secret, status, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		key.ProductID,
		key.AccessKeyID,
		key.EncryptedSecret,
		string(key.Status),
		key.CreatedAt,
		key.LastUsedAt,
	).Scan(&key.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDomainError(domain.ErrInvalidAccessKeyID, "access key ID already exists", key.AccessKeyID)
		}
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("failed to create access key: %w", err)
	}

	return nil
}

// GetByAccessKeyID retrieves an access key by its 24 character identifier.
func (r *accessKeyRepository) GetByAccessKeyID(ctx context.Context, accessKeyID string) (*domain.AccessKey, error) {
	query := `
		SELECT id, product_id, access_key_id, encrypted_secret, status, created_at, last_used_at
		FROM access_keys
		WHERE access_key_id = $1
	`
	return scanAccessKey(r.db.Pool.QueryRow(ctx, query, accessKeyID))
}

// GetActiveIdentity joins an active access key with its product.
func (r *accessKeyRepository) GetActiveIdentity(ctx context.Context, accessKeyID string) (*domain.ActiveIdentity, error) {
	query := `
		SELECT p.id, p.name, ak.access_key_id, ak.encrypted_secret, ak.status
		FROM access_keys ak
		JOIN products p ON p.id = ak.product_id
		WHERE ak.access_key_id = $1 AND ak.status = $2
	`

	var (
		identity domain.ActiveIdentity
		status   string
	)
	err := r.db.Pool.QueryRow(ctx, query, accessKeyID, string(domain.AccessKeyStatusActive)).Scan(
		&identity.ProductID,
		&identity.ProductName,
		&identity.AccessKeyID,
		&identity.EncryptedSecret,
		&status,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccessKeyNotFound
		}
		return nil, fmt.Errorf("failed to get active identity: %w", err)
	}
	identity.Status = domain.AccessKeyStatus(status)

	return &identity, nil
}

// ListByProductID returns all access keys for a product.
func (r *accessKeyRepository) ListByProductID(ctx context.Context, productID int64) ([]*domain.AccessKey, error) {
	query := `
		SELECT id, product_id, access_key_id, encrypted_secret, status, created_at, last_used_at
		FROM access_keys
		WHERE product_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access keys: %w", err)
	}
	defer rows.Close()

	var keys []*domain.AccessKey
	for rows.Next() {
		key, err := scanAccessKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access keys: %w", err)
	}

	return keys, nil
}

// UpdateStatus activates or deactivates an access key.
func (r *accessKeyRepository) UpdateStatus(ctx context.Context, accessKeyID string, status domain.AccessKeyStatus) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE access_keys SET status = $1 WHERE access_key_id = $2`,
		string(status), accessKeyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update access key status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccessKeyNotFound
	}
	return nil
}

// UpdateLastUsed updates the last_used_at timestamp.
func (r *accessKeyRepository) UpdateLastUsed(ctx context.Context, accessKeyID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE access_keys SET last_used_at = NOW() WHERE access_key_id = $1`,
		accessKeyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}
	return nil
}

func scanAccessKey(row pgx.Row) (*domain.AccessKey, error) {
	var (
		key    domain.AccessKey
		status string
	)
	err := row.Scan(
		&key.ID,
		&key.ProductID,
		&key.AccessKeyID,
		&key.EncryptedSecret,
		&status,
		&key.CreatedAt,
		&key.LastUsedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccessKeyNotFound
		}
		return nil, fmt.Errorf("failed to scan access key: %w", err)
	}
	key.Status = domain.AccessKeyStatus(status)
	return &key, nil
}
