package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

// accessKeyRepository implements repository.AccessKeyRepository for SQLite.
type accessKeyRepository struct {
	db *DB
}

// NewAccessKeyRepository creates a new SQLite access key repository.
func NewAccessKeyRepository(db *DB) repository.AccessKeyRepository {
	return &accessKeyRepository{db: db}
}

// Create creates a new access key.
func (r *accessKeyRepository) Create(ctx context.Context, key *domain.AccessKey) error {
	query := `
		INSERT INTO access_keys (product_id, access_key_id, encrypted_secret, status, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var lastUsedAt sql.NullString
	if key.LastUsedAt != nil {
		lastUsedAt = sql.NullString{String: formatTime(*key.LastUsedAt), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		key.ProductID,
		key.AccessKeyID,
		key.EncryptedSecret,
		key.Status,
		formatTime(key.CreatedAt),
		lastUsedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDomainError(domain.ErrInvalidAccessKeyID, "access key ID already exists", key.AccessKeyID)
		}
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("failed to create access key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	key.ID = id

	return nil
}

// GetByAccessKeyID retrieves an access key by its 24 character identifier.
func (r *accessKeyRepository) GetByAccessKeyID(ctx context.Context, accessKeyID string) (*domain.AccessKey, error) {
	query := `
		SELECT id, product_id, access_key_id, encrypted_secret, status, created_at, last_used_at
		FROM access_keys
		WHERE access_key_id = ?
	`
	return scanAccessKey(r.db.QueryRowContext(ctx, query, accessKeyID))
}

// GetActiveIdentity joins an active access key with its product.
func (r *accessKeyRepository) GetActiveIdentity(ctx context.Context, accessKeyID string) (*domain.ActiveIdentity, error) {
	query := `
		SELECT p.id, p.name, ak.access_key_id, ak.encrypted_secret, ak.status
		FROM access_keys ak
		JOIN products p ON p.id = ak.product_id
		WHERE ak.access_key_id = ? AND ak.status = ?
	`

	var identity domain.ActiveIdentity
	err := r.db.QueryRowContext(ctx, query, accessKeyID, domain.AccessKeyStatusActive).Scan(
		&identity.ProductID,
		&identity.ProductName,
		&identity.AccessKeyID,
		&identity.EncryptedSecret,
		&identity.Status,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccessKeyNotFound
		}
		return nil, fmt.Errorf("failed to get active identity: %w", err)
	}

	return &identity, nil
}

// ListByProductID returns all access keys for a product.
func (r *accessKeyRepository) ListByProductID(ctx context.Context, productID int64) ([]*domain.AccessKey, error) {
	query := `
		SELECT id, product_id, access_key_id, encrypted_secret, status, created_at, last_used_at
		FROM access_keys
		WHERE product_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
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
	result, err := r.db.ExecContext(ctx,
		`UPDATE access_keys SET status = ? WHERE access_key_id = ?`,
		status, accessKeyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update access key status: %w", err)
	}

	return requireAffected(result, domain.ErrAccessKeyNotFound)
}

// UpdateLastUsed updates the last_used_at timestamp.
func (r *accessKeyRepository) UpdateLastUsed(ctx context.Context, accessKeyID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE access_keys SET last_used_at = ? WHERE access_key_id = ?`,
		formatTime(time.Now()), accessKeyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}
	return nil
}

func scanAccessKey(row rowScanner) (*domain.AccessKey, error) {
	var (
		key        domain.AccessKey
		createdAt  string
		lastUsedAt sql.NullString
	)

	err := row.Scan(
		&key.ID,
		&key.ProductID,
		&key.AccessKeyID,
		&key.EncryptedSecret,
		&key.Status,
		&createdAt,
		&lastUsedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccessKeyNotFound
		}
		return nil, fmt.Errorf("failed to scan access key: %w", err)
	}

	if key.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if lastUsedAt.Valid {
		t, err := parseTime(lastUsedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_used_at: %w", err)
		}
		key.LastUsedAt = &t
	}

	return &key, nil
}

// requireAffected returns notFound when result touched no rows.
func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
