package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

// claimEventRepository implements repository.ClaimEventRepository for SQLite.
type claimEventRepository struct {
	db *DB
}

// NewClaimEventRepository creates a new SQLite claim event repository.
func NewClaimEventRepository(db *DB) repository.ClaimEventRepository {
	return &claimEventRepository{db: db}
}

// Create stores a new claim event.
func (r *claimEventRepository) Create(ctx context.Context, event *domain.ClaimEvent) error {
	query := `
		INSERT INTO claim_events (
			id, product_id, access_key_id, request_uuid, pk160, request_type, acp_type,
			capacity, status, tx_hash, signature, request_timestamp, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var txHash sql.NullString
	if event.TxHash != "" {
		txHash = sql.NullString{String: event.TxHash, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		event.ID.String(),
		event.ProductID,
		event.AccessKeyID,
		event.RequestUUID,
		event.Pk160,
		event.RequestType,
		event.AcpType,
		event.Capacity,
		event.Status,
		txHash,
		event.Signature,
		formatTime(event.RequestTimestamp),
		formatTime(event.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("failed to create claim event: %w", err)
	}

	return nil
}

// GetByID retrieves a claim event by ID.
func (r *claimEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClaimEvent, error) {
	query := `
		SELECT id, product_id, access_key_id, request_uuid, pk160, request_type, acp_type,
		       capacity, status, tx_hash, signature, request_timestamp, created_at
		FROM claim_events
		WHERE id = ?
	`

	var (
		event                       domain.ClaimEvent
		rawID                       string
		txHash                      sql.NullString
		requestTimestamp, createdAt string
	)

	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(
		&rawID,
		&event.ProductID,
		&event.AccessKeyID,
		&event.RequestUUID,
		&event.Pk160,
		&event.RequestType,
		&event.AcpType,
		&event.Capacity,
		&event.Status,
		&txHash,
		&event.Signature,
		&requestTimestamp,
		&createdAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrClaimEventNotFound
		}
		return nil, fmt.Errorf("failed to get claim event: %w", err)
	}

	if event.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("failed to parse claim event id: %w", err)
	}
	event.TxHash = txHash.String
	if event.RequestTimestamp, err = parseTime(requestTimestamp); err != nil {
		return nil, fmt.Errorf("failed to parse request_timestamp: %w", err)
	}
	if event.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &event, nil
}

// ExistsForProduct reports whether the product has a claim for pk160 and
// requestUUID that has not failed.
func (r *claimEventRepository) ExistsForProduct(ctx context.Context, productID int64, pk160, requestUUID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM claim_events
			WHERE product_id = ? AND pk160 = ? AND request_uuid = ? AND status <> ?
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, productID, pk160, requestUUID, domain.ClaimEventStatusFailed).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check claim event: %w", err)
	}
	return exists, nil
}

// Count returns the number of claim events matching filter.
func (r *claimEventRepository) Count(ctx context.Context, filter repository.ClaimCountFilter) (int64, error) {
	conditions := []string{"created_at >= ?"}
	args := []any{formatTime(filter.Since)}

	if filter.ProductID != 0 {
		conditions = append(conditions, "product_id = ?")
		args = append(args, filter.ProductID)
	}
	if filter.RequestType != nil {
		conditions = append(conditions, "request_type = ?")
		args = append(args, int(*filter.RequestType))
	}

	query := "SELECT COUNT(*) FROM claim_events WHERE " + strings.Join(conditions, " AND ")

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count claim events: %w", err)
	}
	return count, nil
}
