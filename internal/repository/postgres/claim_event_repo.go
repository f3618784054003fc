package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

// claimEventRepository implements repository.ClaimEventRepository for PostgreSQL.
type claimEventRepository struct {
	db *DB
}

// NewClaimEventRepository creates a new PostgreSQL claim event repository.
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		event.ID,
		event.ProductID,
		event.AccessKeyID,
		event.RequestUUID,
		event.Pk160,
		int16(event.RequestType),
		int16(event.AcpType),
		event.Capacity,
		string(event.Status),
		event.TxHash,
		event.Signature,
		event.RequestTimestamp,
		event.CreatedAt,
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
		       capacity, status, COALESCE(tx_hash, ''), signature, request_timestamp, created_at
		FROM claim_events
		WHERE id = $1
	`

	var (
		event                domain.ClaimEvent
		requestType, acpType int16
		status               string
	)
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.ProductID,
		&event.AccessKeyID,
		&event.RequestUUID,
		&event.Pk160,
		&requestType,
		&acpType,
		&event.Capacity,
		&status,
		&event.TxHash,
		&event.Signature,
		&event.RequestTimestamp,
		&event.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrClaimEventNotFound
		}
		return nil, fmt.Errorf("failed to get claim event: %w", err)
	}

	event.RequestType = domain.RequestType(requestType)
	event.AcpType = domain.AcpType(acpType)
	event.Status = domain.ClaimEventStatus(status)

	return &event, nil
}

// ExistsForProduct reports whether the product has a claim for pk160 and
// requestUUID that has not failed.
func (r *claimEventRepository) ExistsForProduct(ctx context.Context, productID int64, pk160, requestUUID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM claim_events
			WHERE product_id = $1 AND pk160 = $2 AND request_uuid = $3 AND status <> $4
		)
	`

	var exists bool
	err := r.db.Pool.QueryRow(ctx, query, productID, pk160, requestUUID, string(domain.ClaimEventStatusFailed)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check claim event: %w", err)
	}
	return exists, nil
}

// Count returns the number of claim events matching filter.
func (r *claimEventRepository) Count(ctx context.Context, filter repository.ClaimCountFilter) (int64, error) {
	conditions := []string{"created_at >= $1"}
	args := []any{filter.Since}

	if filter.ProductID != 0 {
		args = append(args, filter.ProductID)
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if filter.RequestType != nil {
		args = append(args, int16(*filter.RequestType))
		conditions = append(conditions, fmt.Sprintf("request_type = $%d", len(args)))
	}

	query := "SELECT COUNT(*) FROM claim_events WHERE " + strings.Join(conditions, " AND ")

	var count int64
	if err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count claim events: %w", err)
	}
	return count, nil
}
