package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	db, err := NewDB(ctx, DefaultConfig(filepath.Join(t.TempDir(), "faucet.db")), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db
}

func createProduct(t *testing.T, db *DB, name string) *domain.Product {
	t.Helper()

	product := domain.NewProduct(name, domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 5})
	require.NoError(t, NewProductRepository(db).Create(context.Background(), product))
	return product
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))

	current, latest, err := db.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, current)
	require.Equal(t, latest, current)
}

func TestProductRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := createProduct(t, db, "ckbfs")
	require.NotZero(t, product.ID)

	got, err := repo.GetByName(ctx, "ckbfs")
	require.NoError(t, err)
	require.Equal(t, product.ID, got.ID)
	require.Equal(t, int64(10), got.Quota.H24Quota)
	require.Equal(t, int64(5), got.Quota.H24QuotaPerRequestType)

	_, err = repo.GetByID(ctx, product.ID+100)
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	err = repo.Create(ctx, domain.NewProduct("ckbfs", domain.QuotaConfig{}))
	require.ErrorIs(t, err, domain.ErrProductAlreadyExists)

	createProduct(t, db, "other")
	products, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestAccessKeyRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccessKeyRepository(db)
	ctx := context.Background()

	product := createProduct(t, db, "ckbfs")
	key := domain.NewAccessKey(product.ID, "TYkNNrK4wjmche2i6WBAvajZ", "encrypted")
	require.NoError(t, repo.Create(ctx, key))
	require.NotZero(t, key.ID)

	identity, err := repo.GetActiveIdentity(ctx, key.AccessKeyID)
	require.NoError(t, err)
	require.Equal(t, product.ID, identity.ProductID)
	require.Equal(t, "ckbfs", identity.ProductName)
	require.Equal(t, "encrypted", identity.EncryptedSecret)

	require.NoError(t, repo.UpdateLastUsed(ctx, key.AccessKeyID))
	stored, err := repo.GetByAccessKeyID(ctx, key.AccessKeyID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastUsedAt)

	require.NoError(t, repo.UpdateStatus(ctx, key.AccessKeyID, domain.AccessKeyStatusInactive))
	_, err = repo.GetActiveIdentity(ctx, key.AccessKeyID)
	require.ErrorIs(t, err, domain.ErrAccessKeyNotFound)

	err = repo.UpdateStatus(ctx, "unknown", domain.AccessKeyStatusActive)
	require.ErrorIs(t, err, domain.ErrAccessKeyNotFound)

	keys, err := repo.ListByProductID(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.False(t, keys[0].IsActive())

	err = repo.Create(ctx, domain.NewAccessKey(product.ID+100, "AAAAAAAAAAAAAAAAAAAAAAAA", "encrypted"))
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestClaimEventRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaimEventRepository(db)
	ctx := context.Background()

	product := createProduct(t, db, "ckbfs")
	now := time.Now().UTC()

	newEvent := func(pk160 string, requestType domain.RequestType, createdAt time.Time) *domain.ClaimEvent {
		event := domain.NewClaimEvent(product.ID, "TYkNNrK4wjmche2i6WBAvajZ")
		event.RequestUUID = "0x01"
		event.Pk160 = pk160
		event.RequestType = requestType
		event.Signature = "sig"
		event.RequestTimestamp = createdAt
		event.CreatedAt = createdAt
		require.NoError(t, repo.Create(ctx, event))
		return event
	}

	first := newEvent("0xaa", domain.RequestType0, now)
	newEvent("0xbb", domain.RequestType1, now.Add(-time.Hour))
	newEvent("0xcc", domain.RequestType0, now.Add(-25*time.Hour))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)
	require.Equal(t, "0xaa", got.Pk160)
	require.Equal(t, domain.ClaimEventStatusPending, got.Status)
	require.Equal(t, domain.DefaultCapacity, got.Capacity)
	require.Equal(t, domain.AcpTypeNew, got.AcpType)
	require.WithinDuration(t, now, got.CreatedAt, time.Microsecond)

	_, err = repo.GetByID(ctx, domain.NewClaimEvent(0, "").ID)
	require.ErrorIs(t, err, domain.ErrClaimEventNotFound)

	exists, err := repo.ExistsForProduct(ctx, product.ID, "0xaa", "0x01")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.ExistsForProduct(ctx, product.ID, "0xaa", "0x02")
	require.NoError(t, err)
	require.False(t, exists)

	since := now.Add(-24 * time.Hour)

	total, err := repo.Count(ctx, repository.ClaimCountFilter{Since: since})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	requestType := domain.RequestType0
	perType, err := repo.Count(ctx, repository.ClaimCountFilter{ProductID: product.ID, RequestType: &requestType, Since: since})
	require.NoError(t, err)
	require.Equal(t, int64(1), perType)
}
