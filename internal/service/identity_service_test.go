package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/ckbfs-faucet/internal/auth"
	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/pkg/crypto"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

type identityFixture struct {
	service    *IdentityService
	products   *MockProductRepository
	accessKeys *MockAccessKeyRepository
	cache      *MockCache
}

func newIdentityFixture(t *testing.T, cacheTTL time.Duration) *identityFixture {
	t.Helper()

	encryptor, err := crypto.NewEncryptorFromConfig("test-passphrase")
	require.NoError(t, err)

	products := NewMockProductRepository()
	accessKeys := NewMockAccessKeyRepository(products)
	cache := NewMockCache()

	svc := NewIdentityService(products, accessKeys, encryptor, IdentityServiceConfig{
		Cache:    cache,
		CacheTTL: cacheTTL,
	}, zerolog.Nop())

	return &identityFixture{service: svc, products: products, accessKeys: accessKeys, cache: cache}
}

func (f *identityFixture) issueKey(t *testing.T) *CreateAccessKeyOutput {
	t.Helper()

	ctx := context.Background()
	_, err := f.service.CreateProduct(ctx, CreateProductInput{
		Name:  "ckbfs",
		Quota: domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 5},
	})
	require.NoError(t, err)

	out, err := f.service.CreateAccessKey(ctx, "ckbfs")
	require.NoError(t, err)
	return out
}

func TestIdentityService_CreateProduct(t *testing.T) {
	f := newIdentityFixture(t, 0)
	ctx := context.Background()

	product, err := f.service.CreateProduct(ctx, CreateProductInput{Name: "  ckbfs  "})
	require.NoError(t, err)
	require.Equal(t, "ckbfs", product.Name)

	_, err = f.service.CreateProduct(ctx, CreateProductInput{Name: "ckbfs"})
	require.ErrorIs(t, err, domain.ErrProductAlreadyExists)

	_, err = f.service.CreateProduct(ctx, CreateProductInput{Name: " "})
	require.ErrorIs(t, err, domain.ErrProductNameEmpty)

	products, err := f.service.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
}

func TestIdentityService_CreateAccessKey(t *testing.T) {
	f := newIdentityFixture(t, 0)
	out := f.issueKey(t)

	require.Len(t, out.AccessKeyID, crypto.AccessKeyIDLength)
	require.Len(t, out.SecretKey, crypto.SecretKeyLength)
	require.NotContains(t, out.AccessKey.EncryptedSecret, out.SecretKey)

	_, err := f.service.CreateAccessKey(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	keys, err := f.service.ListAccessKeys(context.Background(), "ckbfs")
	require.NoError(t, err)
	require.Len(t, keys, 1)
}

func TestIdentityService_FindActiveCaller(t *testing.T) {
	f := newIdentityFixture(t, 0)
	out := f.issueKey(t)
	ctx := context.Background()

	caller, err := f.service.FindActiveCaller(ctx, out.AccessKeyID)
	require.NoError(t, err)
	require.Equal(t, out.SecretKey, caller.Secret)
	require.Equal(t, "ckbfs", caller.ProductName)
	require.True(t, caller.Active)

	_, err = f.service.FindActiveCaller(ctx, "AAAAAAAAAAAAAAAAAAAAAAAA")
	require.ErrorIs(t, err, auth.ErrCallerNotFound)

	require.NoError(t, f.service.DeactivateAccessKey(ctx, out.AccessKeyID))
	_, err = f.service.FindActiveCaller(ctx, out.AccessKeyID)
	require.ErrorIs(t, err, auth.ErrCallerNotFound)

	require.NoError(t, f.service.ActivateAccessKey(ctx, out.AccessKeyID))
	_, err = f.service.FindActiveCaller(ctx, out.AccessKeyID)
	require.NoError(t, err)

	require.ErrorIs(t, f.service.ActivateAccessKey(ctx, "unknown"), domain.ErrAccessKeyNotFound)
}

func TestIdentityService_FindActiveCaller_StoreFailure(t *testing.T) {
	f := newIdentityFixture(t, 0)
	out := f.issueKey(t)
	f.accessKeys.identityErr = errStoreDown

	_, err := f.service.FindActiveCaller(context.Background(), out.AccessKeyID)
	require.ErrorIs(t, err, ErrInternalError)
	require.NotErrorIs(t, err, auth.ErrCallerNotFound)
}

func TestIdentityService_Cache(t *testing.T) {
	f := newIdentityFixture(t, time.Minute)
	out := f.issueKey(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.FindActiveCaller(ctx, out.AccessKeyID)
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.accessKeys.lookups)

	cached, err := f.cache.Get(ctx, repository.CacheKeys.Identity(out.AccessKeyID))
	require.NoError(t, err)
	require.NotContains(t, string(cached), out.SecretKey)

	require.NoError(t, f.service.DeactivateAccessKey(ctx, out.AccessKeyID))
	_, err = f.cache.Get(ctx, repository.CacheKeys.Identity(out.AccessKeyID))
	require.ErrorIs(t, err, repository.ErrCacheMiss)

	_, err = f.service.FindActiveCaller(ctx, out.AccessKeyID)
	require.ErrorIs(t, err, auth.ErrCallerNotFound)
}

func TestIdentityService_CacheUnavailable(t *testing.T) {
	f := newIdentityFixture(t, time.Minute)
	out := f.issueKey(t)
	f.cache.err = repository.ErrCacheUnavailable

	caller, err := f.service.FindActiveCaller(context.Background(), out.AccessKeyID)
	require.NoError(t, err)
	require.Equal(t, out.SecretKey, caller.Secret)
}

func TestIdentityService_UpdateLastUsed(t *testing.T) {
	f := newIdentityFixture(t, 0)
	out := f.issueKey(t)
	ctx := context.Background()

	require.NoError(t, f.service.UpdateLastUsed(ctx, out.AccessKeyID))

	key, err := f.accessKeys.GetByAccessKeyID(ctx, out.AccessKeyID)
	require.NoError(t, err)
	require.NotNil(t, key.LastUsedAt)
}
