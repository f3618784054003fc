package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/lock"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

var (
	testRequestUUID = "0x" + strings.Repeat("ab", 32)
	testPk160       = "0x" + strings.Repeat("cd", 20)
)

func intPtr(v int) *int { return &v }

func validAttributes() ClaimAttributes {
	return ClaimAttributes{
		RequestUUID: testRequestUUID,
		Pk160:       testPk160,
		RequestType: intPtr(0),
	}
}

type claimFixture struct {
	service  *ClaimService
	products *MockProductRepository
	claims   *MockClaimEventRepository
	product  *domain.Product
	now      time.Time
}

func newClaimFixture(t *testing.T, quota domain.QuotaConfig, total int64, locker lock.Locker) *claimFixture {
	t.Helper()

	products := NewMockProductRepository()
	product := domain.NewProduct("ckbfs", quota)
	require.NoError(t, products.Create(context.Background(), product))

	claims := NewMockClaimEventRepository()
	svc := NewClaimService(products, claims, locker, ClaimServiceConfig{
		H24TotalQuota: total,
		LockTTL:       time.Second,
		LockWait:      100 * time.Millisecond,
	}, zerolog.Nop())

	f := &claimFixture{
		service:  svc,
		products: products,
		claims:   claims,
		product:  product,
		now:      time.Date(2020, 6, 11, 13, 5, 13, 0, time.UTC),
	}
	svc.now = func() time.Time { return f.now }
	return f
}

func (f *claimFixture) input(attrs ClaimAttributes) CreateClaimInput {
	return CreateClaimInput{
		Attributes:       attrs,
		ProductID:        f.product.ID,
		AccessKeyID:      "TYkNNrK4wjmche2i6WBAvajZ",
		Signature:        "daf5186a6453d9af3fc88786fb5ad084ea45c3b10a305db229239b26e51b5507",
		RequestTimestamp: f.now,
	}
}

func withPk160(attrs ClaimAttributes, i int) ClaimAttributes {
	attrs.Pk160 = "0x" + strings.Repeat("0", 38) + string("0123456789abcdef"[i/16]) + string("0123456789abcdef"[i%16])
	return attrs
}

func TestClaimService_Validate(t *testing.T) {
	svc := NewClaimService(nil, nil, lock.NewNoOpLocker(), ClaimServiceConfig{}, zerolog.Nop())

	tests := []struct {
		name    string
		mutate  func(a *ClaimAttributes)
		wantErr error
	}{
		{name: "valid", mutate: func(a *ClaimAttributes) {}},
		{name: "valid with new acp", mutate: func(a *ClaimAttributes) { a.AcpType = intPtr(1) }},
		{name: "uuid missing prefix", mutate: func(a *ClaimAttributes) { a.RequestUUID = strings.Repeat("ab", 33) }, wantErr: ErrRequestUUIDInvalid},
		{name: "uuid short", mutate: func(a *ClaimAttributes) { a.RequestUUID = "0xab" }, wantErr: ErrRequestUUIDInvalid},
		{name: "uuid not hex", mutate: func(a *ClaimAttributes) { a.RequestUUID = "0x" + strings.Repeat("zz", 32) }, wantErr: ErrRequestUUIDInvalid},
		{name: "pk160 empty", mutate: func(a *ClaimAttributes) { a.Pk160 = "" }, wantErr: ErrPk160Invalid},
		{name: "pk160 long", mutate: func(a *ClaimAttributes) { a.Pk160 += "00" }, wantErr: ErrPk160Invalid},
		{name: "request type missing", mutate: func(a *ClaimAttributes) { a.RequestType = nil }, wantErr: ErrRequestTypeInvalid},
		{name: "request type out of range", mutate: func(a *ClaimAttributes) { a.RequestType = intPtr(2) }, wantErr: ErrRequestTypeInvalid},
		{name: "acp type out of range", mutate: func(a *ClaimAttributes) { a.AcpType = intPtr(7) }, wantErr: ErrAcpTypeInvalid},
		{name: "old acp type", mutate: func(a *ClaimAttributes) { a.AcpType = intPtr(0) }, wantErr: ErrAcpTypeInvalid},
		{
			name: "first invalid attribute wins",
			mutate: func(a *ClaimAttributes) {
				a.Pk160 = "x"
				a.RequestType = intPtr(9)
			},
			wantErr: ErrPk160Invalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := validAttributes()
			tt.mutate(&attrs)

			err := svc.Validate(attrs)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClaimService_Create(t *testing.T) {
	f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 10}, 100, lock.NewMemoryLocker())

	attrs := validAttributes()
	attrs.AcpType = intPtr(1)

	event, err := f.service.Create(context.Background(), f.input(attrs))
	require.NoError(t, err)
	require.Equal(t, f.product.ID, event.ProductID)
	require.Equal(t, testPk160, event.Pk160)
	require.Equal(t, domain.RequestType0, event.RequestType)
	require.Equal(t, domain.AcpTypeNew, event.AcpType)
	require.Equal(t, domain.ClaimEventStatusPending, event.Status)
	require.Equal(t, "TYkNNrK4wjmche2i6WBAvajZ", event.AccessKeyID)
	require.True(t, event.RequestTimestamp.Equal(f.now))
	require.Equal(t, 1, f.claims.Len())

	got, err := f.service.Get(context.Background(), f.product.ID, event.ID.String())
	require.NoError(t, err)
	require.Equal(t, event.ID, got.ID)
}

func TestClaimService_Create_Duplicate(t *testing.T) {
	f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 10}, 100, lock.NewMemoryLocker())
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.input(validAttributes()))
	require.NoError(t, err)

	_, err = f.service.Create(ctx, f.input(validAttributes()))
	require.ErrorIs(t, err, domain.ErrDuplicateClaim)

	f.claims.events[0].Status = domain.ClaimEventStatusFailed
	_, err = f.service.Create(ctx, f.input(validAttributes()))
	require.NoError(t, err)
}

func TestClaimService_Create_Quotas(t *testing.T) {
	ctx := context.Background()

	t.Run("per product", func(t *testing.T) {
		f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 2, H24QuotaPerRequestType: 10}, 100, lock.NewMemoryLocker())

		for i := 0; i < 2; i++ {
			_, err := f.service.Create(ctx, f.input(withPk160(validAttributes(), i)))
			require.NoError(t, err)
		}
		_, err := f.service.Create(ctx, f.input(withPk160(validAttributes(), 2)))
		require.ErrorIs(t, err, domain.ErrQuotaPerProduct)
	})

	t.Run("per request type", func(t *testing.T) {
		f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 1}, 100, lock.NewMemoryLocker())

		_, err := f.service.Create(ctx, f.input(withPk160(validAttributes(), 0)))
		require.NoError(t, err)

		_, err = f.service.Create(ctx, f.input(withPk160(validAttributes(), 1)))
		require.ErrorIs(t, err, domain.ErrQuotaPerRequestType)

		other := withPk160(validAttributes(), 2)
		other.RequestType = intPtr(1)
		_, err = f.service.Create(ctx, f.input(other))
		require.NoError(t, err)
	})

	t.Run("total", func(t *testing.T) {
		f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 10}, 1, lock.NewMemoryLocker())

		_, err := f.service.Create(ctx, f.input(withPk160(validAttributes(), 0)))
		require.NoError(t, err)

		_, err = f.service.Create(ctx, f.input(withPk160(validAttributes(), 1)))
		require.ErrorIs(t, err, domain.ErrQuotaTotal)
	})

	t.Run("window rolls", func(t *testing.T) {
		f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 1, H24QuotaPerRequestType: 1}, 100, lock.NewMemoryLocker())

		_, err := f.service.Create(ctx, f.input(withPk160(validAttributes(), 0)))
		require.NoError(t, err)

		f.now = f.now.Add(24*time.Hour + time.Second)
		_, err = f.service.Create(ctx, f.input(withPk160(validAttributes(), 1)))
		require.NoError(t, err)
	})
}

func TestClaimService_Create_ConcurrentRespectsQuota(t *testing.T) {
	f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 3, H24QuotaPerRequestType: 3}, 100, lock.NewMemoryLocker())
	f.service.config.LockWait = 5 * time.Second

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = f.service.Create(context.Background(), f.input(withPk160(validAttributes(), i)))
		}(i)
	}
	wg.Wait()

	require.Equal(t, 3, f.claims.Len())
}

func TestClaimService_Create_LockBusy(t *testing.T) {
	locker := lock.NewMemoryLocker()
	f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 10}, 100, locker)

	acquired, err := locker.Acquire(context.Background(), lock.Keys.ClaimQuota(), time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = f.service.Create(context.Background(), f.input(validAttributes()))
	require.ErrorIs(t, err, ErrQuotaBusy)
	require.Equal(t, 0, f.claims.Len())
}

func TestClaimService_Create_InvalidSkipsStore(t *testing.T) {
	f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 10}, 100, lock.NewMemoryLocker())
	f.claims.countErr = errStoreDown

	attrs := validAttributes()
	attrs.RequestUUID = "0x1"

	_, err := f.service.Create(context.Background(), f.input(attrs))
	require.ErrorIs(t, err, ErrRequestUUIDInvalid)
}

func TestClaimService_Create_StoreFailure(t *testing.T) {
	f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 10}, 100, lock.NewMemoryLocker())
	f.claims.countErr = errStoreDown

	_, err := f.service.Create(context.Background(), f.input(validAttributes()))
	require.ErrorIs(t, err, ErrInternalError)
}

func TestClaimService_Get(t *testing.T) {
	f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 10}, 100, lock.NewNoOpLocker())
	ctx := context.Background()

	event, err := f.service.Create(ctx, f.input(validAttributes()))
	require.NoError(t, err)

	_, err = f.service.Get(ctx, f.product.ID+1, event.ID.String())
	require.ErrorIs(t, err, domain.ErrClaimEventNotFound)

	_, err = f.service.Get(ctx, f.product.ID, "not-a-uuid")
	require.ErrorIs(t, err, domain.ErrClaimEventNotFound)

	_, err = f.service.Get(ctx, f.product.ID, domain.NewClaimEvent(0, "").ID.String())
	require.ErrorIs(t, err, domain.ErrClaimEventNotFound)
}

func TestClaimService_Health(t *testing.T) {
	f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 1, H24QuotaPerRequestType: 1}, 2, lock.NewMemoryLocker())
	ctx := context.Background()

	report, err := f.service.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, report.TotalClaimState.State)
	require.Equal(t, 0, report.ClaimPerProductState.State)
	require.Empty(t, report.ClaimPerProductState.Message)

	_, err = f.service.Create(ctx, f.input(validAttributes()))
	require.NoError(t, err)

	report, err = f.service.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, report.TotalClaimState.State)
	require.Equal(t, 1, report.ClaimPerProductState.State)
	require.Contains(t, report.ClaimPerProductState.Message, "ckbfs")

	other := domain.NewProduct("other", domain.QuotaConfig{H24Quota: 5, H24QuotaPerRequestType: 5})
	require.NoError(t, f.products.Create(ctx, other))
	input := f.input(withPk160(validAttributes(), 1))
	input.ProductID = other.ID
	_, err = f.service.Create(ctx, input)
	require.NoError(t, err)

	report, err = f.service.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalClaimState.State)
	require.NotContains(t, report.ClaimPerProductState.Message, "other")
}

func TestClaimService_ProductCache(t *testing.T) {
	ctx := context.Background()

	t.Run("serves cached product", func(t *testing.T) {
		f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 10}, 100, lock.NewMemoryLocker())
		cache := NewMockCache()
		f.service.config.ProductCache = cache
		f.service.config.ProductCacheTTL = time.Minute

		_, err := f.service.Create(ctx, f.input(withPk160(validAttributes(), 1)))
		require.NoError(t, err)
		require.Contains(t, cache.items, repository.CacheKeys.Product(f.product.ID))

		f.products.getErr = errStoreDown
		_, err = f.service.Create(ctx, f.input(withPk160(validAttributes(), 2)))
		require.NoError(t, err)
		require.Equal(t, 2, f.claims.Len())
	})

	t.Run("falls back to store when cache is down", func(t *testing.T) {
		f := newClaimFixture(t, domain.QuotaConfig{H24Quota: 10, H24QuotaPerRequestType: 10}, 100, lock.NewMemoryLocker())
		cache := NewMockCache()
		cache.err = errStoreDown
		f.service.config.ProductCache = cache
		f.service.config.ProductCacheTTL = time.Minute

		_, err := f.service.Create(ctx, f.input(validAttributes()))
		require.NoError(t, err)
	})
}
