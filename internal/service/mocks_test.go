package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

// MockProductRepository is an in-memory repository.ProductRepository.
type MockProductRepository struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	nextID   int64
	getErr   error
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[int64]*domain.Product),
		nextID:   1,
	}
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.products {
		if p.Name == product.Name {
			return domain.ErrProductAlreadyExists
		}
	}
	product.ID = m.nextID
	m.nextID++
	m.products[product.ID] = product
	return nil
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockProductRepository) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, p := range m.products {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*domain.Product
	for id := int64(1); id < m.nextID; id++ {
		if p, ok := m.products[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

// MockAccessKeyRepository is an in-memory repository.AccessKeyRepository.
type MockAccessKeyRepository struct {
	mu          sync.Mutex
	keys        map[string]*domain.AccessKey
	products    *MockProductRepository
	nextID      int64
	identityErr error
	lookups     int
}

func NewMockAccessKeyRepository(products *MockProductRepository) *MockAccessKeyRepository {
	return &MockAccessKeyRepository{
		keys:     make(map[string]*domain.AccessKey),
		products: products,
		nextID:   1,
	}
}

func (m *MockAccessKeyRepository) Create(ctx context.Context, key *domain.AccessKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key.ID = m.nextID
	m.nextID++
	m.keys[key.AccessKeyID] = key
	return nil
}

func (m *MockAccessKeyRepository) GetByAccessKeyID(ctx context.Context, accessKeyID string) (*domain.AccessKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key, ok := m.keys[accessKeyID]; ok {
		return key, nil
	}
	return nil, domain.ErrAccessKeyNotFound
}

func (m *MockAccessKeyRepository) GetActiveIdentity(ctx context.Context, accessKeyID string) (*domain.ActiveIdentity, error) {
	m.mu.Lock()
	m.lookups++
	key, ok := m.keys[accessKeyID]
	identityErr := m.identityErr
	m.mu.Unlock()

	if identityErr != nil {
		return nil, identityErr
	}
	if !ok || !key.IsActive() {
		return nil, domain.ErrAccessKeyNotFound
	}

	product, err := m.products.GetByID(ctx, key.ProductID)
	if err != nil {
		return nil, err
	}

	return &domain.ActiveIdentity{
		ProductID:       product.ID,
		ProductName:     product.Name,
		AccessKeyID:     key.AccessKeyID,
		EncryptedSecret: key.EncryptedSecret,
		Status:          key.Status,
	}, nil
}

func (m *MockAccessKeyRepository) ListByProductID(ctx context.Context, productID int64) ([]*domain.AccessKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*domain.AccessKey
	for _, key := range m.keys {
		if key.ProductID == productID {
			result = append(result, key)
		}
	}
	return result, nil
}

func (m *MockAccessKeyRepository) UpdateStatus(ctx context.Context, accessKeyID string, status domain.AccessKeyStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, ok := m.keys[accessKeyID]
	if !ok {
		return domain.ErrAccessKeyNotFound
	}
	key.Status = status
	return nil
}

func (m *MockAccessKeyRepository) UpdateLastUsed(ctx context.Context, accessKeyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, ok := m.keys[accessKeyID]
	if !ok {
		return domain.ErrAccessKeyNotFound
	}
	now := time.Now()
	key.LastUsedAt = &now
	return nil
}

// MockClaimEventRepository is an in-memory repository.ClaimEventRepository.
type MockClaimEventRepository struct {
	mu       sync.Mutex
	events   []*domain.ClaimEvent
	countErr error
}

func NewMockClaimEventRepository() *MockClaimEventRepository {
	return &MockClaimEventRepository{}
}

func (m *MockClaimEventRepository) Create(ctx context.Context, event *domain.ClaimEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)
	return nil
}

func (m *MockClaimEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClaimEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, domain.ErrClaimEventNotFound
}

func (m *MockClaimEventRepository) ExistsForProduct(ctx context.Context, productID int64, pk160, requestUUID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.events {
		if e.ProductID == productID && e.Pk160 == pk160 && e.RequestUUID == requestUUID &&
			e.Status != domain.ClaimEventStatusFailed {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockClaimEventRepository) Count(ctx context.Context, filter repository.ClaimCountFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countErr != nil {
		return 0, m.countErr
	}

	var count int64
	for _, e := range m.events {
		if e.CreatedAt.Before(filter.Since) {
			continue
		}
		if filter.ProductID != 0 && e.ProductID != filter.ProductID {
			continue
		}
		if filter.RequestType != nil && e.RequestType != *filter.RequestType {
			continue
		}
		count++
	}
	return count, nil
}

func (m *MockClaimEventRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// MockCache is an in-memory repository.Cache that can be made unavailable.
type MockCache struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.items[key]; ok {
		return v, nil
	}
	return nil, repository.ErrCacheMiss
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.items[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	delete(m.items, key)
	return nil
}

var errStoreDown = errors.New("store unavailable")
