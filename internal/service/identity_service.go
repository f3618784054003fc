package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/ckbfs-faucet/internal/auth"
	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/pkg/crypto"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

// IdentityService manages products and their access keys, and resolves
// access keys to callers during authentication.
type IdentityService struct {
	productRepo   repository.ProductRepository
	accessKeyRepo repository.AccessKeyRepository
	encryptor     *crypto.Encryptor
	cache         repository.Cache
	cacheTTL      time.Duration
	logger        zerolog.Logger
}

// IdentityServiceConfig holds optional collaborators of IdentityService.
type IdentityServiceConfig struct {
	// Cache memoizes active identities. Nil disables caching.
	Cache repository.Cache

	// CacheTTL is how long an identity stays cached. 0 disables caching.
	CacheTTL time.Duration
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(
	productRepo repository.ProductRepository,
	accessKeyRepo repository.AccessKeyRepository,
	encryptor *crypto.Encryptor,
	config IdentityServiceConfig,
	logger zerolog.Logger,
) *IdentityService {
	return &IdentityService{
		productRepo:   productRepo,
		accessKeyRepo: accessKeyRepo,
		encryptor:     encryptor,
		cache:         config.Cache,
		cacheTTL:      config.CacheTTL,
		logger:        logger.With().Str("service", "identity").Logger(),
	}
}

// =============================================================================
// Authentication
// =============================================================================

// FindActiveCaller resolves an access key ID to its product and decrypted
// secret. Unknown or inactive keys return auth.ErrCallerNotFound.
func (s *IdentityService) FindActiveCaller(ctx context.Context, accessKeyID string) (*auth.CallerIdentity, error) {
	identity, err := s.activeIdentity(ctx, accessKeyID)
	if err != nil {
		if errors.Is(err, domain.ErrAccessKeyNotFound) {
			return nil, auth.ErrCallerNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	secret, err := s.encryptor.DecryptString(identity.EncryptedSecret)
	if err != nil {
		s.logger.Error().Err(err).Str("access_key_id", accessKeyID).Msg("failed to decrypt secret key")
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return &auth.CallerIdentity{
		ProductID:   identity.ProductID,
		ProductName: identity.ProductName,
		AccessKeyID: identity.AccessKeyID,
		Secret:      secret,
		Active:      identity.Status == domain.AccessKeyStatusActive,
	}, nil
}

// UpdateLastUsed records that accessKeyID authenticated a request.
func (s *IdentityService) UpdateLastUsed(ctx context.Context, accessKeyID string) error {
	return s.accessKeyRepo.UpdateLastUsed(ctx, accessKeyID)
}

// activeIdentity reads through the cache. Cache failures fall back to the store.
func (s *IdentityService) activeIdentity(ctx context.Context, accessKeyID string) (*domain.ActiveIdentity, error) {
	key := repository.CacheKeys.Identity(accessKeyID)

	if s.cachingEnabled() {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var identity domain.ActiveIdentity
			if err := json.Unmarshal(data, &identity); err == nil {
				return &identity, nil
			}
			s.logger.Warn().Str("access_key_id", accessKeyID).Msg("dropping undecodable cached identity")
		case !errors.Is(err, repository.ErrCacheMiss):
			s.logger.Warn().Err(err).Msg("identity cache unavailable")
		}
	}

	identity, err := s.accessKeyRepo.GetActiveIdentity(ctx, accessKeyID)
	if err != nil {
		return nil, err
	}

	if s.cachingEnabled() {
		data, err := json.Marshal(identity)
		if err == nil {
			err = s.cache.Set(ctx, key, data, s.cacheTTL)
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache identity")
		}
	}

	return identity, nil
}

func (s *IdentityService) cachingEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

// =============================================================================
// Administration
// =============================================================================

// CreateProductInput contains the data needed to create a product.
type CreateProductInput struct {
	Name  string
	Quota domain.QuotaConfig
}

// CreateProduct creates a new product.
func (s *IdentityService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrProductNameEmpty
	}

	product := domain.NewProduct(name, input.Quota)
	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, domain.ErrProductAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("product", name).Msg("failed to create product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("product_id", product.ID).
		Str("product", product.Name).
		Int64("h24_quota", product.Quota.H24Quota).
		Int64("h24_quota_per_request_type", product.Quota.H24QuotaPerRequestType).
		Msg("product created")

	return product, nil
}

// ListProducts returns all products.
func (s *IdentityService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.productRepo.List(ctx)
}

// CreateAccessKeyOutput contains the result of creating an access key.
// Note: SecretKey is only available at creation time and should be shown once.
type CreateAccessKeyOutput struct {
	AccessKeyID string
	SecretKey   string
	AccessKey   *domain.AccessKey
}

// CreateAccessKey issues a new access key for the named product.
func (s *IdentityService) CreateAccessKey(ctx context.Context, productName string) (*CreateAccessKeyOutput, error) {
	product, err := s.productRepo.GetByName(ctx, productName)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	accessKeyID, secretKey, err := crypto.GenerateAccessKeyPair()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate access key pair")
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	encryptedSecret, err := s.encryptor.EncryptString(secretKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encrypt secret key")
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	accessKey := domain.NewAccessKey(product.ID, accessKeyID, encryptedSecret)
	if err := s.accessKeyRepo.Create(ctx, accessKey); err != nil {
		s.logger.Error().Err(err).Str("access_key_id", accessKeyID).Msg("failed to create access key")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("product_id", product.ID).
		Str("access_key_id", accessKeyID).
		Msg("access key created")

	return &CreateAccessKeyOutput{
		AccessKeyID: accessKeyID,
		SecretKey:   secretKey,
		AccessKey:   accessKey,
	}, nil
}

// ListAccessKeys returns the access keys of the named product.
func (s *IdentityService) ListAccessKeys(ctx context.Context, productName string) ([]*domain.AccessKey, error) {
	product, err := s.productRepo.GetByName(ctx, productName)
	if err != nil {
		return nil, err
	}
	return s.accessKeyRepo.ListByProductID(ctx, product.ID)
}

// ActivateAccessKey allows the key to authenticate again.
func (s *IdentityService) ActivateAccessKey(ctx context.Context, accessKeyID string) error {
	return s.setStatus(ctx, accessKeyID, domain.AccessKeyStatusActive)
}

// DeactivateAccessKey stops the key from authenticating. Nodes with a cached
// identity keep accepting it until the cache entry expires.
func (s *IdentityService) DeactivateAccessKey(ctx context.Context, accessKeyID string) error {
	return s.setStatus(ctx, accessKeyID, domain.AccessKeyStatusInactive)
}

func (s *IdentityService) setStatus(ctx context.Context, accessKeyID string, status domain.AccessKeyStatus) error {
	if err := s.accessKeyRepo.UpdateStatus(ctx, accessKeyID, status); err != nil {
		if errors.Is(err, domain.ErrAccessKeyNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("access_key_id", accessKeyID).Msg("failed to update access key status")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, repository.CacheKeys.Identity(accessKeyID)); err != nil {
			s.logger.Warn().Err(err).Str("access_key_id", accessKeyID).Msg("failed to invalidate cached identity")
		}
	}

	s.logger.Info().
		Str("access_key_id", accessKeyID).
		Str("status", string(status)).
		Msg("access key status updated")

	return nil
}

// Ensure IdentityService can back authentication.
var (
	_ auth.IdentityResolver = (*IdentityService)(nil)
	_ auth.LastUsedRecorder = (*IdentityService)(nil)
)
