package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/lock"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

const (
	// quotaWindow is the rolling window all claim quotas are counted over.
	quotaWindow = 24 * time.Hour

	// lockRetryDelay is the pause between quota lock attempts.
	lockRetryDelay = 50 * time.Millisecond
)

// ClaimServiceConfig holds claim quota settings.
type ClaimServiceConfig struct {
	// H24TotalQuota caps claims across all products in the quota window.
	H24TotalQuota int64

	// LockTTL bounds how long the quota lock can be held.
	LockTTL time.Duration

	// LockWait is how long Create waits for the quota lock.
	LockWait time.Duration

	// ProductCache memoizes products by ID. Products never change after
	// creation, so entries cannot go stale. Nil disables caching.
	ProductCache repository.Cache

	// ProductCacheTTL is how long a product stays cached. 0 disables caching.
	ProductCacheTTL time.Duration
}

// ClaimService records faucet claims for authenticated products.
type ClaimService struct {
	productRepo repository.ProductRepository
	claimRepo   repository.ClaimEventRepository
	locker      lock.Locker
	validate    *validator.Validate
	config      ClaimServiceConfig
	now         func() time.Time
	logger      zerolog.Logger
}

// NewClaimService creates a new ClaimService.
func NewClaimService(
	productRepo repository.ProductRepository,
	claimRepo repository.ClaimEventRepository,
	locker lock.Locker,
	config ClaimServiceConfig,
	logger zerolog.Logger,
) *ClaimService {
	return &ClaimService{
		productRepo: productRepo,
		claimRepo:   claimRepo,
		locker:      locker,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		config:      config,
		now:         time.Now,
		logger:      logger.With().Str("service", "claim").Logger(),
	}
}

// ClaimAttributes are the client supplied attributes of a claim event.
type ClaimAttributes struct {
	RequestUUID string `validate:"required,len=66,startswith=0x,hexadecimal"`
	Pk160       string `validate:"required,len=42,startswith=0x,hexadecimal"`
	RequestType *int   `validate:"required,oneof=0 1"`
	AcpType     *int   `validate:"omitempty,oneof=0 1"`
}

// attributeErrors maps ClaimAttributes fields to their errors.
var attributeErrors = map[string]error{
	"RequestUUID": ErrRequestUUIDInvalid,
	"Pk160":       ErrPk160Invalid,
	"RequestType": ErrRequestTypeInvalid,
	"AcpType":     ErrAcpTypeInvalid,
}

// CreateClaimInput contains the data needed to record a claim.
type CreateClaimInput struct {
	Attributes ClaimAttributes

	// Provenance of the authenticated request.
	ProductID        int64
	AccessKeyID      string
	Signature        string
	RequestTimestamp time.Time
}

// Validate checks the attributes of a claim. It returns the error of the
// first invalid attribute in declaration order.
func (s *ClaimService) Validate(attrs ClaimAttributes) error {
	if err := s.validate.Struct(attrs); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			if mapped, ok := attributeErrors[validationErrs[0].StructField()]; ok {
				return mapped
			}
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if attrs.AcpType != nil && domain.AcpType(*attrs.AcpType) == domain.AcpTypeOld {
		return ErrAcpTypeInvalid
	}

	return nil
}

// Create validates and stores a claim while holding the quota lock, so the
// quota counts and the insert are not interleaved with other claims.
func (s *ClaimService) Create(ctx context.Context, input CreateClaimInput) (*domain.ClaimEvent, error) {
	if err := s.Validate(input.Attributes); err != nil {
		return nil, err
	}

	product, err := s.product(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	key := lock.Keys.ClaimQuota()
	retries := int(s.config.LockWait / lockRetryDelay)
	acquired, err := s.locker.AcquireWithRetry(ctx, key, s.config.LockTTL, retries, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !acquired {
		s.logger.Warn().Int64("product_id", product.ID).Msg("claim quota lock busy")
		return nil, ErrQuotaBusy
	}
	defer func() {
		if _, err := s.locker.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Error().Err(err).Msg("failed to release claim quota lock")
		}
	}()

	event := domain.NewClaimEvent(product.ID, input.AccessKeyID)
	event.RequestUUID = input.Attributes.RequestUUID
	event.Pk160 = input.Attributes.Pk160
	event.RequestType = domain.RequestType(*input.Attributes.RequestType)
	if input.Attributes.AcpType != nil {
		event.AcpType = domain.AcpType(*input.Attributes.AcpType)
	}
	event.Signature = input.Signature
	event.RequestTimestamp = input.RequestTimestamp
	event.CreatedAt = s.now().UTC()

	if err := s.checkQuota(ctx, product, event); err != nil {
		return nil, err
	}

	if err := s.claimRepo.Create(ctx, event); err != nil {
		s.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to store claim event")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("claim_event_id", event.ID.String()).
		Int64("product_id", product.ID).
		Str("access_key_id", event.AccessKeyID).
		Int("request_type", int(event.RequestType)).
		Msg("claim event created")

	return event, nil
}

// product reads through the product cache. Cache failures fall back to the store.
func (s *ClaimService) product(ctx context.Context, id int64) (*domain.Product, error) {
	cache := s.config.ProductCache
	if cache == nil || s.config.ProductCacheTTL <= 0 {
		return s.productRepo.GetByID(ctx, id)
	}

	key := repository.CacheKeys.Product(id)
	data, err := cache.Get(ctx, key)
	switch {
	case err == nil:
		var product domain.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
	case !errors.Is(err, repository.ErrCacheMiss):
		s.logger.Warn().Err(err).Msg("product cache unavailable")
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		if err := cache.Set(ctx, key, data, s.config.ProductCacheTTL); err != nil {
			s.logger.Warn().Err(err).Int64("product_id", id).Msg("failed to cache product")
		}
	}
	return product, nil
}

// checkQuota applies the per-product, per-request-type and faucet-wide
// daily quotas, then rejects a repeated pk160 and request uuid pair.
func (s *ClaimService) checkQuota(ctx context.Context, product *domain.Product, event *domain.ClaimEvent) error {
	since := event.CreatedAt.Add(-quotaWindow)

	perProduct, err := s.claimRepo.Count(ctx, repository.ClaimCountFilter{ProductID: product.ID, Since: since})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if perProduct >= product.Quota.H24Quota {
		return domain.ErrQuotaPerProduct
	}

	requestType := event.RequestType
	perType, err := s.claimRepo.Count(ctx, repository.ClaimCountFilter{
		ProductID:   product.ID,
		RequestType: &requestType,
		Since:       since,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if perType >= product.Quota.H24QuotaPerRequestType {
		return domain.ErrQuotaPerRequestType
	}

	total, err := s.claimRepo.Count(ctx, repository.ClaimCountFilter{Since: since})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if total >= s.config.H24TotalQuota {
		return domain.ErrQuotaTotal
	}

	exists, err := s.claimRepo.ExistsForProduct(ctx, product.ID, event.Pk160, event.RequestUUID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return domain.ErrDuplicateClaim
	}

	return nil
}

// Get returns a claim event owned by productID.
func (s *ClaimService) Get(ctx context.Context, productID int64, id string) (*domain.ClaimEvent, error) {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrClaimEventNotFound
	}

	event, err := s.claimRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrClaimEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if event.ProductID != productID {
		return nil, domain.ErrClaimEventNotFound
	}

	return event, nil
}

// QuotaState reports whether a quota is exhausted. State is 0 when normal
// and 1 when the quota has been reached.
type QuotaState struct {
	State   int    `json:"state"`
	Message string `json:"message"`
}

// HealthReport summarizes quota usage over the quota window.
type HealthReport struct {
	TotalClaimState      QuotaState `json:"total_claim_state"`
	ClaimPerProductState QuotaState `json:"claim_per_product_state"`
}

// Health reports whether the faucet-wide quota or any product quota is
// exhausted in the current window.
func (s *ClaimService) Health(ctx context.Context) (*HealthReport, error) {
	since := s.now().UTC().Add(-quotaWindow)
	report := &HealthReport{}

	total, err := s.claimRepo.Count(ctx, repository.ClaimCountFilter{Since: since})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if total >= s.config.H24TotalQuota {
		report.TotalClaimState = QuotaState{
			State:   1,
			Message: "Alert! The total claim count exceeds the maximum quota per day",
		}
	}

	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var exhausted []string
	for _, product := range products {
		count, err := s.claimRepo.Count(ctx, repository.ClaimCountFilter{ProductID: product.ID, Since: since})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if count >= product.Quota.H24Quota {
			exhausted = append(exhausted, product.Name)
		}
	}
	if len(exhausted) > 0 {
		report.ClaimPerProductState = QuotaState{
			State:   1,
			Message: fmt.Sprintf("Alert! Product %s exceeds the maximum quota per day", strings.Join(exhausted, ", ")),
		}
	}

	return report, nil
}
