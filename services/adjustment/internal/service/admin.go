package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
	"github.com/utafrali/storefront/services/adjustment/internal/event"
	"github.com/utafrali/storefront/services/adjustment/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// AdminService implements coupon and campaign administration. Every
// mutation drops the cached active campaign set.
type AdminService struct {
	coupons   repository.CouponRepository
	campaigns repository.CampaignRepository
	cache     repository.CampaignCache
	producer  *event.Producer
	logger    *slog.Logger
	now       func() time.Time
}

// NewAdminService creates a new admin service. cache may be nil.
func NewAdminService(
	coupons repository.CouponRepository,
	campaigns repository.CampaignRepository,
	cache repository.CampaignCache,
	producer *event.Producer,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		coupons:   coupons,
		campaigns: campaigns,
		cache:     cache,
		producer:  producer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateCouponInput holds the parameters for creating a coupon.
type CreateCouponInput struct {
	Code              string
	Kind              domain.DiscountKind
	Value             decimal.Decimal
	MinPurchase       *int64
	MaxDiscount       *int64
	StartDate         *time.Time
	EndDate           *time.Time
	UsageLimit        *int
	UsageLimitPerUser *int
}

// CreateCampaignInput holds the parameters for creating a campaign.
type CreateCampaignInput struct {
	Name             string
	Description      string
	Type             domain.CampaignType
	DiscountKind     domain.DiscountKind
	DiscountValue    decimal.Decimal
	MaxDiscount      *int64
	MinPurchase      *int64
	PointsMultiplier decimal.Decimal
	StartDate        *time.Time
	EndDate          *time.Time
	UsageLimit       *int
}

func validateWindow(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return apperrors.InvalidInput("end date must be after start date")
	}
	return nil
}

func validateLimits(minPurchase, maxDiscount *int64, limits ...*int) error {
	if minPurchase != nil && *minPurchase < 0 {
		return apperrors.InvalidInput("min purchase must not be negative")
	}
	if maxDiscount != nil && *maxDiscount <= 0 {
		return apperrors.InvalidInput("max discount must be positive")
	}
	for _, l := range limits {
		if l != nil && *l <= 0 {
			return apperrors.InvalidInput("usage limits must be positive")
		}
	}
	return nil
}

func validateDiscountValue(kind domain.DiscountKind, value decimal.Decimal) error {
	switch kind {
	case domain.DiscountKindPercentage:
		if !value.IsPositive() || value.GreaterThan(hundred) {
			return apperrors.InvalidInput("percentage must be in (0, 100]")
		}
	case domain.DiscountKindFixed:
		if !value.IsPositive() || !value.Equal(value.Truncate(0)) {
			return apperrors.InvalidInput("fixed amount must be a positive whole number of cents")
		}
	}
	return nil
}

// CreateCoupon validates and stores a new active coupon.
func (s *AdminService) CreateCoupon(ctx context.Context, input *CreateCouponInput) (*domain.Coupon, error) {
	code := domain.NormalizeCode(input.Code)
	if code == "" {
		return nil, apperrors.InvalidInput("coupon code is required")
	}
	if !domain.IsValidDiscountKind(input.Kind) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid coupon kind %q", input.Kind))
	}
	if err := validateDiscountValue(input.Kind, input.Value); err != nil {
		return nil, err
	}
	if err := validateWindow(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if err := validateLimits(input.MinPurchase, input.MaxDiscount, input.UsageLimit, input.UsageLimitPerUser); err != nil {
		return nil, err
	}

	now := s.now()
	coupon := &domain.Coupon{
		ID:                uuid.New().String(),
		Code:              code,
		Kind:              input.Kind,
		Value:             input.Value,
		MinPurchase:       input.MinPurchase,
		MaxDiscount:       input.MaxDiscount,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		UsageLimit:        input.UsageLimit,
		UsageLimitPerUser: input.UsageLimitPerUser,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	if err := s.producer.PublishCouponCreated(ctx, coupon); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.created event",
			slog.String("coupon_id", coupon.ID),
			slog.String("error", err.Error()),
		)
	}
	s.logger.InfoContext(ctx, "coupon created",
		slog.String("coupon_id", coupon.ID),
		slog.String("code", coupon.Code),
	)
	return coupon, nil
}

// GetCoupon retrieves a coupon by its ID.
func (s *AdminService) GetCoupon(ctx context.Context, id string) (*domain.Coupon, error) {
	coupon, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon by id: %w", err)
	}
	return coupon, nil
}

// ListCoupons returns a page of coupons.
func (s *AdminService) ListCoupons(ctx context.Context, params pagination.Params) ([]domain.Coupon, int, error) {
	coupons, total, err := s.coupons.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, total, nil
}

// DeactivateCoupon clears the active flag of a coupon.
func (s *AdminService) DeactivateCoupon(ctx context.Context, id string) error {
	if err := s.coupons.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate coupon: %w", err)
	}

	if err := s.producer.PublishCouponDeactivated(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.deactivated event",
			slog.String("coupon_id", id),
			slog.String("error", err.Error()),
		)
	}
	s.logger.InfoContext(ctx, "coupon deactivated", slog.String("coupon_id", id))
	return nil
}

// CreateCampaign validates and stores a new active campaign.
func (s *AdminService) CreateCampaign(ctx context.Context, input *CreateCampaignInput) (*domain.Campaign, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("campaign name is required")
	}
	if !domain.IsValidCampaignType(input.Type) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid campaign type %q", input.Type))
	}

	multiplier := decimal.NewFromInt(1)
	switch input.Type {
	case domain.CampaignTypeDiscount:
		if input.DiscountKind != domain.DiscountKindPercentage && input.DiscountKind != domain.DiscountKindFixed {
			return nil, apperrors.InvalidInput("discount campaigns need a percentage or fixed discount kind")
		}
		if err := validateDiscountValue(input.DiscountKind, input.DiscountValue); err != nil {
			return nil, err
		}
	case domain.CampaignTypePointsMultiplier:
		if !input.PointsMultiplier.GreaterThan(decimal.NewFromInt(1)) {
			return nil, apperrors.InvalidInput("points multiplier must be greater than 1")
		}
		multiplier = input.PointsMultiplier
	}
	if err := validateWindow(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if err := validateLimits(input.MinPurchase, input.MaxDiscount, input.UsageLimit); err != nil {
		return nil, err
	}

	now := s.now()
	campaign := &domain.Campaign{
		ID:               uuid.New().String(),
		Name:             input.Name,
		Description:      input.Description,
		Type:             input.Type,
		MaxDiscount:      input.MaxDiscount,
		MinPurchase:      input.MinPurchase,
		PointsMultiplier: multiplier,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		UsageLimit:       input.UsageLimit,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if input.Type == domain.CampaignTypeDiscount {
		campaign.DiscountKind = input.DiscountKind
		campaign.DiscountValue = input.DiscountValue
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	s.invalidateCache(ctx)

	if err := s.producer.PublishCampaignCreated(ctx, campaign); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish campaign.created event",
			slog.String("campaign_id", campaign.ID),
			slog.String("error", err.Error()),
		)
	}
	s.logger.InfoContext(ctx, "campaign created",
		slog.String("campaign_id", campaign.ID),
		slog.String("type", string(campaign.Type)),
	)
	return campaign, nil
}

// GetCampaign retrieves a campaign by its ID.
func (s *AdminService) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}
	return campaign, nil
}

// ListCampaigns returns a page of campaigns.
func (s *AdminService) ListCampaigns(ctx context.Context, params pagination.Params) ([]domain.Campaign, int, error) {
	campaigns, total, err := s.campaigns.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, total, nil
}

// DeactivateCampaign clears the active flag of a campaign.
func (s *AdminService) DeactivateCampaign(ctx context.Context, id string) error {
	if err := s.campaigns.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate campaign: %w", err)
	}
	s.invalidateCache(ctx)

	if err := s.producer.PublishCampaignDeactivated(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish campaign.deactivated event",
			slog.String("campaign_id", id),
			slog.String("error", err.Error()),
		)
	}
	s.logger.InfoContext(ctx, "campaign deactivated", slog.String("campaign_id", id))
	return nil
}

// ExpireEntities deactivates coupons and campaigns whose end date has
// passed. Eligibility checks dates itself, so this only keeps the active
// flags honest for administrators.
func (s *AdminService) ExpireEntities(ctx context.Context) (coupons, campaigns int64, err error) {
	now := s.now()

	coupons, err = s.coupons.DeactivateExpired(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("expire coupons: %w", err)
	}
	campaigns, err = s.campaigns.DeactivateExpired(ctx, now)
	if err != nil {
		return coupons, 0, fmt.Errorf("expire campaigns: %w", err)
	}
	if coupons == 0 && campaigns == 0 {
		return 0, 0, nil
	}

	if campaigns > 0 {
		s.invalidateCache(ctx)
	}
	if err := s.producer.PublishEntitiesExpired(ctx, coupons, campaigns); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish adjustment.entities_expired event",
			slog.String("error", err.Error()),
		)
	}
	s.logger.InfoContext(ctx, "expired entities deactivated",
		slog.Int64("coupons", coupons),
		slog.Int64("campaigns", campaigns),
	)
	return coupons, campaigns, nil
}

func (s *AdminService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "campaign cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}
}
