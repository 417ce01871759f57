package http

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
	"github.com/utafrali/storefront/services/adjustment/internal/event"
)

// --- Mock Repositories ---

type mockCouponRepository struct {
	mock.Mock
}

func (m *mockCouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCouponRepository) GetByID(ctx context.Context, id string) (*domain.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) List(ctx context.Context, params pagination.Params) ([]domain.Coupon, int, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]domain.Coupon), args.Int(1), args.Error(2)
}

func (m *mockCouponRepository) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCouponRepository) CountUsagesByUser(ctx context.Context, couponID, userID string) (int, error) {
	args := m.Called(ctx, couponID, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockCouponRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockCampaignRepository struct {
	mock.Mock
}

func (m *mockCampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCampaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *mockCampaignRepository) List(ctx context.Context, params pagination.Params) ([]domain.Campaign, int, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]domain.Campaign), args.Int(1), args.Error(2)
}

func (m *mockCampaignRepository) ListActive(ctx context.Context) ([]domain.Campaign, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Campaign), args.Error(1)
}

func (m *mockCampaignRepository) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCampaignRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockCampaignCache struct {
	mock.Mock
}

func (m *mockCampaignCache) GetActive(ctx context.Context) ([]domain.Campaign, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.Campaign), args.Bool(1), args.Error(2)
}

func (m *mockCampaignCache) SetActive(ctx context.Context, campaigns []domain.Campaign) error {
	return m.Called(ctx, campaigns).Error(0)
}

func (m *mockCampaignCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockRewardRepository struct {
	mock.Mock
}

func (m *mockRewardRepository) CreateReward(ctx context.Context, r *domain.Reward) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRewardRepository) GetReward(ctx context.Context, id string) (*domain.Reward, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reward), args.Error(1)
}

func (m *mockRewardRepository) ListRewards(ctx context.Context) ([]domain.Reward, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Reward), args.Error(1)
}

func (m *mockRewardRepository) CreateRedemption(ctx context.Context, rr *domain.RedeemedReward) error {
	return m.Called(ctx, rr).Error(0)
}

func (m *mockRewardRepository) GetRedemption(ctx context.Context, id string) (*domain.RedeemedReward, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RedeemedReward), args.Error(1)
}

func (m *mockRewardRepository) ListRedemptionsByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.RedeemedReward, int, error) {
	args := m.Called(ctx, userID, params)
	return args.Get(0).([]domain.RedeemedReward), args.Int(1), args.Error(2)
}

func (m *mockRewardRepository) ListApprovedByUser(ctx context.Context, userID string) ([]domain.RedeemedReward, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.RedeemedReward), args.Error(1)
}

func (m *mockRewardRepository) Approve(ctx context.Context, id string, at time.Time) (*domain.RedeemedReward, *domain.LoyaltyAccount, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.RedeemedReward), args.Get(1).(*domain.LoyaltyAccount), args.Error(2)
}

func (m *mockRewardRepository) Reject(ctx context.Context, id string, at time.Time) (*domain.RedeemedReward, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RedeemedReward), args.Error(1)
}

type mockLoyaltyRepository struct {
	mock.Mock
}

func (m *mockLoyaltyRepository) Award(ctx context.Context, a domain.PointsAward) (*domain.LoyaltyAccount, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoyaltyAccount), args.Error(1)
}

func (m *mockLoyaltyRepository) GetAccount(ctx context.Context, userID string) (*domain.LoyaltyAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoyaltyAccount), args.Error(1)
}

func (m *mockLoyaltyRepository) ListTransactions(ctx context.Context, userID string, params pagination.Params) ([]domain.PointsTransaction, int, error) {
	args := m.Called(ctx, userID, params)
	return args.Get(0).([]domain.PointsTransaction), args.Int(1), args.Error(2)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Commit(ctx context.Context, c *domain.AdjustmentCommit) (*domain.AdjustmentCommit, bool, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.AdjustmentCommit), args.Bool(1), args.Error(2)
}

func (m *mockLedger) GetCommit(ctx context.Context, orderID string) (*domain.AdjustmentCommit, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdjustmentCommit), args.Error(1)
}

// --- Test Helpers ---

type nopPublisher struct {
	mu    sync.Mutex
	count int
}

func (p *nopPublisher) Publish(context.Context, string, *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	return event.NewProducer(&nopPublisher{}, testLogger())
}
