package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
	"github.com/utafrali/storefront/services/adjustment/internal/event"
)

func newTestAdminService() (*AdminService, *mockCouponRepository, *mockCampaignRepository, *mockCampaignCache, *recordingPublisher) {
	coupons := new(mockCouponRepository)
	campaigns := new(mockCampaignRepository)
	cache := new(mockCampaignCache)
	producer, pub := newTestProducer()
	svc := NewAdminService(coupons, campaigns, cache, producer, newTestLogger())
	svc.now = fixedClock
	return svc, coupons, campaigns, cache, pub
}

func TestCreateCoupon_NormalizesCode(t *testing.T) {
	svc, coupons, _, _, pub := newTestAdminService()
	coupons.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Coupon) bool {
		return c.Code == "WELCOME10" && c.Active && c.UsageCount == 0
	})).Return(nil)

	c, err := svc.CreateCoupon(context.Background(), &CreateCouponInput{
		Code:  " welcome10 ",
		Kind:  domain.DiscountKindPercentage,
		Value: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", c.Code)
	assert.Equal(t, testNow, c.CreatedAt)
	assert.Equal(t, []string{event.TopicCouponCreated}, pub.Topics())
	coupons.AssertExpectations(t)
}

func TestCreateCoupon_Validation(t *testing.T) {
	svc, _, _, _, _ := newTestAdminService()
	end := testNow.Add(-time.Hour)

	tests := []struct {
		name  string
		input *CreateCouponInput
	}{
		{"missing code", &CreateCouponInput{Kind: domain.DiscountKindFixed, Value: decimal.NewFromInt(100)}},
		{"unknown kind", &CreateCouponInput{Code: "X", Kind: "bogus", Value: decimal.NewFromInt(1)}},
		{"percentage above 100", &CreateCouponInput{Code: "X", Kind: domain.DiscountKindPercentage, Value: decimal.NewFromInt(101)}},
		{"fractional cents", &CreateCouponInput{Code: "X", Kind: domain.DiscountKindFixed, Value: decimal.RequireFromString("10.5")}},
		{"end before start", &CreateCouponInput{Code: "X", Kind: domain.DiscountKindFreeShipping, StartDate: &testNow, EndDate: &end}},
		{"zero usage limit", &CreateCouponInput{Code: "X", Kind: domain.DiscountKindFreeShipping, UsageLimit: intPtr(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCoupon(context.Background(), tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestCreateCampaign_InvalidatesCache(t *testing.T) {
	svc, _, campaigns, cache, pub := newTestAdminService()
	campaigns.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Campaign) bool {
		return c.Type == domain.CampaignTypePointsMultiplier && c.PointsMultiplier.Equal(decimal.NewFromInt(3))
	})).Return(nil)
	cache.On("Invalidate", mock.Anything).Return(nil)

	_, err := svc.CreateCampaign(context.Background(), &CreateCampaignInput{
		Name:             "Triple points",
		Type:             domain.CampaignTypePointsMultiplier,
		PointsMultiplier: decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	cache.AssertExpectations(t)
	assert.Equal(t, []string{event.TopicCampaignCreated}, pub.Topics())
}

func TestCreateCampaign_DiscountNeedsKind(t *testing.T) {
	svc, _, _, _, _ := newTestAdminService()

	_, err := svc.CreateCampaign(context.Background(), &CreateCampaignInput{
		Name:          "Broken",
		Type:          domain.CampaignTypeDiscount,
		DiscountValue: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDeactivateCampaign(t *testing.T) {
	svc, _, campaigns, cache, pub := newTestAdminService()
	campaigns.On("Deactivate", mock.Anything, "camp-1").Return(nil)
	cache.On("Invalidate", mock.Anything).Return(nil)

	require.NoError(t, svc.DeactivateCampaign(context.Background(), "camp-1"))
	cache.AssertExpectations(t)
	assert.Equal(t, []string{event.TopicCampaignDeactivated}, pub.Topics())
}

func TestDeactivateCoupon_NotFound(t *testing.T) {
	svc, coupons, _, _, pub := newTestAdminService()
	coupons.On("Deactivate", mock.Anything, "cpn-x").Return(apperrors.NotFound("coupon", "cpn-x"))

	err := svc.DeactivateCoupon(context.Background(), "cpn-x")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, pub.Topics())
}

func TestExpireEntities(t *testing.T) {
	t.Run("nothing expired", func(t *testing.T) {
		svc, coupons, campaigns, cache, pub := newTestAdminService()
		coupons.On("DeactivateExpired", mock.Anything, testNow).Return(int64(0), nil)
		campaigns.On("DeactivateExpired", mock.Anything, testNow).Return(int64(0), nil)

		c, k, err := svc.ExpireEntities(context.Background())
		require.NoError(t, err)
		assert.Zero(t, c)
		assert.Zero(t, k)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything)
		assert.Empty(t, pub.Topics())
	})

	t.Run("expired campaigns drop the cache", func(t *testing.T) {
		svc, coupons, campaigns, cache, pub := newTestAdminService()
		coupons.On("DeactivateExpired", mock.Anything, testNow).Return(int64(2), nil)
		campaigns.On("DeactivateExpired", mock.Anything, testNow).Return(int64(1), nil)
		cache.On("Invalidate", mock.Anything).Return(nil)

		c, k, err := svc.ExpireEntities(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(2), c)
		assert.Equal(t, int64(1), k)
		cache.AssertExpectations(t)
		assert.Equal(t, []string{event.TopicEntitiesExpired}, pub.Topics())
	})
}
