package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
)

// Kafka topics for adjustment domain events.
var (
	TopicAdjustmentCommitted = pkgkafka.Topic("adjustment", "committed")
	TopicPointsAwarded       = pkgkafka.Topic("loyalty", "points_awarded")
	TopicRewardRedeemed      = pkgkafka.Topic("reward", "redeemed")
	TopicRewardApproved      = pkgkafka.Topic("reward", "approved")
	TopicRewardRejected      = pkgkafka.Topic("reward", "rejected")
	TopicCouponCreated       = pkgkafka.Topic("coupon", "created")
	TopicCouponDeactivated   = pkgkafka.Topic("coupon", "deactivated")
	TopicCampaignCreated     = pkgkafka.Topic("campaign", "created")
	TopicCampaignDeactivated = pkgkafka.Topic("campaign", "deactivated")
	TopicEntitiesExpired     = pkgkafka.Topic("adjustment", "entities_expired")
)

// Aggregate type constants.
const (
	AggregateTypeOrder      = "order"
	AggregateTypeLoyalty    = "loyalty_account"
	AggregateTypeRedemption = "redeemed_reward"
	AggregateTypeCoupon     = "coupon"
	AggregateTypeCampaign   = "campaign"
)

// SourceAdjustmentService identifies events originating from this service.
const SourceAdjustmentService = "adjustment-service"

// AppliedData is one applied entity inside an AdjustmentCommittedData.
type AppliedData struct {
	Kind           string `json:"kind"`
	ID             string `json:"id"`
	Mechanism      string `json:"mechanism"`
	DiscountAmount int64  `json:"discount_amount"`
	Deferred       bool   `json:"deferred,omitempty"`
}

// AdjustmentCommittedData is the payload for an adjustment.committed event.
type AdjustmentCommittedData struct {
	OrderID          string          `json:"order_id"`
	UserID           string          `json:"user_id"`
	OrderTotal       int64           `json:"order_total"`
	TotalDiscount    int64           `json:"total_discount"`
	PayableAmount    int64           `json:"payable_amount"`
	FreeShipping     bool            `json:"free_shipping"`
	PointsMultiplier decimal.Decimal `json:"points_multiplier"`
	PointsAwarded    int64           `json:"points_awarded"`
	Applied          []AppliedData   `json:"applied"`
}

// PointsAwardedData is the payload for a loyalty.points_awarded event.
type PointsAwardedData struct {
	UserID      string `json:"user_id"`
	Points      int64  `json:"points"`
	Balance     int64  `json:"balance"`
	Tier        string `json:"tier"`
	Reason      string `json:"reason"`
	ReferenceID string `json:"reference_id"`
}

// RedemptionData is the payload for reward.redeemed, reward.approved and
// reward.rejected events.
type RedemptionData struct {
	RedemptionID string `json:"redemption_id"`
	UserID       string `json:"user_id"`
	RewardID     string `json:"reward_id"`
	RewardType   string `json:"reward_type"`
	Status       string `json:"status"`
	PointsCost   int64  `json:"points_cost"`
}

// CouponData is the payload for coupon lifecycle events.
type CouponData struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Kind   string `json:"kind"`
	Active bool   `json:"active"`
}

// CampaignData is the payload for campaign lifecycle events.
type CampaignData struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

// EntitiesExpiredData is the payload for an adjustment.entities_expired event.
type EntitiesExpiredData struct {
	Coupons   int64 `json:"coupons"`
	Campaigns int64 `json:"campaigns"`
}

// Producer publishes adjustment domain events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the adjustment service.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(ctx, topic, aggregateID, aggregateType, SourceAdjustmentService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishAdjustmentCommitted publishes an adjustment.committed event.
func (p *Producer) PublishAdjustmentCommitted(ctx context.Context, c *domain.AdjustmentCommit) error {
	applied := make([]AppliedData, 0, len(c.Result.Applied))
	for _, e := range c.Result.Applied {
		applied = append(applied, AppliedData{
			Kind:           string(e.Kind),
			ID:             e.ID,
			Mechanism:      e.Mechanism,
			DiscountAmount: e.DiscountAmount,
			Deferred:       e.Deferred,
		})
	}

	return p.publish(ctx, TopicAdjustmentCommitted, c.OrderID, AggregateTypeOrder, AdjustmentCommittedData{
		OrderID:          c.OrderID,
		UserID:           c.UserID,
		OrderTotal:       c.Result.OrderTotal,
		TotalDiscount:    c.Result.TotalDiscount,
		PayableAmount:    c.Result.PayableAmount,
		FreeShipping:     c.Result.FreeShipping,
		PointsMultiplier: c.Result.PointsMultiplier,
		PointsAwarded:    c.PointsAwarded,
		Applied:          applied,
	})
}

// PublishPointsAwarded publishes a loyalty.points_awarded event.
func (p *Producer) PublishPointsAwarded(ctx context.Context, a domain.PointsAward, acc *domain.LoyaltyAccount) error {
	return p.publish(ctx, TopicPointsAwarded, a.UserID, AggregateTypeLoyalty, PointsAwardedData{
		UserID:      a.UserID,
		Points:      a.Points,
		Balance:     acc.PointsBalance,
		Tier:        string(acc.Tier),
		Reason:      a.Reason,
		ReferenceID: a.ReferenceID,
	})
}

// PublishRedemption publishes the reward event matching the redemption's
// status.
func (p *Producer) PublishRedemption(ctx context.Context, rr *domain.RedeemedReward) error {
	var topic string
	switch rr.Status {
	case domain.RewardStatusPending:
		topic = TopicRewardRedeemed
	case domain.RewardStatusApproved:
		topic = TopicRewardApproved
	case domain.RewardStatusRejected:
		topic = TopicRewardRejected
	default:
		return fmt.Errorf("no event for redemption status %s", rr.Status)
	}

	return p.publish(ctx, topic, rr.ID, AggregateTypeRedemption, RedemptionData{
		RedemptionID: rr.ID,
		UserID:       rr.UserID,
		RewardID:     rr.RewardID,
		RewardType:   string(rr.RewardType),
		Status:       string(rr.Status),
		PointsCost:   rr.PointsCost,
	})
}

// PublishCouponCreated publishes a coupon.created event.
func (p *Producer) PublishCouponCreated(ctx context.Context, c *domain.Coupon) error {
	return p.publish(ctx, TopicCouponCreated, c.ID, AggregateTypeCoupon, CouponData{
		ID:     c.ID,
		Code:   c.Code,
		Kind:   string(c.Kind),
		Active: c.Active,
	})
}

// PublishCouponDeactivated publishes a coupon.deactivated event.
func (p *Producer) PublishCouponDeactivated(ctx context.Context, id string) error {
	return p.publish(ctx, TopicCouponDeactivated, id, AggregateTypeCoupon, CouponData{ID: id})
}

// PublishCampaignCreated publishes a campaign.created event.
func (p *Producer) PublishCampaignCreated(ctx context.Context, c *domain.Campaign) error {
	return p.publish(ctx, TopicCampaignCreated, c.ID, AggregateTypeCampaign, CampaignData{
		ID:     c.ID,
		Name:   c.Name,
		Type:   string(c.Type),
		Active: c.Active,
	})
}

// PublishCampaignDeactivated publishes a campaign.deactivated event.
func (p *Producer) PublishCampaignDeactivated(ctx context.Context, id string) error {
	return p.publish(ctx, TopicCampaignDeactivated, id, AggregateTypeCampaign, CampaignData{ID: id})
}

// PublishEntitiesExpired publishes an adjustment.entities_expired event.
func (p *Producer) PublishEntitiesExpired(ctx context.Context, coupons, campaigns int64) error {
	return p.publish(ctx, TopicEntitiesExpired, "housekeeping", AggregateTypeCampaign, EntitiesExpiredData{
		Coupons:   coupons,
		Campaigns: campaigns,
	})
}
