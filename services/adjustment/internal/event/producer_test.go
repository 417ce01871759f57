package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type recordingPublisher struct {
	sent []published
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, e *pkgkafka.Event) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, published{topic: topic, event: e})
	return nil
}

func newTestProducer() (*Producer, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewProducer(pub, slog.New(slog.NewTextHandler(io.Discard, nil))), pub
}

func TestPublishAdjustmentCommitted(t *testing.T) {
	p, pub := newTestProducer()
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	c := &domain.AdjustmentCommit{
		OrderID: "order-1",
		UserID:  "user-1",
		Result: domain.StackResult{
			OrderTotal:       10000,
			TotalDiscount:    1000,
			PayableAmount:    9000,
			PointsMultiplier: decimal.NewFromInt(2),
			Applied: []domain.AppliedEntity{
				{Kind: domain.EntityCoupon, ID: "cpn-1", Mechanism: "percentage_off", DiscountAmount: 1000},
			},
		},
		PointsAwarded: 180,
	}
	require.NoError(t, p.PublishAdjustmentCommitted(ctx, c))

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "storefront.adjustment.committed", pub.sent[0].topic)
	e := pub.sent[0].event
	assert.Equal(t, "order-1", e.AggregateID)
	assert.Equal(t, AggregateTypeOrder, e.AggregateType)
	assert.Equal(t, SourceAdjustmentService, e.Source)
	assert.Equal(t, "corr-1", e.CorrelationID)

	var data AdjustmentCommittedData
	require.NoError(t, e.UnmarshalData(&data))
	assert.Equal(t, int64(9000), data.PayableAmount)
	assert.Equal(t, int64(180), data.PointsAwarded)
	require.Len(t, data.Applied, 1)
	assert.Equal(t, "coupon", data.Applied[0].Kind)
}

func TestPublishRedemption_TopicFollowsStatus(t *testing.T) {
	tests := []struct {
		status domain.RewardStatus
		topic  string
	}{
		{domain.RewardStatusPending, TopicRewardRedeemed},
		{domain.RewardStatusApproved, TopicRewardApproved},
		{domain.RewardStatusRejected, TopicRewardRejected},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			p, pub := newTestProducer()
			rr := &domain.RedeemedReward{ID: "rdm-1", UserID: "user-1", Status: tt.status}

			require.NoError(t, p.PublishRedemption(context.Background(), rr))
			require.Len(t, pub.sent, 1)
			assert.Equal(t, tt.topic, pub.sent[0].topic)
		})
	}
}

func TestPublishRedemption_UsedHasNoEvent(t *testing.T) {
	p, pub := newTestProducer()

	err := p.PublishRedemption(context.Background(), &domain.RedeemedReward{ID: "rdm-1", Status: domain.RewardStatusUsed})
	assert.Error(t, err)
	assert.Empty(t, pub.sent)
}

func TestPublish_WrapsPublisherError(t *testing.T) {
	p, pub := newTestProducer()
	pub.err = errors.New("broker down")

	err := p.PublishCouponCreated(context.Background(), &domain.Coupon{ID: "cpn-1", Code: "SAVE10"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish storefront.coupon.created event")
}
