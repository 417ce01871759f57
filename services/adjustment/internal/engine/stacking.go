package engine

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/adjustment/internal/domain"
)

// Layer is one stage of the stacking order.
type Layer string

// Stacking layers.
const (
	LayerRewards   Layer = "rewards"
	LayerCoupon    Layer = "coupon"
	LayerCampaigns Layer = "campaigns"
)

// StackingOrder is the precedence in which adjustments apply. Rewards and
// the coupon are computed against the raw order total; campaigns against
// what remains after both. Reordering changes every price.
var StackingOrder = [...]Layer{LayerRewards, LayerCoupon, LayerCampaigns}

// Skip reasons for entities that are eligible but not applied.
const (
	ReasonSuperseded      = "superseded"
	ReasonUnsupportedType = "unsupported_type"
)

// Candidates are the entities considered for one order. ApplyAll checks each
// of them: an unapproved reward or an ineligible coupon fails the whole
// stack with its INELIGIBLE error, while ineligible campaigns are skipped.
type Candidates struct {
	Rewards   []domain.RedeemedReward
	Coupon    *domain.Coupon
	Campaigns []domain.Campaign
}

type stack struct {
	oc       OrderContext
	personal int64
	campaign int64
	result   *domain.StackResult
}

// ApplyAll stacks every applicable adjustment onto oc.OrderTotal. The same
// inputs always produce the same result.
func ApplyAll(c Candidates, oc OrderContext) (*domain.StackResult, error) {
	if oc.OrderTotal < 0 {
		return nil, apperrors.InvalidInput("order total must not be negative")
	}

	s := &stack{
		oc: oc,
		result: &domain.StackResult{
			OrderTotal:       oc.OrderTotal,
			PointsMultiplier: decimal.NewFromInt(1),
			Applied:          []domain.AppliedEntity{},
		},
	}

	for _, layer := range StackingOrder {
		var err error
		switch layer {
		case LayerRewards:
			err = s.applyRewards(c.Rewards)
		case LayerCoupon:
			err = s.applyCoupon(c.Coupon)
		case LayerCampaigns:
			s.applyCampaigns(c.Campaigns)
		}
		if err != nil {
			return nil, err
		}
	}

	total := min(s.personal+s.campaign, oc.OrderTotal)
	s.result.TotalDiscount = total
	s.result.PayableAmount = oc.OrderTotal - total
	return s.result, nil
}

func (s *stack) applyRewards(rewards []domain.RedeemedReward) error {
	sorted := slices.Clone(rewards)
	slices.SortFunc(sorted, func(a, b domain.RedeemedReward) int {
		return cmp.Or(cmp.Compare(b.Value, a.Value), cmp.Compare(a.ID, b.ID))
	})

	var haveDiscount, haveDelivery bool
	for i := range sorted {
		r := &sorted[i]
		if err := CheckReward(r); err != nil {
			return err
		}

		switch r.RewardType {
		case domain.RewardTypeDiscount:
			if haveDiscount {
				s.skip(domain.EntityReward, r.ID, ReasonSuperseded)
				continue
			}
			haveDiscount = true
		case domain.RewardTypeFreeDelivery:
			if haveDelivery {
				s.skip(domain.EntityReward, r.ID, ReasonSuperseded)
				continue
			}
			haveDelivery = true
		case domain.RewardTypeCashback, domain.RewardTypeFreeProduct:
		default:
			s.skip(domain.EntityReward, r.ID, ReasonUnsupportedType)
			continue
		}

		d := r.Discount()
		contrib := domain.Apply(d, s.oc.OrderTotal)
		s.personal += contrib.Amount
		_, deferred := d.(domain.Deferred)
		s.apply(domain.EntityReward, r.ID, r.RewardName, d, contrib, deferred)
	}
	return nil
}

func (s *stack) applyCoupon(c *domain.Coupon) error {
	if c == nil {
		return nil
	}
	if err := CheckCoupon(c, s.oc); err != nil {
		return err
	}

	d := c.Discount()
	contrib := domain.Apply(d, s.oc.OrderTotal)
	s.personal += contrib.Amount
	s.apply(domain.EntityCoupon, c.ID, c.Code, d, contrib, false)
	return nil
}

func (s *stack) applyCampaigns(campaigns []domain.Campaign) {
	sorted := slices.Clone(campaigns)
	slices.SortFunc(sorted, func(a, b domain.Campaign) int {
		return cmp.Compare(a.ID, b.ID)
	})

	base := max(0, s.oc.OrderTotal-s.personal)
	for i := range sorted {
		c := &sorted[i]
		if err := CheckCampaign(c, s.oc); err != nil {
			s.skip(domain.EntityCampaign, c.ID, apperrors.ReasonOf(err))
			continue
		}

		d := c.Discount()
		if _, ok := d.(domain.NoDiscount); ok {
			s.skip(domain.EntityCampaign, c.ID, ReasonUnsupportedType)
			continue
		}

		contrib := domain.Apply(d, base)
		s.campaign += contrib.Amount
		if contrib.HasMultiplier() && contrib.PointsMultiplier.GreaterThan(s.result.PointsMultiplier) {
			s.result.PointsMultiplier = contrib.PointsMultiplier
		}
		s.apply(domain.EntityCampaign, c.ID, c.Name, d, contrib, false)
	}
}

func (s *stack) apply(kind domain.EntityKind, id, label string, d domain.Discount, c domain.Contribution, deferred bool) {
	s.result.FreeShipping = s.result.FreeShipping || c.FreeShipping
	s.result.Applied = append(s.result.Applied, domain.AppliedEntity{
		Kind:             kind,
		ID:               id,
		Label:            label,
		Mechanism:        d.Kind(),
		DiscountAmount:   c.Amount,
		FreeShipping:     c.FreeShipping,
		PointsMultiplier: c.PointsMultiplier,
		Deferred:         deferred,
	})
}

func (s *stack) skip(kind domain.EntityKind, id, reason string) {
	s.result.Skipped = append(s.result.Skipped, domain.SkippedEntity{Kind: kind, ID: id, Reason: reason})
}
