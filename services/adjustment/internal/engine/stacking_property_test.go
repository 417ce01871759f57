package engine

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/services/adjustment/internal/domain"
)

func properties(t *testing.T) *gopter.Properties {
	t.Helper()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	return gopter.NewProperties(parameters)
}

func campaignsFrom(percents []int64, multipliers []int64) []domain.Campaign {
	var out []domain.Campaign
	for i, p := range percents {
		out = append(out, percentCampaign(fmt.Sprintf("pct-%02d", i), p))
	}
	for i, m := range multipliers {
		out = append(out, multiplierCampaign(fmt.Sprintf("mul-%02d", i), m))
	}
	return out
}

func TestProperty_PayableNeverNegative(t *testing.T) {
	props := properties(t)

	props.Property("payable = total - discount >= 0", prop.ForAll(
		func(total, couponAmount, rewardValue int64, percents []int64) bool {
			c := Candidates{
				Coupon:    fixedCoupon(couponAmount),
				Rewards:   []domain.RedeemedReward{approvedReward("r-1", domain.RewardTypeDiscount, rewardValue)},
				Campaigns: campaignsFrom(percents, nil),
			}
			res, err := ApplyAll(c, orderCtx(total))
			if err != nil {
				return false
			}
			return res.PayableAmount >= 0 &&
				res.TotalDiscount <= total &&
				res.PayableAmount == total-res.TotalDiscount
		},
		gen.Int64Range(0, 10_000_000),
		gen.Int64Range(0, 5_000_000),
		gen.Int64Range(0, 5_000_000),
		gen.SliceOf(gen.Int64Range(0, 100)),
	))

	props.TestingRun(t)
}

func TestProperty_PercentageCouponNeverExceedsMax(t *testing.T) {
	props := properties(t)

	props.Property("coupon discount <= max_discount", prop.ForAll(
		func(total, percent, maxDiscount int64) bool {
			res, err := ApplyAll(Candidates{Coupon: percentCoupon(percent, int64Ptr(maxDiscount))}, orderCtx(total))
			if err != nil {
				return false
			}
			return res.Applied[0].DiscountAmount <= maxDiscount
		},
		gen.Int64Range(0, 10_000_000),
		gen.Int64Range(0, 100),
		gen.Int64Range(0, 100_000),
	))

	props.TestingRun(t)
}

func TestProperty_CouponAtLimitNeverApplies(t *testing.T) {
	props := properties(t)

	props.Property("usage_count == usage_limit is ineligible", prop.ForAll(
		func(total int64, limit int) bool {
			c := fixedCoupon(100)
			c.UsageLimit = intPtr(limit)
			c.UsageCount = limit
			_, err := ApplyAll(Candidates{Coupon: c}, orderCtx(total))
			return err != nil
		},
		gen.Int64Range(0, 1_000_000),
		gen.IntRange(0, 1000),
	))

	props.TestingRun(t)
}

func TestProperty_MultiplierIsMax(t *testing.T) {
	props := properties(t)

	props.Property("multiplier = max(1, campaign multipliers)", prop.ForAll(
		func(multipliers []int64) bool {
			res, err := ApplyAll(Candidates{Campaigns: campaignsFrom(nil, multipliers)}, orderCtx(10000))
			if err != nil {
				return false
			}
			want := int64(1)
			for _, m := range multipliers {
				want = max(want, m)
			}
			return res.PointsMultiplier.Equal(decimal.NewFromInt(want))
		},
		gen.SliceOf(gen.Int64Range(1, 10)),
	))

	props.TestingRun(t)
}

func TestProperty_CampaignsSeeReducedBase(t *testing.T) {
	props := properties(t)

	props.Property("campaign discount computed on total - (coupon + reward)", prop.ForAll(
		func(total, couponAmount, rewardValue, percent int64) bool {
			c := Candidates{
				Coupon:    fixedCoupon(couponAmount),
				Rewards:   []domain.RedeemedReward{approvedReward("r-1", domain.RewardTypeDiscount, rewardValue)},
				Campaigns: []domain.Campaign{percentCampaign("camp-1", percent)},
			}
			res, err := ApplyAll(c, orderCtx(total))
			if err != nil {
				return false
			}
			personal := min(couponAmount, total) + min(rewardValue, total)
			base := max(0, total-personal)
			want := domain.Apply(domain.PercentageOff{Percent: decimal.NewFromInt(percent)}, base).Amount
			return res.AppliedOf(domain.EntityCampaign)[0].DiscountAmount == want
		},
		gen.Int64Range(0, 1_000_000),
		gen.Int64Range(0, 500_000),
		gen.Int64Range(0, 500_000),
		gen.Int64Range(0, 100),
	))

	props.TestingRun(t)
}

func TestProperty_PreviewIsIdempotent(t *testing.T) {
	props := properties(t)

	props.Property("same inputs give the same result", prop.ForAll(
		func(total int64, percents []int64, multipliers []int64) bool {
			c := Candidates{Coupon: percentCoupon(15, nil), Campaigns: campaignsFrom(percents, multipliers)}
			a, errA := ApplyAll(c, orderCtx(total))
			b, errB := ApplyAll(c, orderCtx(total))
			if errA != nil || errB != nil {
				return false
			}
			return a.TotalDiscount == b.TotalDiscount &&
				a.PayableAmount == b.PayableAmount &&
				a.FreeShipping == b.FreeShipping &&
				a.PointsMultiplier.Equal(b.PointsMultiplier) &&
				len(a.Applied) == len(b.Applied)
		},
		gen.Int64Range(0, 10_000_000),
		gen.SliceOf(gen.Int64Range(0, 100)),
		gen.SliceOf(gen.Int64Range(1, 5)),
	))

	props.TestingRun(t)
}
