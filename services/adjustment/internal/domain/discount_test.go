package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

func TestPercentageOff_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		name    string
		percent string
		base    int64
		want    int64
	}{
		{"exact", "10", 10000, 1000},
		{"half rounds up", "15", 1010, 152},
		{"half cent up", "50", 1, 1},
		{"below half rounds down", "10", 4, 0},
		{"fractional percent", "12.5", 999, 125},
		{"zero base", "20", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := PercentageOff{Percent: decimal.RequireFromString(tt.percent)}
			assert.Equal(t, tt.want, Apply(d, tt.base).Amount)
		})
	}
}

func TestPercentageOff_ClampedToMaxDiscount(t *testing.T) {
	d := PercentageOff{Percent: decimal.NewFromInt(50), MaxDiscount: int64Ptr(2000)}
	assert.Equal(t, int64(2000), Apply(d, 10000).Amount)
	assert.Equal(t, int64(1000), Apply(d, 2000).Amount)
}

func TestFixedOff_NeverExceedsBase(t *testing.T) {
	d := FixedOff{Amount: 1500}
	assert.Equal(t, int64(1500), Apply(d, 5000).Amount)
	assert.Equal(t, int64(900), Apply(d, 900).Amount)
	assert.Equal(t, int64(0), Apply(d, -10).Amount)
}

func TestFlagOnlyVariants(t *testing.T) {
	fs := Apply(FreeShipping{}, 5000)
	assert.True(t, fs.FreeShipping)
	assert.Zero(t, fs.Amount)

	pm := Apply(PointsMultiplier{Factor: decimal.NewFromInt(2)}, 5000)
	assert.True(t, pm.HasMultiplier())
	assert.True(t, pm.PointsMultiplier.Equal(decimal.NewFromInt(2)))
	assert.Zero(t, pm.Amount)
}

func TestBuyOneGetOne_IsHalfOfBase(t *testing.T) {
	assert.Equal(t, int64(2500), Apply(BuyOneGetOne{}, 5000).Amount)
	assert.Equal(t, int64(2), Apply(BuyOneGetOne{}, 3).Amount)
}

func TestDeferredAndNoDiscount_ContributeNothing(t *testing.T) {
	assert.Equal(t, Contribution{}, Apply(Deferred{RewardType: RewardTypeCashback}, 5000))
	assert.Equal(t, Contribution{}, Apply(NoDiscount{StoredType: "mystery"}, 5000))
}

func TestCoupon_Discount(t *testing.T) {
	pct := Coupon{Kind: DiscountKindPercentage, Value: decimal.NewFromInt(10), MaxDiscount: int64Ptr(300)}
	assert.Equal(t, PercentageOff{Percent: decimal.NewFromInt(10), MaxDiscount: int64Ptr(300)}, pct.Discount())

	fixed := Coupon{Kind: DiscountKindFixed, Value: decimal.NewFromInt(500)}
	assert.Equal(t, FixedOff{Amount: 500}, fixed.Discount())

	ship := Coupon{Kind: DiscountKindFreeShipping}
	assert.Equal(t, FreeShipping{}, ship.Discount())

	unknown := Coupon{Kind: "store_credit"}
	assert.Equal(t, NoDiscount{StoredType: "store_credit"}, unknown.Discount())
}

func TestCampaign_Discount(t *testing.T) {
	tests := []struct {
		name string
		c    Campaign
		want Discount
	}{
		{
			"percentage discount",
			Campaign{Type: CampaignTypeDiscount, DiscountKind: DiscountKindPercentage, DiscountValue: decimal.NewFromInt(5)},
			PercentageOff{Percent: decimal.NewFromInt(5)},
		},
		{
			"fixed discount",
			Campaign{Type: CampaignTypeDiscount, DiscountKind: DiscountKindFixed, DiscountValue: decimal.NewFromInt(250)},
			FixedOff{Amount: 250},
		},
		{"free shipping", Campaign{Type: CampaignTypeFreeShipping}, FreeShipping{}},
		{
			"multiplier",
			Campaign{Type: CampaignTypePointsMultiplier, PointsMultiplier: decimal.NewFromInt(3)},
			PointsMultiplier{Factor: decimal.NewFromInt(3)},
		},
		{"bogo", Campaign{Type: CampaignTypeBOGO}, BuyOneGetOne{}},
		{"discount without kind", Campaign{Type: CampaignTypeDiscount}, NoDiscount{StoredType: "discount"}},
		{"unknown type", Campaign{Type: "flash_sale"}, NoDiscount{StoredType: "flash_sale"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Discount())
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE10", NormalizeCode("  save10 "))
}
