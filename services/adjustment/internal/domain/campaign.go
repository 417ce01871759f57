package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignType selects the single mechanism a campaign applies.
type CampaignType string

// Campaign type constants.
const (
	CampaignTypeDiscount         CampaignType = "discount"
	CampaignTypeFreeShipping     CampaignType = "free_shipping"
	CampaignTypePointsMultiplier CampaignType = "points_multiplier"
	CampaignTypeBOGO             CampaignType = "bogo"
)

// ValidCampaignTypes returns the set of valid campaign types.
func ValidCampaignTypes() []CampaignType {
	return []CampaignType{
		CampaignTypeDiscount,
		CampaignTypeFreeShipping,
		CampaignTypePointsMultiplier,
		CampaignTypeBOGO,
	}
}

// IsValidCampaignType checks whether t is a valid campaign type.
func IsValidCampaignType(t CampaignType) bool {
	for _, v := range ValidCampaignTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// Campaign is a store-wide promotion applied without customer input.
type Campaign struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Type             CampaignType    `json:"type"`
	DiscountKind     DiscountKind    `json:"discount_kind,omitempty"`
	DiscountValue    decimal.Decimal `json:"discount_value"`
	MaxDiscount      *int64          `json:"max_discount,omitempty"`
	MinPurchase      *int64          `json:"min_purchase,omitempty"`
	PointsMultiplier decimal.Decimal `json:"points_multiplier"`
	StartDate        *time.Time      `json:"start_date,omitempty"`
	EndDate          *time.Time      `json:"end_date,omitempty"`
	UsageLimit       *int            `json:"usage_limit,omitempty"`
	UsageCount       int             `json:"usage_count"`
	Active           bool            `json:"active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Discount returns the discount variant the campaign applies. Unknown types
// decode to NoDiscount.
func (c *Campaign) Discount() Discount {
	switch c.Type {
	case CampaignTypeDiscount:
		switch c.DiscountKind {
		case DiscountKindPercentage:
			return PercentageOff{Percent: c.DiscountValue, MaxDiscount: c.MaxDiscount}
		case DiscountKindFixed:
			return FixedOff{Amount: c.DiscountValue.IntPart()}
		}
	case CampaignTypeFreeShipping:
		return FreeShipping{}
	case CampaignTypePointsMultiplier:
		return PointsMultiplier{Factor: c.PointsMultiplier}
	case CampaignTypeBOGO:
		return BuyOneGetOne{}
	}
	return NoDiscount{StoredType: string(c.Type)}
}
