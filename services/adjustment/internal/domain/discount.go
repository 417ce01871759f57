package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Contribution is what a single discount contributes to an order.
// A zero PointsMultiplier means the discount does not touch points accrual.
type Contribution struct {
	Amount           int64           `json:"amount"`
	FreeShipping     bool            `json:"free_shipping,omitempty"`
	PointsMultiplier decimal.Decimal `json:"points_multiplier"`
}

// HasMultiplier reports whether the contribution carries a points multiplier.
func (c Contribution) HasMultiplier() bool {
	return c.PointsMultiplier.IsPositive()
}

// Discount is the closed set of discount mechanisms. Variants live in this
// package only; apply is unexported so every variant must be declared here.
type Discount interface {
	Kind() string
	apply(base int64) Contribution
}

// Apply computes the contribution of d against base. A negative base is
// treated as zero.
func Apply(d Discount, base int64) Contribution {
	if base < 0 {
		base = 0
	}
	return d.apply(base)
}

// PercentageOff takes Percent of the base, rounded half-up to the minor unit
// and clamped to MaxDiscount when set.
type PercentageOff struct {
	Percent     decimal.Decimal
	MaxDiscount *int64
}

func (PercentageOff) Kind() string { return "percentage" }

func (p PercentageOff) apply(base int64) Contribution {
	amount := decimal.NewFromInt(base).Mul(p.Percent).Div(hundred).Round(0).IntPart()
	if p.MaxDiscount != nil && amount > *p.MaxDiscount {
		amount = *p.MaxDiscount
	}
	return Contribution{Amount: clamp(amount, base)}
}

// FixedOff takes a fixed amount, never more than the base.
type FixedOff struct {
	Amount int64
}

func (FixedOff) Kind() string { return "fixed" }

func (f FixedOff) apply(base int64) Contribution {
	return Contribution{Amount: clamp(f.Amount, base)}
}

// FreeShipping waives delivery and contributes no monetary amount.
type FreeShipping struct{}

func (FreeShipping) Kind() string { return "free_shipping" }

func (FreeShipping) apply(int64) Contribution {
	return Contribution{FreeShipping: true}
}

// PointsMultiplier scales loyalty accrual for the order.
type PointsMultiplier struct {
	Factor decimal.Decimal
}

func (PointsMultiplier) Kind() string { return "points_multiplier" }

func (m PointsMultiplier) apply(int64) Contribution {
	return Contribution{PointsMultiplier: m.Factor}
}

// BuyOneGetOne is approximated as half of the base. It does not pair line
// items.
type BuyOneGetOne struct{}

func (BuyOneGetOne) Kind() string { return "bogo" }

func (BuyOneGetOne) apply(base int64) Contribution {
	return PercentageOff{Percent: decimal.NewFromInt(50)}.apply(base)
}

// Deferred is a reward fulfilled after the order (cashback, free product).
// It is recorded on the result but worth nothing at checkout.
type Deferred struct {
	RewardType RewardType
}

func (d Deferred) Kind() string { return string(d.RewardType) }

func (Deferred) apply(int64) Contribution {
	return Contribution{}
}

// NoDiscount stands in for a stored type this build does not know.
type NoDiscount struct {
	StoredType string
}

func (NoDiscount) Kind() string { return "none" }

func (NoDiscount) apply(int64) Contribution {
	return Contribution{}
}

func clamp(amount, base int64) int64 {
	if amount < 0 {
		return 0
	}
	return min(amount, base)
}
