package engine

import "github.com/utafrali/storefront/services/adjustment/internal/domain"

// Discountable is an entity that maps onto one discount variant.
type Discountable interface {
	Discount() domain.Discount
}

// Compute returns what e contributes against base. Eligibility is the
// caller's concern.
func Compute(e Discountable, base int64) domain.Contribution {
	return domain.Apply(e.Discount(), base)
}
