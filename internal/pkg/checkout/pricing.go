package checkout

import (
	"math"

	"github.com/befree-edtech/befree-backend/app/models"
)

// yearlyDiscountRate is applied to the yearly total when billing yearly.
const yearlyDiscountRate = 0.20

// Pricing is the computed price breakdown for an order.
type Pricing struct {
	BasePrice   float64
	Discount    float64
	TotalAmount float64
}

// ComputePricing derives the order total from the plan base price.
// Monthly: basePrice * quantity. Yearly: basePrice * 12 * quantity with a 20%
// discount on the yearly total, rounded to 2 decimals.
func ComputePricing(basePrice float64, billingCycle string, quantity int) (Pricing, error) {
	if basePrice < 0 {
		return Pricing{}, newValidationError("plan price must not be negative")
	}
	if quantity < 1 {
		quantity = 1
	}

	switch billingCycle {
	case models.BillingCycleMonth:
		return Pricing{
			BasePrice:   basePrice,
			TotalAmount: round2(basePrice * float64(quantity)),
		}, nil
	case models.BillingCycleYear:
		yearly := basePrice * 12 * float64(quantity)
		discount := round2(yearly * yearlyDiscountRate)
		return Pricing{
			BasePrice:   basePrice,
			Discount:    discount,
			TotalAmount: round2(yearly - discount),
		}, nil
	default:
		return Pricing{}, newValidationError("billing cycle must be %q or %q", models.BillingCycleMonth, models.BillingCycleYear)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
