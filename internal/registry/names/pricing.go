package names

import (
	"folio/internal/registry/models"
	dErrors "folio/pkg/domain-errors"
)

// Cost computes the reservation price for a term and name under the given
// pricing configuration. Pure function: integer arithmetic throughout, the
// twelve-month discount truncates, and the short-name multiplier applies to
// the discounted base.
func Cost(pricing models.Pricing, months int, name string) (models.Amount, error) {
	if !models.ValidTerm(months) {
		return 0, dErrors.Newf(dErrors.CodeInvalidTerm, "term must be %d or %d months",
			models.TermOneMonth, models.TermTwelveMonths)
	}
	base := uint64(pricing.MonthlyCost)
	if months == models.TermTwelveMonths {
		base = base * 12 * (100 - pricing.TwelveMonthDiscountPct) / 100
	}
	if len(name) < pricing.ShortNameThreshold {
		base *= pricing.ShortNameMultiplier
	}
	return models.Amount(base), nil
}
