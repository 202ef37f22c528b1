package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/registry/models"
	dErrors "folio/pkg/domain-errors"
)

// Pricing fixture: 5000µp/month, 20% off twelve-month terms, names shorter
// than 6 characters cost 10x.
func testPricing() models.Pricing {
	return models.Pricing{
		MonthlyCost:            5000,
		TwelveMonthDiscountPct: 20,
		ShortNameThreshold:     6,
		ShortNameMultiplier:    10,
	}
}

func TestCost(t *testing.T) {
	pricing := testPricing()

	tests := []struct {
		name     string
		months   int
		resName  string
		expected models.Amount
	}{
		{"one month regular", 1, "regular-name", 5000},
		{"twelve months regular, truncating discount", 12, "regular-name", 48000},
		{"one month short name", 1, "short", 50000},
		{"twelve months short name", 12, "short", 480000},
		{"threshold boundary is not short", 1, "sixsix", 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, err := Cost(pricing, tt.months, tt.resName)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cost)
		})
	}
}

func TestCost_InvalidTerm(t *testing.T) {
	for _, months := range []int{0, -1, 2, 6, 24} {
		_, err := Cost(testPricing(), months, "whatever")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTerm), "months=%d", months)
	}
}

func TestCost_Deterministic(t *testing.T) {
	pricing := testPricing()
	first, err := Cost(pricing, 12, "some-name")
	require.NoError(t, err)
	for range 5 {
		again, err := Cost(pricing, 12, "some-name")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCost_FullDiscountIsFree(t *testing.T) {
	pricing := testPricing()
	pricing.TwelveMonthDiscountPct = 100
	cost, err := Cost(pricing, 12, "regular-name")
	require.NoError(t, err)
	assert.Equal(t, models.Amount(0), cost)
}
