package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Run("Seller sale with 20% commission", func(t *testing.T) {
		b := Calculate(1140, decimal.RequireFromString("0.80"), 950, 20)

		assert.Equal(t, int64(760), b.ProviderCostLocal)
		assert.Equal(t, int64(380), b.GrossProfit)
		assert.Equal(t, int64(76), b.Commission)
		assert.Equal(t, int64(304), b.NetProfit)
	})

	t.Run("Public sale without commission", func(t *testing.T) {
		b := Calculate(1140, decimal.RequireFromString("0.80"), 950, 0)

		assert.Equal(t, int64(0), b.Commission)
		assert.Equal(t, b.GrossProfit, b.NetProfit)
	})

	t.Run("Net profit identity holds", func(t *testing.T) {
		cases := []struct {
			sale int64
			cost string
			rate float64
			pct  float64
		}{
			{sale: 999, cost: "0.333", rate: 937.45, pct: 15},
			{sale: 10, cost: "1.25", rate: 950, pct: 33.3},
			{sale: 2500, cost: "0.0047", rate: 912.1, pct: 12.5},
		}

		for _, c := range cases {
			b := Calculate(c.sale, decimal.RequireFromString(c.cost), c.rate, c.pct)
			assert.Equal(t, b.SalePrice-b.ProviderCostLocal, b.GrossProfit)
			assert.Equal(t, b.GrossProfit-b.Commission, b.NetProfit)
		}
	})
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"2.5", 3},
		{"2.4999", 2},
		{"-2.5", -2},
		{"-2.6", -3},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundHalfUp(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestCommission_NegativeGrossProfit(t *testing.T) {
	// Убыточная продажа даёт отрицательную комиссию, как и в отчётах
	assert.Equal(t, int64(-10), Commission(-50, 20))
}

func TestSuggestedSalePrice(t *testing.T) {
	assert.Equal(t, int64(1140), SuggestedSalePrice(decimal.RequireFromString("0.80"), 950))
	assert.Equal(t, int64(1), SuggestedSalePrice(decimal.RequireFromString("0.001"), 950))
}
