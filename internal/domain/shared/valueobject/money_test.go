package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	t.Run("empty falls back to store default", func(t *testing.T) {
		c, err := ParseCurrency("")
		require.NoError(t, err)
		assert.Equal(t, USD, c)
	})

	t.Run("accepts known codes", func(t *testing.T) {
		for _, code := range []string{"USD", "EUR", "GBP", "CAD", "AUD"} {
			c, err := ParseCurrency(code)
			require.NoError(t, err)
			assert.Equal(t, Currency(code), c)
		}
	})

	t.Run("rejects unknown code", func(t *testing.T) {
		_, err := ParseCurrency("XBT")
		assert.Error(t, err)
	})
}

func TestMoneyArithmetic(t *testing.T) {
	t.Run("Add sums same-currency amounts", func(t *testing.T) {
		a := NewMoneyUSD(decimal.NewFromFloat(10.50))
		b := NewMoneyUSD(decimal.NewFromFloat(4.50))

		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(15)))
	})

	t.Run("Add rejects mixed currencies", func(t *testing.T) {
		a := NewMoneyUSD(decimal.NewFromInt(1))
		b, err := NewMoney(decimal.NewFromInt(1), EUR)
		require.NoError(t, err)

		_, err = a.Add(b)
		assert.Error(t, err)
	})

	t.Run("Subtract can produce negative amounts", func(t *testing.T) {
		a := NewMoneyUSD(decimal.NewFromInt(5))
		b := NewMoneyUSD(decimal.NewFromInt(8))

		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.True(t, diff.IsNegative())
	})

	t.Run("MultiplyByInt scales per-order commissions", func(t *testing.T) {
		rate := NewMoneyUSD(decimal.NewFromFloat(0.20))
		total := rate.MultiplyByInt(10)
		assert.True(t, total.Amount().Equal(decimal.NewFromInt(2)))
	})

	t.Run("comparisons require matching currency", func(t *testing.T) {
		a := NewMoneyUSD(decimal.NewFromInt(5))
		b, _ := NewMoney(decimal.NewFromInt(5), GBP)

		_, err := a.LessThan(b)
		assert.Error(t, err)
	})
}

func TestMoneyString(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromFloat(10.5))
	assert.Equal(t, "10.50 USD", m.String())
}
