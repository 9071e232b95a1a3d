package rollup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendasys/backend/internal/domain/shared"
)

func TestMonthKey(t *testing.T) {
	t.Run("derives key from business date", func(t *testing.T) {
		date := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)
		ym, err := MonthKey(date)
		require.NoError(t, err)
		assert.Equal(t, "202401", ym)
	})

	t.Run("pads single digit months", func(t *testing.T) {
		date := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)
		ym, err := MonthKey(date)
		require.NoError(t, err)
		assert.Equal(t, "202303", ym)
	})

	t.Run("rejects zero date instead of defaulting to now", func(t *testing.T) {
		_, err := MonthKey(time.Time{})
		assert.ErrorIs(t, err, shared.ErrInvalidPeriod)
	})
}

func TestYearKey(t *testing.T) {
	date := time.Date(2023, time.December, 31, 23, 59, 59, 0, time.UTC)
	year, err := YearKey(date)
	require.NoError(t, err)
	assert.Equal(t, "2023", year)

	_, err = YearKey(time.Time{})
	assert.ErrorIs(t, err, shared.ErrInvalidPeriod)
}

func TestPeriodKeys(t *testing.T) {
	ym, year, err := PeriodKeys(time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "202402", ym)
	assert.Equal(t, "2024", year)
}

func TestValidMonthKey(t *testing.T) {
	assert.True(t, ValidMonthKey("202401"))
	assert.True(t, ValidMonthKey("199912"))
	assert.False(t, ValidMonthKey("202413"))
	assert.False(t, ValidMonthKey("202400"))
	assert.False(t, ValidMonthKey("2024"))
	assert.False(t, ValidMonthKey("2024-01"))
	assert.False(t, ValidMonthKey(""))
}

func TestValidYearKey(t *testing.T) {
	assert.True(t, ValidYearKey("2024"))
	assert.False(t, ValidYearKey("24"))
	assert.False(t, ValidYearKey("20244"))
	assert.False(t, ValidYearKey("abcd"))
}

func TestYearOfMonthKey(t *testing.T) {
	year, err := YearOfMonthKey("202312")
	require.NoError(t, err)
	assert.Equal(t, "2023", year)

	_, err = YearOfMonthKey("2023")
	assert.ErrorIs(t, err, shared.ErrInvalidPeriod)
}

func TestSalesDeltaNegated(t *testing.T) {
	delta := SalesDelta{
		TotalAmount:   mustDecimal(t, "200"),
		Quantity:      1,
		DiscountTotal: mustDecimal(t, "20"),
		DiscountCount: 1,
	}
	neg := delta.Negated()
	assert.True(t, neg.TotalAmount.Equal(mustDecimal(t, "-200")))
	assert.Equal(t, int64(-1), neg.Quantity)
	assert.True(t, neg.DiscountTotal.Equal(mustDecimal(t, "-20")))
	assert.Equal(t, int64(-1), neg.DiscountCount)

	// Negating twice is the identity.
	back := neg.Negated()
	assert.True(t, back.TotalAmount.Equal(delta.TotalAmount))
	assert.Equal(t, delta.Quantity, back.Quantity)
}

func TestSaleTypeValid(t *testing.T) {
	for _, st := range AllSaleTypes() {
		assert.True(t, st.Valid())
	}
	assert.False(t, SaleType("wholesale").Valid())
	assert.False(t, SaleType("").Valid())
}
