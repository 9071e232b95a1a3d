package rollup

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestClassificationSchemeValid(t *testing.T) {
	require.True(t, SchemeLegacy.Valid())
	require.True(t, SchemeChartOfAccounts.Valid())
	require.False(t, ClassificationScheme("").Valid())
	require.False(t, ClassificationScheme("tree").Valid())
}
