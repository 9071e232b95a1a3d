package sales

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendasys/backend/internal/domain/rollup"
	"github.com/vendasys/backend/internal/domain/shared"
	"github.com/vendasys/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// fakeSalesLedger is an in-memory stand-in for the relational sales ledger
// with the same accumulate/clamp semantics.
type fakeSalesLedger struct {
	monthly map[string]*rollup.SaleMonthlyTotal
	byType  map[string]*rollup.SaleMonthlyByType
}

func newFakeSalesLedger() *fakeSalesLedger {
	return &fakeSalesLedger{
		monthly: make(map[string]*rollup.SaleMonthlyTotal),
		byType:  make(map[string]*rollup.SaleMonthlyByType),
	}
}

func (f *fakeSalesLedger) Accumulate(_ context.Context, partnerID uuid.UUID, ym string, saleType rollup.SaleType, delta rollup.SalesDelta) error {
	mKey := partnerID.String() + ":" + ym
	row, ok := f.monthly[mKey]
	if !ok {
		row = &rollup.SaleMonthlyTotal{PartnerID: partnerID, Month: ym, TotalAmount: decimal.Zero, DiscountTotal: decimal.Zero}
		f.monthly[mKey] = row
	}
	row.TotalAmount = clampDec(row.TotalAmount.Add(delta.TotalAmount))
	row.Quantity = clampInt(row.Quantity + delta.Quantity)
	row.DiscountTotal = clampDec(row.DiscountTotal.Add(delta.DiscountTotal))
	row.DiscountCount = clampInt(row.DiscountCount + delta.DiscountCount)

	tKey := mKey + ":" + string(saleType)
	typed, ok := f.byType[tKey]
	if !ok {
		typed = &rollup.SaleMonthlyByType{PartnerID: partnerID, Month: ym, Type: saleType, TotalAmount: decimal.Zero}
		f.byType[tKey] = typed
	}
	typed.TotalAmount = clampDec(typed.TotalAmount.Add(delta.TotalAmount))
	typed.Quantity = clampInt(typed.Quantity + delta.Quantity)
	return nil
}

func (f *fakeSalesLedger) GetMonthly(_ context.Context, partnerID uuid.UUID, ym string) (*rollup.SaleMonthlyTotal, error) {
	row, ok := f.monthly[partnerID.String()+":"+ym]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeSalesLedger) TypesOfMonth(_ context.Context, partnerID uuid.UUID, ym string) ([]rollup.SaleMonthlyByType, error) {
	var rows []rollup.SaleMonthlyByType
	for _, row := range f.byType {
		if row.PartnerID == partnerID && row.Month == ym {
			rows = append(rows, *row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TotalAmount.GreaterThan(rows[j].TotalAmount) })
	return rows, nil
}

func (f *fakeSalesLedger) MonthsOfYear(_ context.Context, partnerID uuid.UUID, year string) ([]rollup.SaleMonthlyTotal, error) {
	var rows []rollup.SaleMonthlyTotal
	for _, row := range f.monthly {
		if row.PartnerID == partnerID && strings.HasPrefix(row.Month, year) {
			rows = append(rows, *row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows, nil
}

func (f *fakeSalesLedger) TypesOfYear(_ context.Context, partnerID uuid.UUID, year string) ([]rollup.SaleMonthlyByType, error) {
	byType := make(map[rollup.SaleType]*rollup.SaleMonthlyByType)
	for _, row := range f.byType {
		if row.PartnerID != partnerID || !strings.HasPrefix(row.Month, year) {
			continue
		}
		agg, ok := byType[row.Type]
		if !ok {
			agg = &rollup.SaleMonthlyByType{PartnerID: partnerID, Month: year, Type: row.Type, TotalAmount: decimal.Zero}
			byType[row.Type] = agg
		}
		agg.TotalAmount = agg.TotalAmount.Add(row.TotalAmount)
		agg.Quantity += row.Quantity
	}
	var rows []rollup.SaleMonthlyByType
	for _, agg := range byType {
		rows = append(rows, *agg)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TotalAmount.GreaterThan(rows[j].TotalAmount) })
	return rows, nil
}

func (f *fakeSalesLedger) MonthKeys(_ context.Context, partnerID uuid.UUID) ([]string, error) {
	var keys []string
	for _, row := range f.monthly {
		if row.PartnerID == partnerID {
			keys = append(keys, row.Month)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func clampDec(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.Zero
	}
	return d
}

func clampInt(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

var _ rollup.SalesLedgerRepository = (*fakeSalesLedger)(nil)

func newRollupService() (*RollupService, *fakeSalesLedger, *cache.InMemorySummaryStore) {
	ledger := newFakeSalesLedger()
	summaries := cache.NewInMemorySummaryStore()
	return NewRollupService(ledger, summaries, zap.NewNop()), ledger, summaries
}

func saleDate(t *testing.T, value string) time.Time {
	t.Helper()
	date, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return date
}

func money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestRollupService_RegisterThenRevertRestoresState(t *testing.T) {
	svc, ledger, _ := newRollupService()
	ctx := context.Background()
	partnerID := uuid.New()
	date := saleDate(t, "2024-03-10")

	require.NoError(t, svc.RegisterConfirmed(ctx, partnerID, date, rollup.SaleTypeDirect, money(t, "200"), money(t, "20")))
	require.NoError(t, svc.RevertConfirmed(ctx, partnerID, date, rollup.SaleTypeDirect, money(t, "200"), money(t, "20")))

	row, err := ledger.GetMonthly(ctx, partnerID, "202403")
	require.NoError(t, err)
	assert.True(t, row.TotalAmount.IsZero())
	assert.Equal(t, int64(0), row.Quantity)
	assert.True(t, row.DiscountTotal.IsZero())
	assert.Equal(t, int64(0), row.DiscountCount)

	types, err := ledger.TypesOfMonth(ctx, partnerID, "202403")
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.True(t, types[0].TotalAmount.IsZero())
	assert.Equal(t, int64(0), types[0].Quantity)
}

func TestRollupService_DiscountCountOnlyWhenDiscounted(t *testing.T) {
	svc, ledger, _ := newRollupService()
	ctx := context.Background()
	partnerID := uuid.New()
	date := saleDate(t, "2024-03-10")

	require.NoError(t, svc.RegisterConfirmed(ctx, partnerID, date, rollup.SaleTypeDirect, money(t, "100"), money(t, "10")))
	require.NoError(t, svc.RegisterConfirmed(ctx, partnerID, date, rollup.SaleTypeDirect, money(t, "100"), decimal.Zero))

	row, err := ledger.GetMonthly(ctx, partnerID, "202403")
	require.NoError(t, err)
	assert.Equal(t, int64(2), row.Quantity)
	assert.Equal(t, int64(1), row.DiscountCount, "zero-discount sales do not count as discounted")
	assert.True(t, row.DiscountTotal.Equal(money(t, "10")))
}

func TestRollupService_GetMonthlyCacheAside(t *testing.T) {
	svc, _, summaries := newRollupService()
	ctx := context.Background()
	partnerID := uuid.New()
	date := saleDate(t, "2024-03-10")

	require.NoError(t, svc.RegisterConfirmed(ctx, partnerID, date, rollup.SaleTypeDirect, money(t, "150"), money(t, "10")))
	require.NoError(t, svc.RegisterConfirmed(ctx, partnerID, date, rollup.SaleTypeGift, money(t, "50"), decimal.Zero))

	// the deltas already populated the snapshot
	blob, err := summaries.Get(ctx, rollup.SalesMonthSummaryKey(partnerID, "202403"))
	require.NoError(t, err)
	require.NotNil(t, blob)

	summary, err := svc.GetMonthly(ctx, partnerID, "202403")
	require.NoError(t, err)
	assert.True(t, summary.TotalAmount.Equal(money(t, "200")))
	assert.Equal(t, int64(2), summary.Quantity)
	require.Len(t, summary.Types, 2)
	assert.Equal(t, rollup.SaleTypeDirect, summary.Types[0].Type, "largest type first")

	// a cold cache recomputes from the ledger and repopulates
	require.NoError(t, summaries.Delete(ctx, rollup.SalesMonthSummaryKey(partnerID, "202403")))
	summary, err = svc.GetMonthly(ctx, partnerID, "202403")
	require.NoError(t, err)
	assert.True(t, summary.TotalAmount.Equal(money(t, "200")))

	blob, err = summaries.Get(ctx, rollup.SalesMonthSummaryKey(partnerID, "202403"))
	require.NoError(t, err)
	assert.NotNil(t, blob, "miss repopulates the snapshot")
}

func TestRollupService_GetMonthlyUnknownMonthIsZero(t *testing.T) {
	svc, _, _ := newRollupService()

	summary, err := svc.GetMonthly(context.Background(), uuid.New(), "209901")
	require.NoError(t, err)
	assert.True(t, summary.TotalAmount.IsZero())
	assert.Empty(t, summary.Types)
}

func TestRollupService_GetYearAveragesOverMonthsWithData(t *testing.T) {
	svc, _, _ := newRollupService()
	ctx := context.Background()
	partnerID := uuid.New()

	require.NoError(t, svc.RegisterConfirmed(ctx, partnerID, saleDate(t, "2024-01-10"), rollup.SaleTypeDirect, money(t, "100"), decimal.Zero))
	require.NoError(t, svc.RegisterConfirmed(ctx, partnerID, saleDate(t, "2024-03-10"), rollup.SaleTypeDirect, money(t, "200"), decimal.Zero))

	summary, err := svc.GetYear(ctx, partnerID, "2024")
	require.NoError(t, err)
	assert.True(t, summary.TotalAmount.Equal(money(t, "300")))
	assert.Equal(t, int64(2), summary.Quantity)
	assert.True(t, summary.MonthlyAverage.Equal(money(t, "150")), "average divides by months with data, not twelve")
	require.Len(t, summary.Types, 1)
	assert.True(t, summary.Types[0].TotalAmount.Equal(money(t, "300")))
}

func TestRollupService_GetYearEmptyIsZero(t *testing.T) {
	svc, _, _ := newRollupService()

	summary, err := svc.GetYear(context.Background(), uuid.New(), "2099")
	require.NoError(t, err)
	assert.True(t, summary.TotalAmount.IsZero())
	assert.True(t, summary.MonthlyAverage.IsZero())
	assert.Empty(t, summary.Types)
}

func TestRollupService_GetAvailableYearsDescending(t *testing.T) {
	svc, _, _ := newRollupService()
	ctx := context.Background()
	partnerID := uuid.New()

	require.NoError(t, svc.RegisterConfirmed(ctx, partnerID, saleDate(t, "2023-12-01"), rollup.SaleTypeDirect, money(t, "10"), decimal.Zero))
	require.NoError(t, svc.RegisterConfirmed(ctx, partnerID, saleDate(t, "2024-01-01"), rollup.SaleTypeDirect, money(t, "10"), decimal.Zero))

	years, err := svc.GetAvailableYears(ctx, partnerID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024", "2023"}, years)
}

func TestRollupService_SnapshotRefreshedAfterDelta(t *testing.T) {
	svc, _, summaries := newRollupService()
	ctx := context.Background()
	partnerID := uuid.New()
	date := saleDate(t, "2024-03-10")

	require.NoError(t, svc.RegisterConfirmed(ctx, partnerID, date, rollup.SaleTypeDirect, money(t, "100"), decimal.Zero))

	summary, err := svc.GetMonthly(ctx, partnerID, "202403")
	require.NoError(t, err)
	assert.True(t, summary.TotalAmount.Equal(money(t, "100")))

	// a second delta must replace the stale snapshot, not accumulate on it
	require.NoError(t, svc.RegisterConfirmed(ctx, partnerID, date, rollup.SaleTypeDirect, money(t, "50"), decimal.Zero))

	blob, err := summaries.Get(ctx, rollup.SalesMonthSummaryKey(partnerID, "202403"))
	require.NoError(t, err)
	require.NotNil(t, blob)

	summary, err = svc.GetMonthly(ctx, partnerID, "202403")
	require.NoError(t, err)
	assert.True(t, summary.TotalAmount.Equal(money(t, "150")))

	yearly, err := svc.GetYear(ctx, partnerID, "2024")
	require.NoError(t, err)
	assert.True(t, yearly.TotalAmount.Equal(money(t, "150")), "year snapshot follows the month")
}

func TestRollupService_ValidatesInput(t *testing.T) {
	svc, _, _ := newRollupService()
	ctx := context.Background()
	date := saleDate(t, "2024-03-10")

	err := svc.RegisterConfirmed(ctx, uuid.Nil, date, rollup.SaleTypeDirect, money(t, "10"), decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	err = svc.RegisterConfirmed(ctx, uuid.New(), date, "bogus", money(t, "10"), decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	err = svc.RegisterConfirmed(ctx, uuid.New(), date, rollup.SaleTypeDirect, money(t, "-10"), decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)

	err = svc.RegisterConfirmed(ctx, uuid.New(), time.Time{}, rollup.SaleTypeDirect, money(t, "10"), decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidPeriod)
}
