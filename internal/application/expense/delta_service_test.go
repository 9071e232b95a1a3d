package expense

import (
	"context"
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

// fakeExpenseLedger is an in-memory stand-in for the relational ledger with
// the same accumulate/clamp semantics.
type fakeExpenseLedger struct {
	monthly         map[string]*rollup.ExpenseMonthlyTotal
	classifications map[string]*rollup.ExpenseClassificationTotal
}

func newFakeExpenseLedger() *fakeExpenseLedger {
	return &fakeExpenseLedger{
		monthly:         make(map[string]*rollup.ExpenseMonthlyTotal),
		classifications: make(map[string]*rollup.ExpenseClassificationTotal),
	}
}

func monthlyKey(partnerID uuid.UUID, ym string) string {
	return partnerID.String() + ":" + ym
}

func (f *fakeExpenseLedger) Accumulate(_ context.Context, partnerID uuid.UUID, ym string, toPayDelta, realizedDelta decimal.Decimal) error {
	key := monthlyKey(partnerID, ym)
	row, ok := f.monthly[key]
	if !ok {
		row = &rollup.ExpenseMonthlyTotal{PartnerID: partnerID, Month: ym, ToPay: decimal.Zero, Realized: decimal.Zero}
		f.monthly[key] = row
	}
	row.ToPay = clampZero(row.ToPay.Add(toPayDelta))
	row.Realized = clampZero(row.Realized.Add(realizedDelta))
	return nil
}

func (f *fakeExpenseLedger) AdjustExisting(_ context.Context, partnerID uuid.UUID, ym string, toPayDelta, realizedDelta decimal.Decimal) (bool, error) {
	row, ok := f.monthly[monthlyKey(partnerID, ym)]
	if !ok {
		return false, nil
	}
	row.ToPay = clampZero(row.ToPay.Add(toPayDelta))
	row.Realized = clampZero(row.Realized.Add(realizedDelta))
	return true, nil
}

func (f *fakeExpenseLedger) GetMonthly(_ context.Context, partnerID uuid.UUID, ym string) (*rollup.ExpenseMonthlyTotal, error) {
	row, ok := f.monthly[monthlyKey(partnerID, ym)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeExpenseLedger) AccumulateClassification(_ context.Context, partnerID uuid.UUID, ym string, c rollup.Classification, realizedDelta decimal.Decimal) error {
	key := monthlyKey(partnerID, ym) + ":" + string(c.Scheme) + ":" + c.CategoryID + ":" + c.SubCategoryID
	row, ok := f.classifications[key]
	if !ok {
		row = &rollup.ExpenseClassificationTotal{
			PartnerID: partnerID, Month: ym, Scheme: c.Scheme,
			CategoryID: c.CategoryID, SubCategoryID: c.SubCategoryID,
			Realized: decimal.Zero,
		}
		f.classifications[key] = row
	}
	row.Realized = clampZero(row.Realized.Add(realizedDelta))
	return nil
}

func (f *fakeExpenseLedger) ClassificationsOfMonth(_ context.Context, partnerID uuid.UUID, ym string, scheme rollup.ClassificationScheme) ([]rollup.ExpenseClassificationTotal, error) {
	var rows []rollup.ExpenseClassificationTotal
	for _, row := range f.classifications {
		if row.PartnerID == partnerID && row.Month == ym && row.Scheme == scheme {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.Zero
	}
	return d
}

var _ rollup.ExpenseLedgerRepository = (*fakeExpenseLedger)(nil)

func newDeltaService(ledger *fakeExpenseLedger) (*DeltaService, *cache.InMemorySummaryStore) {
	summaries := cache.NewInMemorySummaryStore()
	return NewDeltaService(ledger, summaries, zap.NewNop()), summaries
}

func businessDate(t *testing.T, value string) time.Time {
	t.Helper()
	date, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return date
}

func amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestDeltaService_NewThenPaymentTransition(t *testing.T) {
	ledger := newFakeExpenseLedger()
	svc, _ := newDeltaService(ledger)
	ctx := context.Background()
	partnerID := uuid.New()
	date := businessDate(t, "2024-01-10")

	require.NoError(t, svc.ApplyNew(ctx, partnerID, date, amount(t, "100"), true))
	require.NoError(t, svc.ApplyPaymentTransition(ctx, partnerID, date, amount(t, "100")))

	row, err := ledger.GetMonthly(ctx, partnerID, "202401")
	require.NoError(t, err)
	assert.True(t, row.ToPay.IsZero())
	assert.True(t, row.Realized.Equal(amount(t, "100")))
}

func TestDeltaService_NewRemovalRoundTripIsNeutral(t *testing.T) {
	ledger := newFakeExpenseLedger()
	svc, _ := newDeltaService(ledger)
	ctx := context.Background()
	partnerID := uuid.New()
	date := businessDate(t, "2024-02-05")

	require.NoError(t, svc.ApplyNew(ctx, partnerID, date, amount(t, "75.50"), false))
	require.NoError(t, svc.ApplyRemoval(ctx, partnerID, date, amount(t, "75.50"), false))

	row, err := ledger.GetMonthly(ctx, partnerID, "202402")
	require.NoError(t, err)
	assert.True(t, row.ToPay.IsZero())
	assert.True(t, row.Realized.IsZero())
}

func TestDeltaService_TransitionConservesSum(t *testing.T) {
	ledger := newFakeExpenseLedger()
	svc, _ := newDeltaService(ledger)
	ctx := context.Background()
	partnerID := uuid.New()
	date := businessDate(t, "2024-01-10")

	require.NoError(t, svc.ApplyNew(ctx, partnerID, date, amount(t, "60"), true))
	require.NoError(t, svc.ApplyNew(ctx, partnerID, date, amount(t, "40"), false))

	before, err := ledger.GetMonthly(ctx, partnerID, "202401")
	require.NoError(t, err)
	sumBefore := before.ToPay.Add(before.Realized)

	require.NoError(t, svc.ApplyPaymentTransition(ctx, partnerID, date, amount(t, "25")))

	after, err := ledger.GetMonthly(ctx, partnerID, "202401")
	require.NoError(t, err)
	assert.True(t, after.ToPay.Equal(amount(t, "35")))
	assert.True(t, after.Realized.Equal(amount(t, "65")))
	assert.True(t, after.ToPay.Add(after.Realized).Equal(sumBefore), "transition conserves the sum")
}

func TestDeltaService_ReclassificationSameBucketIsNoop(t *testing.T) {
	ledger := newFakeExpenseLedger()
	svc, _ := newDeltaService(ledger)
	ctx := context.Background()
	partnerID := uuid.New()
	date := businessDate(t, "2024-03-01")

	require.NoError(t, svc.ApplyNew(ctx, partnerID, date, amount(t, "30"), true))
	require.NoError(t, svc.ApplyReclassification(ctx, partnerID, date, amount(t, "30"), true, true))

	row, err := ledger.GetMonthly(ctx, partnerID, "202403")
	require.NoError(t, err)
	assert.True(t, row.ToPay.Equal(amount(t, "30")))
	assert.True(t, row.Realized.IsZero())
}

func TestDeltaService_RemovalOnUnknownPeriodIsNoop(t *testing.T) {
	ledger := newFakeExpenseLedger()
	svc, _ := newDeltaService(ledger)
	ctx := context.Background()

	err := svc.ApplyRemoval(ctx, uuid.New(), businessDate(t, "2024-01-01"), amount(t, "10"), true)
	assert.NoError(t, err, "missing row is a logged no-op, never fatal")
}

func TestDeltaService_OverRemovalClampsAtZero(t *testing.T) {
	ledger := newFakeExpenseLedger()
	svc, _ := newDeltaService(ledger)
	ctx := context.Background()
	partnerID := uuid.New()
	date := businessDate(t, "2024-01-10")

	require.NoError(t, svc.ApplyNew(ctx, partnerID, date, amount(t, "20"), false))
	require.NoError(t, svc.ApplyRemoval(ctx, partnerID, date, amount(t, "20"), false))
	require.NoError(t, svc.ApplyRemoval(ctx, partnerID, date, amount(t, "20"), false))

	row, err := ledger.GetMonthly(ctx, partnerID, "202401")
	require.NoError(t, err)
	assert.True(t, row.Realized.IsZero(), "duplicate removal clamps, never goes negative")
}

func TestDeltaService_RejectsBadInput(t *testing.T) {
	svc, _ := newDeltaService(newFakeExpenseLedger())
	ctx := context.Background()
	date := businessDate(t, "2024-01-10")

	err := svc.ApplyNew(ctx, uuid.Nil, date, amount(t, "10"), true)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	err = svc.ApplyNew(ctx, uuid.New(), date, decimal.Zero, true)
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)

	err = svc.ApplyNew(ctx, uuid.New(), time.Time{}, amount(t, "10"), true)
	assert.ErrorIs(t, err, shared.ErrInvalidPeriod)
}

func TestDeltaService_MonthlySummaryCacheAside(t *testing.T) {
	ledger := newFakeExpenseLedger()
	svc, summaries := newDeltaService(ledger)
	ctx := context.Background()
	partnerID := uuid.New()
	date := businessDate(t, "2024-01-10")

	require.NoError(t, svc.ApplyNew(ctx, partnerID, date, amount(t, "100"), true))

	// the delta already refreshed the snapshot
	blob, err := summaries.Get(ctx, rollup.ExpenseMonthSummaryKey(partnerID, "202401"))
	require.NoError(t, err)
	require.NotNil(t, blob)

	summary, err := svc.MonthlySummary(ctx, partnerID, "202401")
	require.NoError(t, err)
	assert.Equal(t, "202401", summary.Month)
	assert.True(t, summary.ToPay.Equal(amount(t, "100")))

	// a cold cache recomputes from the ledger and repopulates
	require.NoError(t, summaries.Delete(ctx, rollup.ExpenseMonthSummaryKey(partnerID, "202401")))
	summary, err = svc.MonthlySummary(ctx, partnerID, "202401")
	require.NoError(t, err)
	assert.True(t, summary.ToPay.Equal(amount(t, "100")))

	blob, err = summaries.Get(ctx, rollup.ExpenseMonthSummaryKey(partnerID, "202401"))
	require.NoError(t, err)
	assert.NotNil(t, blob, "miss repopulates the snapshot")
}

func TestDeltaService_MonthlySummaryUnknownMonthIsZero(t *testing.T) {
	svc, _ := newDeltaService(newFakeExpenseLedger())

	summary, err := svc.MonthlySummary(context.Background(), uuid.New(), "209901")
	require.NoError(t, err)
	assert.True(t, summary.ToPay.IsZero())
	assert.True(t, summary.Realized.IsZero())
}
