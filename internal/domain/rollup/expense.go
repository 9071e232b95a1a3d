package rollup

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseMonthlyTotal is the authoritative monthly expense rollup row for one
// partner. ToPay accumulates expenses with a future due date, Realized
// accumulates paid/realized expenses. Both fields are kept >= 0: reversals
// drive them toward zero and clamp there, the row itself is never deleted.
type ExpenseMonthlyTotal struct {
	PartnerID uuid.UUID
	Month     string // YYYYMM
	ToPay     decimal.Decimal
	Realized  decimal.Decimal
}

// ClassificationScheme tags which classification shape a total belongs to.
// The legacy shape is a category/sub-category tree; the chart-of-accounts
// shape is an account-group/account pair. Both are maintained independently
// from the same source amount when both are known.
type ClassificationScheme string

const (
	SchemeLegacy          ClassificationScheme = "legacy"
	SchemeChartOfAccounts ClassificationScheme = "coa"
)

// Valid reports whether the scheme is one of the known shapes.
func (s ClassificationScheme) Valid() bool {
	return s == SchemeLegacy || s == SchemeChartOfAccounts
}

// Classification identifies a leaf classification in one scheme, optionally
// carrying display names for the dictionary upsert. Names are metadata only:
// they never participate in ledger writes.
type Classification struct {
	Scheme          ClassificationScheme
	CategoryID      string // legacy: category / coa: account group
	SubCategoryID   string // legacy: sub-category / coa: account
	CategoryName    string
	SubCategoryName string
}

// ExpenseClassificationTotal is one realized-amount rollup row per leaf
// classification per (partner, month).
type ExpenseClassificationTotal struct {
	PartnerID     uuid.UUID
	Month         string // YYYYMM
	Scheme        ClassificationScheme
	CategoryID    string
	SubCategoryID string
	Realized      decimal.Decimal
}

// ExpenseMonthlySummary is the snapshot shape cached for whole-summary reads.
type ExpenseMonthlySummary struct {
	Month    string          `json:"mes"`
	ToPay    decimal.Decimal `json:"valor_a_pagar"`
	Realized decimal.Decimal `json:"valor_realizado"`
}

// ExpenseLedgerRepository is the authoritative store for expense rollup rows.
// All mutations are signed, accumulate-in-place increments; implementations
// must translate them into atomic column-level updates, not read-modify-write.
type ExpenseLedgerRepository interface {
	// Accumulate upserts-and-increments the (partner, ym) row, creating it
	// with the untouched field at zero when absent. Negative deltas clamp the
	// affected fields at zero.
	Accumulate(ctx context.Context, partnerID uuid.UUID, ym string, toPayDelta, realizedDelta decimal.Decimal) error

	// AdjustExisting applies both deltas to an existing row in a single
	// transaction, clamping at zero, and reports whether a row matched.
	// It never creates a row: reversals and transitions that reference an
	// unknown period are the caller's no-op case.
	AdjustExisting(ctx context.Context, partnerID uuid.UUID, ym string, toPayDelta, realizedDelta decimal.Decimal) (bool, error)

	// GetMonthly returns the row for (partner, ym), or shared.ErrNotFound.
	GetMonthly(ctx context.Context, partnerID uuid.UUID, ym string) (*ExpenseMonthlyTotal, error)

	// AccumulateClassification upserts-and-increments one classification row,
	// clamping the realized amount at zero.
	AccumulateClassification(ctx context.Context, partnerID uuid.UUID, ym string, c Classification, realizedDelta decimal.Decimal) error

	// ClassificationsOfMonth returns all classification rows of one scheme
	// for (partner, ym), used by the cache rebuild maintenance operation.
	ClassificationsOfMonth(ctx context.Context, partnerID uuid.UUID, ym string, scheme ClassificationScheme) ([]ExpenseClassificationTotal, error)
}
