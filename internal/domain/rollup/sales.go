package rollup

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleType is the closed set of sale kinds tracked by the by-type rollup.
type SaleType string

const (
	SaleTypeDirect      SaleType = "direct"
	SaleTypeConditional SaleType = "conditional"
	SaleTypeGift        SaleType = "gift"
	SaleTypeExchange    SaleType = "exchange"
)

// AllSaleTypes returns the closed set of sale types.
func AllSaleTypes() []SaleType {
	return []SaleType{SaleTypeDirect, SaleTypeConditional, SaleTypeGift, SaleTypeExchange}
}

// Valid reports whether t is a known sale type.
func (t SaleType) Valid() bool {
	switch t {
	case SaleTypeDirect, SaleTypeConditional, SaleTypeGift, SaleTypeExchange:
		return true
	}
	return false
}

// SaleMonthlyTotal is the authoritative monthly sales rollup row for one
// partner: value and count totals plus discount statistics.
type SaleMonthlyTotal struct {
	PartnerID     uuid.UUID
	Month         string // YYYYMM
	TotalAmount   decimal.Decimal
	Quantity      int64
	DiscountTotal decimal.Decimal
	DiscountCount int64
}

// SaleMonthlyByType is the per-sale-type slice of the monthly rollup.
type SaleMonthlyByType struct {
	PartnerID   uuid.UUID
	Month       string // YYYYMM
	Type        SaleType
	TotalAmount decimal.Decimal
	Quantity    int64
}

// SalesDelta is the signed effect of one business event on the sales rollup.
// RegisterConfirmed produces it, RevertConfirmed produces its exact negation.
type SalesDelta struct {
	TotalAmount   decimal.Decimal
	Quantity      int64
	DiscountTotal decimal.Decimal
	DiscountCount int64
}

// Negated returns the exact symmetric inverse of the delta.
func (d SalesDelta) Negated() SalesDelta {
	return SalesDelta{
		TotalAmount:   d.TotalAmount.Neg(),
		Quantity:      -d.Quantity,
		DiscountTotal: d.DiscountTotal.Neg(),
		DiscountCount: -d.DiscountCount,
	}
}

// IsZero reports whether the delta would not change any field.
func (d SalesDelta) IsZero() bool {
	return d.TotalAmount.IsZero() && d.Quantity == 0 && d.DiscountTotal.IsZero() && d.DiscountCount == 0
}

// SalesLedgerRepository is the authoritative store for sales rollup rows.
type SalesLedgerRepository interface {
	// Accumulate applies one delta to both the monthly total row and the
	// (month, type) row inside a single transaction, upserting rows on first
	// touch and clamping accumulated values at zero.
	Accumulate(ctx context.Context, partnerID uuid.UUID, ym string, saleType SaleType, delta SalesDelta) error

	// GetMonthly returns the monthly total row, or shared.ErrNotFound.
	GetMonthly(ctx context.Context, partnerID uuid.UUID, ym string) (*SaleMonthlyTotal, error)

	// TypesOfMonth returns the by-type rows of (partner, ym) ordered by
	// total amount descending.
	TypesOfMonth(ctx context.Context, partnerID uuid.UUID, ym string) ([]SaleMonthlyByType, error)

	// MonthsOfYear returns all monthly total rows whose key carries the year
	// prefix, ordered by month ascending.
	MonthsOfYear(ctx context.Context, partnerID uuid.UUID, year string) ([]SaleMonthlyTotal, error)

	// TypesOfYear aggregates the by-type rows across the year, ordered by
	// total amount descending.
	TypesOfYear(ctx context.Context, partnerID uuid.UUID, year string) ([]SaleMonthlyByType, error)

	// MonthKeys returns the distinct month keys with data for the partner,
	// descending.
	MonthKeys(ctx context.Context, partnerID uuid.UUID) ([]string, error)
}
