// Package models contains the GORM persistence models for the rollup ledger.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendasys/backend/internal/domain/rollup"
)

// ExpenseMonthlyTotalModel is the ledger row for the monthly expense rollup.
// One row per (partner, ym); created on first delta and never deleted.
type ExpenseMonthlyTotalModel struct {
	PartnerID uuid.UUID       `gorm:"column:partner_id;type:uuid;primaryKey"`
	Month     string          `gorm:"column:ym;size:6;primaryKey"`
	ToPay     decimal.Decimal `gorm:"column:to_pay;type:decimal(20,4);not null;default:0"`
	Realized  decimal.Decimal `gorm:"column:realized;type:decimal(20,4);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

// TableName returns the table name
func (ExpenseMonthlyTotalModel) TableName() string {
	return "expense_monthly_totals"
}

// ToDomain converts the model to the domain entity
func (m *ExpenseMonthlyTotalModel) ToDomain() *rollup.ExpenseMonthlyTotal {
	return &rollup.ExpenseMonthlyTotal{
		PartnerID: m.PartnerID,
		Month:     m.Month,
		ToPay:     m.ToPay,
		Realized:  m.Realized,
	}
}

// ExpenseClassificationTotalModel is one realized-amount rollup row per leaf
// classification per (partner, ym). The scheme column discriminates the
// legacy category tree from the chart-of-accounts shape.
type ExpenseClassificationTotalModel struct {
	PartnerID     uuid.UUID       `gorm:"column:partner_id;type:uuid;primaryKey"`
	Month         string          `gorm:"column:ym;size:6;primaryKey"`
	Scheme        string          `gorm:"column:scheme;size:16;primaryKey"`
	CategoryID    string          `gorm:"column:category_id;size:64;primaryKey"`
	SubCategoryID string          `gorm:"column:sub_category_id;size:64;primaryKey"`
	Realized      decimal.Decimal `gorm:"column:realized;type:decimal(20,4);not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

// TableName returns the table name
func (ExpenseClassificationTotalModel) TableName() string {
	return "expense_classification_totals"
}

// ToDomain converts the model to the domain entity
func (m *ExpenseClassificationTotalModel) ToDomain() *rollup.ExpenseClassificationTotal {
	return &rollup.ExpenseClassificationTotal{
		PartnerID:     m.PartnerID,
		Month:         m.Month,
		Scheme:        rollup.ClassificationScheme(m.Scheme),
		CategoryID:    m.CategoryID,
		SubCategoryID: m.SubCategoryID,
		Realized:      m.Realized,
	}
}

// SaleMonthlyTotalModel is the ledger row for the monthly sales rollup.
type SaleMonthlyTotalModel struct {
	PartnerID     uuid.UUID       `gorm:"column:partner_id;type:uuid;primaryKey"`
	Month         string          `gorm:"column:ym;size:6;primaryKey"`
	TotalAmount   decimal.Decimal `gorm:"column:valor_total;type:decimal(20,4);not null;default:0"`
	Quantity      int64           `gorm:"column:quantidade;not null;default:0"`
	DiscountTotal decimal.Decimal `gorm:"column:desconto_total;type:decimal(20,4);not null;default:0"`
	DiscountCount int64           `gorm:"column:desconto_count;not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

// TableName returns the table name
func (SaleMonthlyTotalModel) TableName() string {
	return "sale_monthly_totals"
}

// ToDomain converts the model to the domain entity
func (m *SaleMonthlyTotalModel) ToDomain() *rollup.SaleMonthlyTotal {
	return &rollup.SaleMonthlyTotal{
		PartnerID:     m.PartnerID,
		Month:         m.Month,
		TotalAmount:   m.TotalAmount,
		Quantity:      m.Quantity,
		DiscountTotal: m.DiscountTotal,
		DiscountCount: m.DiscountCount,
	}
}

// SaleMonthlyByTypeModel is the per-sale-type slice of the monthly rollup.
type SaleMonthlyByTypeModel struct {
	PartnerID   uuid.UUID       `gorm:"column:partner_id;type:uuid;primaryKey"`
	Month       string          `gorm:"column:ym;size:6;primaryKey"`
	Type        string          `gorm:"column:tipo;size:16;primaryKey"`
	TotalAmount decimal.Decimal `gorm:"column:valor_total;type:decimal(20,4);not null;default:0"`
	Quantity    int64           `gorm:"column:quantidade;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

// TableName returns the table name
func (SaleMonthlyByTypeModel) TableName() string {
	return "sale_monthly_by_type"
}

// ToDomain converts the model to the domain entity
func (m *SaleMonthlyByTypeModel) ToDomain() *rollup.SaleMonthlyByType {
	return &rollup.SaleMonthlyByType{
		PartnerID:   m.PartnerID,
		Month:       m.Month,
		Type:        rollup.SaleType(m.Type),
		TotalAmount: m.TotalAmount,
		Quantity:    m.Quantity,
	}
}
