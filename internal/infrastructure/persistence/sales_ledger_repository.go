package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendasys/backend/internal/domain/rollup"
	"github.com/vendasys/backend/internal/domain/shared"
	"github.com/vendasys/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesLedgerRepository implements rollup.SalesLedgerRepository using GORM.
// A single delta touches two tables in one transaction: the per-month totals
// and the per-month-per-type breakdown, so readers never observe one without
// the other.
type GormSalesLedgerRepository struct {
	db *gorm.DB
}

// NewGormSalesLedgerRepository creates a new GormSalesLedgerRepository
func NewGormSalesLedgerRepository(db *gorm.DB) *GormSalesLedgerRepository {
	return &GormSalesLedgerRepository{db: db}
}

// Accumulate applies the delta to the monthly totals row and the per-type row atomically
func (r *GormSalesLedgerRepository) Accumulate(ctx context.Context, partnerID uuid.UUID, ym string, saleType rollup.SaleType, delta rollup.SalesDelta) error {
	now := time.Now()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		monthly := models.SaleMonthlyTotalModel{
			PartnerID:     partnerID,
			Month:         ym,
			TotalAmount:   delta.TotalAmount,
			Quantity:      delta.Quantity,
			DiscountTotal: delta.DiscountTotal,
			DiscountCount: delta.DiscountCount,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "partner_id"}, {Name: "ym"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"valor_total":    gorm.Expr("sale_monthly_totals.valor_total + excluded.valor_total"),
				"quantidade":     gorm.Expr("sale_monthly_totals.quantidade + excluded.quantidade"),
				"desconto_total": gorm.Expr("sale_monthly_totals.desconto_total + excluded.desconto_total"),
				"desconto_count": gorm.Expr("sale_monthly_totals.desconto_count + excluded.desconto_count"),
				"updated_at":     now,
			}),
		}).Create(&monthly).Error
		if err != nil {
			return err
		}

		byType := models.SaleMonthlyByTypeModel{
			PartnerID:   partnerID,
			Month:       ym,
			Type:        string(saleType),
			TotalAmount: delta.TotalAmount,
			Quantity:    delta.Quantity,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "partner_id"}, {Name: "ym"}, {Name: "tipo"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"valor_total": gorm.Expr("sale_monthly_by_type.valor_total + excluded.valor_total"),
				"quantidade":  gorm.Expr("sale_monthly_by_type.quantidade + excluded.quantidade"),
				"updated_at":  now,
			}),
		}).Create(&byType).Error
		if err != nil {
			return err
		}

		if err := r.clampMonthly(tx, partnerID, ym); err != nil {
			return err
		}
		return r.clampByType(tx, partnerID, ym, saleType)
	})
}

// GetMonthly returns the totals row for (partner, ym), or shared.ErrNotFound
func (r *GormSalesLedgerRepository) GetMonthly(ctx context.Context, partnerID uuid.UUID, ym string) (*rollup.SaleMonthlyTotal, error) {
	var model models.SaleMonthlyTotalModel
	if err := r.db.WithContext(ctx).
		Where("partner_id = ? AND ym = ?", partnerID, ym).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// TypesOfMonth returns the per-type breakdown of one month, largest amount first
func (r *GormSalesLedgerRepository) TypesOfMonth(ctx context.Context, partnerID uuid.UUID, ym string) ([]rollup.SaleMonthlyByType, error) {
	var rows []models.SaleMonthlyByTypeModel
	if err := r.db.WithContext(ctx).
		Where("partner_id = ? AND ym = ?", partnerID, ym).
		Order("valor_total DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]rollup.SaleMonthlyByType, len(rows))
	for i, row := range rows {
		out[i] = *row.ToDomain()
	}
	return out, nil
}

// MonthsOfYear returns every monthly totals row of one year in calendar order
func (r *GormSalesLedgerRepository) MonthsOfYear(ctx context.Context, partnerID uuid.UUID, year string) ([]rollup.SaleMonthlyTotal, error) {
	var rows []models.SaleMonthlyTotalModel
	if err := r.db.WithContext(ctx).
		Where("partner_id = ? AND ym LIKE ?", partnerID, year+"%").
		Order("ym ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]rollup.SaleMonthlyTotal, len(rows))
	for i, row := range rows {
		out[i] = *row.ToDomain()
	}
	return out, nil
}

// TypesOfYear aggregates the per-type breakdown across a whole year, largest amount first
func (r *GormSalesLedgerRepository) TypesOfYear(ctx context.Context, partnerID uuid.UUID, year string) ([]rollup.SaleMonthlyByType, error) {
	type aggRow struct {
		Type        string          `gorm:"column:tipo"`
		TotalAmount decimal.Decimal `gorm:"column:valor_total"`
		Quantity    int64           `gorm:"column:quantidade"`
	}
	var rows []aggRow
	err := r.db.WithContext(ctx).
		Model(&models.SaleMonthlyByTypeModel{}).
		Select("tipo, SUM(valor_total) AS valor_total, SUM(quantidade) AS quantidade").
		Where("partner_id = ? AND ym LIKE ?", partnerID, year+"%").
		Group("tipo").
		Order("valor_total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]rollup.SaleMonthlyByType, len(rows))
	for i, row := range rows {
		out[i] = rollup.SaleMonthlyByType{
			PartnerID:   partnerID,
			Month:       year,
			Type:        rollup.SaleType(row.Type),
			TotalAmount: row.TotalAmount,
			Quantity:    row.Quantity,
		}
	}
	return out, nil
}

// MonthKeys returns the distinct month keys with sales data, newest first
func (r *GormSalesLedgerRepository) MonthKeys(ctx context.Context, partnerID uuid.UUID) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&models.SaleMonthlyTotalModel{}).
		Distinct("ym").
		Where("partner_id = ?", partnerID).
		Order("ym DESC").
		Pluck("ym", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// clampMonthly resets any totals column driven negative by an over-reversal back to zero
func (r *GormSalesLedgerRepository) clampMonthly(tx *gorm.DB, partnerID uuid.UUID, ym string) error {
	clamps := map[string]interface{}{
		"valor_total":    decimal.Zero,
		"desconto_total": decimal.Zero,
		"quantidade":     int64(0),
		"desconto_count": int64(0),
	}
	for column, zero := range clamps {
		err := tx.Model(&models.SaleMonthlyTotalModel{}).
			Where("partner_id = ? AND ym = ?", partnerID, ym).
			Where(column+" < 0").
			Update(column, zero).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// clampByType resets any by-type column driven negative back to zero
func (r *GormSalesLedgerRepository) clampByType(tx *gorm.DB, partnerID uuid.UUID, ym string, saleType rollup.SaleType) error {
	clamps := map[string]interface{}{
		"valor_total": decimal.Zero,
		"quantidade":  int64(0),
	}
	for column, zero := range clamps {
		err := tx.Model(&models.SaleMonthlyByTypeModel{}).
			Where("partner_id = ? AND ym = ? AND tipo = ?", partnerID, ym, string(saleType)).
			Where(column+" < 0").
			Update(column, zero).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormSalesLedgerRepository implements the interface
var _ rollup.SalesLedgerRepository = (*GormSalesLedgerRepository)(nil)
