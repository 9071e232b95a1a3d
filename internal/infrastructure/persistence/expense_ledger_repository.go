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

// GormExpenseLedgerRepository implements rollup.ExpenseLedgerRepository using GORM.
// Every mutation is an accumulate-in-place increment issued at the storage
// layer; concurrent deltas for the same (partner, ym) commute without
// application-level locking. Clamping at zero runs as a second statement
// inside the same transaction.
type GormExpenseLedgerRepository struct {
	db *gorm.DB
}

// NewGormExpenseLedgerRepository creates a new GormExpenseLedgerRepository
func NewGormExpenseLedgerRepository(db *gorm.DB) *GormExpenseLedgerRepository {
	return &GormExpenseLedgerRepository{db: db}
}

// Accumulate upserts-and-increments the (partner, ym) row
func (r *GormExpenseLedgerRepository) Accumulate(ctx context.Context, partnerID uuid.UUID, ym string, toPayDelta, realizedDelta decimal.Decimal) error {
	now := time.Now()
	row := models.ExpenseMonthlyTotalModel{
		PartnerID: partnerID,
		Month:     ym,
		ToPay:     toPayDelta,
		Realized:  realizedDelta,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "partner_id"}, {Name: "ym"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"to_pay":     gorm.Expr("expense_monthly_totals.to_pay + excluded.to_pay"),
				"realized":   gorm.Expr("expense_monthly_totals.realized + excluded.realized"),
				"updated_at": now,
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		return r.clampMonthly(tx, partnerID, ym)
	})
}

// AdjustExisting applies both deltas to an existing row, reporting whether a
// row matched. It never creates a row.
func (r *GormExpenseLedgerRepository) AdjustExisting(ctx context.Context, partnerID uuid.UUID, ym string, toPayDelta, realizedDelta decimal.Decimal) (bool, error) {
	var found bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ExpenseMonthlyTotalModel{}).
			Where("partner_id = ? AND ym = ?", partnerID, ym).
			Updates(map[string]interface{}{
				"to_pay":     gorm.Expr("to_pay + ?", toPayDelta),
				"realized":   gorm.Expr("realized + ?", realizedDelta),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		found = true
		return r.clampMonthly(tx, partnerID, ym)
	})
	return found, err
}

// GetMonthly returns the row for (partner, ym), or shared.ErrNotFound
func (r *GormExpenseLedgerRepository) GetMonthly(ctx context.Context, partnerID uuid.UUID, ym string) (*rollup.ExpenseMonthlyTotal, error) {
	var model models.ExpenseMonthlyTotalModel
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

// AccumulateClassification upserts-and-increments one classification row
func (r *GormExpenseLedgerRepository) AccumulateClassification(ctx context.Context, partnerID uuid.UUID, ym string, c rollup.Classification, realizedDelta decimal.Decimal) error {
	now := time.Now()
	row := models.ExpenseClassificationTotalModel{
		PartnerID:     partnerID,
		Month:         ym,
		Scheme:        string(c.Scheme),
		CategoryID:    c.CategoryID,
		SubCategoryID: c.SubCategoryID,
		Realized:      realizedDelta,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "partner_id"}, {Name: "ym"}, {Name: "scheme"},
				{Name: "category_id"}, {Name: "sub_category_id"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"realized":   gorm.Expr("expense_classification_totals.realized + excluded.realized"),
				"updated_at": now,
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.ExpenseClassificationTotalModel{}).
			Where("partner_id = ? AND ym = ? AND scheme = ? AND category_id = ? AND sub_category_id = ? AND realized < 0",
				partnerID, ym, string(c.Scheme), c.CategoryID, c.SubCategoryID).
			Update("realized", decimal.Zero).Error
	})
}

// ClassificationsOfMonth returns all classification rows of one scheme for (partner, ym)
func (r *GormExpenseLedgerRepository) ClassificationsOfMonth(ctx context.Context, partnerID uuid.UUID, ym string, scheme rollup.ClassificationScheme) ([]rollup.ExpenseClassificationTotal, error) {
	var rows []models.ExpenseClassificationTotalModel
	if err := r.db.WithContext(ctx).
		Where("partner_id = ? AND ym = ? AND scheme = ?", partnerID, ym, string(scheme)).
		Order("realized DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	totals := make([]rollup.ExpenseClassificationTotal, len(rows))
	for i, row := range rows {
		totals[i] = *row.ToDomain()
	}
	return totals, nil
}

// clampMonthly resets any field driven negative by an over-reversal back to zero
func (r *GormExpenseLedgerRepository) clampMonthly(tx *gorm.DB, partnerID uuid.UUID, ym string) error {
	if err := tx.Model(&models.ExpenseMonthlyTotalModel{}).
		Where("partner_id = ? AND ym = ? AND to_pay < 0", partnerID, ym).
		Update("to_pay", decimal.Zero).Error; err != nil {
		return err
	}
	return tx.Model(&models.ExpenseMonthlyTotalModel{}).
		Where("partner_id = ? AND ym = ? AND realized < 0", partnerID, ym).
		Update("realized", decimal.Zero).Error
}

// Ensure GormExpenseLedgerRepository implements the interface
var _ rollup.ExpenseLedgerRepository = (*GormExpenseLedgerRepository)(nil)
