package sales

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendasys/backend/internal/domain/rollup"
	"github.com/vendasys/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TypeSlice is the per-sale-type slice of a sales summary.
type TypeSlice struct {
	Type        rollup.SaleType `json:"tipo"`
	TotalAmount decimal.Decimal `json:"valor_total"`
	Quantity    int64           `json:"quantidade"`
}

// MonthlySummary is the cached month sales summary served to dashboards.
type MonthlySummary struct {
	Month         string          `json:"mes"`
	TotalAmount   decimal.Decimal `json:"valor_total"`
	Quantity      int64           `json:"quantidade"`
	DiscountTotal decimal.Decimal `json:"desconto_total"`
	DiscountCount int64           `json:"desconto_count"`
	Types         []TypeSlice     `json:"tipos"`
}

// YearlySummary is the cached year sales summary. MonthlyAverage divides the
// year total by the number of months that actually carry data.
type YearlySummary struct {
	Year           string          `json:"ano"`
	TotalAmount    decimal.Decimal `json:"valor_total"`
	Quantity       int64           `json:"quantidade"`
	MonthlyAverage decimal.Decimal `json:"media_mensal"`
	DiscountTotal  decimal.Decimal `json:"desconto_total"`
	DiscountCount  int64           `json:"desconto_count"`
	Types          []TypeSlice     `json:"tipos"`
}

// RollupService keeps the monthly sales ledger and its cached summaries in
// sync. Ledger writes are strict and transactional across both sales tables;
// the snapshot recompute that follows runs outside the transaction and is
// best-effort.
type RollupService struct {
	ledger    rollup.SalesLedgerRepository
	summaries rollup.SummaryStore
	logger    *zap.Logger
}

// NewRollupService creates a new RollupService
func NewRollupService(ledger rollup.SalesLedgerRepository, summaries rollup.SummaryStore, logger *zap.Logger) *RollupService {
	return &RollupService{
		ledger:    ledger,
		summaries: summaries,
		logger:    logger,
	}
}

// ApplyDelta applies one signed sales delta to the month of the business
// date, then recomputes the month and year snapshots.
func (s *RollupService) ApplyDelta(ctx context.Context, partnerID uuid.UUID, date time.Time, saleType rollup.SaleType, delta rollup.SalesDelta) error {
	if partnerID == uuid.Nil {
		return shared.ErrInvalidInput
	}
	if !saleType.Valid() {
		return shared.ErrInvalidInput
	}
	ym, year, err := rollup.PeriodKeys(date)
	if err != nil {
		return err
	}
	if delta.IsZero() {
		return nil
	}

	if err := s.ledger.Accumulate(ctx, partnerID, ym, saleType, delta); err != nil {
		return err
	}
	s.logger.Info("sales delta applied",
		zap.String("partner_id", partnerID.String()),
		zap.String("ym", ym),
		zap.String("tipo", string(saleType)),
		zap.String("valor_delta", delta.TotalAmount.String()),
		zap.Int64("quantidade_delta", delta.Quantity),
	)

	s.refreshSnapshots(ctx, partnerID, ym, year)
	return nil
}

// RegisterConfirmed accumulates one confirmed sale: its value, one unit of
// quantity, and the discount statistics when a discount was granted.
func (s *RollupService) RegisterConfirmed(ctx context.Context, partnerID uuid.UUID, date time.Time, saleType rollup.SaleType, totalAmount, discountTotal decimal.Decimal) error {
	delta, err := confirmationDelta(totalAmount, discountTotal)
	if err != nil {
		return err
	}
	return s.ApplyDelta(ctx, partnerID, date, saleType, delta)
}

// RevertConfirmed applies the exact negation of the matching confirmation.
func (s *RollupService) RevertConfirmed(ctx context.Context, partnerID uuid.UUID, date time.Time, saleType rollup.SaleType, totalAmount, discountTotal decimal.Decimal) error {
	delta, err := confirmationDelta(totalAmount, discountTotal)
	if err != nil {
		return err
	}
	return s.ApplyDelta(ctx, partnerID, date, saleType, delta.Negated())
}

// GetMonthly serves the month summary cache-aside: a snapshot hit is
// returned as-is, a miss recomputes from the ledger and repopulates the
// cache with no expiry.
func (s *RollupService) GetMonthly(ctx context.Context, partnerID uuid.UUID, ym string) (*MonthlySummary, error) {
	if partnerID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if !rollup.ValidMonthKey(ym) {
		return nil, shared.ErrInvalidPeriod
	}

	key := rollup.SalesMonthSummaryKey(partnerID, ym)
	if blob := s.readSnapshot(ctx, key); blob != nil {
		var summary MonthlySummary
		if err := json.Unmarshal(blob, &summary); err == nil {
			return &summary, nil
		}
		s.logger.Warn("corrupt sales month snapshot, recomputing from ledger", zap.String("key", key))
	}

	summary, err := s.computeMonthly(ctx, partnerID, ym)
	if err != nil {
		return nil, err
	}
	s.writeSnapshot(ctx, key, summary)
	return summary, nil
}

// GetYear serves the year summary cache-aside, aggregating every month of
// the year from the ledger on a miss.
func (s *RollupService) GetYear(ctx context.Context, partnerID uuid.UUID, year string) (*YearlySummary, error) {
	if partnerID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if !rollup.ValidYearKey(year) {
		return nil, shared.ErrInvalidPeriod
	}

	key := rollup.SalesYearSummaryKey(partnerID, year)
	if blob := s.readSnapshot(ctx, key); blob != nil {
		var summary YearlySummary
		if err := json.Unmarshal(blob, &summary); err == nil {
			return &summary, nil
		}
		s.logger.Warn("corrupt sales year snapshot, recomputing from ledger", zap.String("key", key))
	}

	summary, err := s.computeYearly(ctx, partnerID, year)
	if err != nil {
		return nil, err
	}
	s.writeSnapshot(ctx, key, summary)
	return summary, nil
}

// GetAvailableYears returns every year with at least one month of sales
// data, newest first.
func (s *RollupService) GetAvailableYears(ctx context.Context, partnerID uuid.UUID) ([]string, error) {
	if partnerID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}

	keys, err := s.ledger.MonthKeys(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	years := make([]string, 0, len(keys))
	seen := make(map[string]bool)
	for _, ym := range keys {
		year := ym[:4]
		if !seen[year] {
			seen[year] = true
			years = append(years, year)
		}
	}
	return years, nil
}

func confirmationDelta(totalAmount, discountTotal decimal.Decimal) (rollup.SalesDelta, error) {
	if totalAmount.Sign() < 0 || discountTotal.Sign() < 0 {
		return rollup.SalesDelta{}, shared.ErrInvalidAmount
	}
	delta := rollup.SalesDelta{
		TotalAmount:   totalAmount,
		Quantity:      1,
		DiscountTotal: discountTotal,
	}
	if discountTotal.Sign() > 0 {
		delta.DiscountCount = 1
	}
	return delta, nil
}

func (s *RollupService) computeMonthly(ctx context.Context, partnerID uuid.UUID, ym string) (*MonthlySummary, error) {
	summary := &MonthlySummary{
		Month:         ym,
		TotalAmount:   decimal.Zero,
		DiscountTotal: decimal.Zero,
		Types:         []TypeSlice{},
	}

	row, err := s.ledger.GetMonthly(ctx, partnerID, ym)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if row != nil {
		summary.TotalAmount = row.TotalAmount
		summary.Quantity = row.Quantity
		summary.DiscountTotal = row.DiscountTotal
		summary.DiscountCount = row.DiscountCount
	}

	types, err := s.ledger.TypesOfMonth(ctx, partnerID, ym)
	if err != nil {
		return nil, err
	}
	for _, bt := range types {
		summary.Types = append(summary.Types, TypeSlice{
			Type:        bt.Type,
			TotalAmount: bt.TotalAmount,
			Quantity:    bt.Quantity,
		})
	}
	return summary, nil
}

func (s *RollupService) computeYearly(ctx context.Context, partnerID uuid.UUID, year string) (*YearlySummary, error) {
	summary := &YearlySummary{
		Year:           year,
		TotalAmount:    decimal.Zero,
		MonthlyAverage: decimal.Zero,
		DiscountTotal:  decimal.Zero,
		Types:          []TypeSlice{},
	}

	months, err := s.ledger.MonthsOfYear(ctx, partnerID, year)
	if err != nil {
		return nil, err
	}
	for _, m := range months {
		summary.TotalAmount = summary.TotalAmount.Add(m.TotalAmount)
		summary.Quantity += m.Quantity
		summary.DiscountTotal = summary.DiscountTotal.Add(m.DiscountTotal)
		summary.DiscountCount += m.DiscountCount
	}
	if len(months) > 0 {
		summary.MonthlyAverage = summary.TotalAmount.Div(decimal.NewFromInt(int64(len(months))))
	}

	types, err := s.ledger.TypesOfYear(ctx, partnerID, year)
	if err != nil {
		return nil, err
	}
	for _, bt := range types {
		summary.Types = append(summary.Types, TypeSlice{
			Type:        bt.Type,
			TotalAmount: bt.TotalAmount,
			Quantity:    bt.Quantity,
		})
	}
	return summary, nil
}

// refreshSnapshots recomputes the month and year summaries after a committed
// ledger write. Failures leave the snapshots stale until the next delta.
func (s *RollupService) refreshSnapshots(ctx context.Context, partnerID uuid.UUID, ym, year string) {
	monthly, err := s.computeMonthly(ctx, partnerID, ym)
	if err != nil {
		s.logger.Warn("sales month snapshot recompute failed",
			zap.String("partner_id", partnerID.String()),
			zap.String("ym", ym),
			zap.Error(err),
		)
	} else {
		s.writeSnapshot(ctx, rollup.SalesMonthSummaryKey(partnerID, ym), monthly)
	}

	yearly, err := s.computeYearly(ctx, partnerID, year)
	if err != nil {
		s.logger.Warn("sales year snapshot recompute failed",
			zap.String("partner_id", partnerID.String()),
			zap.String("year", year),
			zap.Error(err),
		)
		return
	}
	s.writeSnapshot(ctx, rollup.SalesYearSummaryKey(partnerID, year), yearly)
}

func (s *RollupService) readSnapshot(ctx context.Context, key string) []byte {
	blob, err := s.summaries.Get(ctx, key)
	if err != nil {
		s.logger.Warn("sales snapshot read failed, recomputing from ledger",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil
	}
	return blob
}

func (s *RollupService) writeSnapshot(ctx context.Context, key string, summary interface{}) {
	blob, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("sales snapshot marshal failed", zap.Error(err))
		return
	}
	if err := s.summaries.Set(ctx, key, blob); err != nil {
		s.logger.Warn("sales snapshot write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
