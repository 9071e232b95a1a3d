package expense

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

// DeltaService converts expense business events into signed deltas on the
// monthly expense ledger. The ledger write is strict; the summary snapshot
// refresh that follows each successful write is best-effort and never rolls
// the ledger back.
type DeltaService struct {
	ledger    rollup.ExpenseLedgerRepository
	summaries rollup.SummaryStore
	logger    *zap.Logger
}

// NewDeltaService creates a new DeltaService
func NewDeltaService(ledger rollup.ExpenseLedgerRepository, summaries rollup.SummaryStore, logger *zap.Logger) *DeltaService {
	return &DeltaService{
		ledger:    ledger,
		summaries: summaries,
		logger:    logger,
	}
}

// ApplyNew accumulates a newly created expense into the month of its business
// date: to-pay when the due date is in the future, realized otherwise. The
// row is created on first touch.
func (s *DeltaService) ApplyNew(ctx context.Context, partnerID uuid.UUID, date time.Time, amount decimal.Decimal, isFuture bool) error {
	ym, err := s.validate(partnerID, date, amount)
	if err != nil {
		return err
	}

	toPay, realized := decimal.Zero, decimal.Zero
	if isFuture {
		toPay = amount
	} else {
		realized = amount
	}
	if err := s.ledger.Accumulate(ctx, partnerID, ym, toPay, realized); err != nil {
		return err
	}

	s.logger.Info("expense accumulated",
		zap.String("partner_id", partnerID.String()),
		zap.String("ym", ym),
		zap.String("amount", amount.String()),
		zap.Bool("future", isFuture),
	)
	s.refreshSummary(ctx, partnerID, ym)
	return nil
}

// ApplyPaymentTransition moves an amount from to-pay to realized within the
// same month in a single ledger update, so no reader observes a torn state.
// An unknown (partner, ym) is logged and treated as a no-op.
func (s *DeltaService) ApplyPaymentTransition(ctx context.Context, partnerID uuid.UUID, date time.Time, amount decimal.Decimal) error {
	ym, err := s.validate(partnerID, date, amount)
	if err != nil {
		return err
	}

	found, err := s.ledger.AdjustExisting(ctx, partnerID, ym, amount.Neg(), amount)
	if err != nil {
		return err
	}
	if !found {
		s.warnMissingRow("payment transition", partnerID, ym)
		return nil
	}

	s.logger.Info("expense payment transition applied",
		zap.String("partner_id", partnerID.String()),
		zap.String("ym", ym),
		zap.String("amount", amount.String()),
	)
	s.refreshSummary(ctx, partnerID, ym)
	return nil
}

// ApplyReclassification moves an amount between the to-pay and realized
// buckets according to the old and new due-date states. Identical states
// leave the totals untouched, which is still a valid call.
func (s *DeltaService) ApplyReclassification(ctx context.Context, partnerID uuid.UUID, date time.Time, amount decimal.Decimal, wasFuture, isFuture bool) error {
	ym, err := s.validate(partnerID, date, amount)
	if err != nil {
		return err
	}
	if wasFuture == isFuture {
		s.logger.Debug("expense reclassification without bucket change",
			zap.String("partner_id", partnerID.String()),
			zap.String("ym", ym),
		)
		return nil
	}

	toPay, realized := amount, amount.Neg()
	if wasFuture {
		toPay, realized = amount.Neg(), amount
	}
	found, err := s.ledger.AdjustExisting(ctx, partnerID, ym, toPay, realized)
	if err != nil {
		return err
	}
	if !found {
		s.warnMissingRow("reclassification", partnerID, ym)
		return nil
	}

	s.refreshSummary(ctx, partnerID, ym)
	return nil
}

// ApplyRemoval is the symmetric inverse of ApplyNew: it subtracts the amount
// from the bucket it was accumulated into, clamping at zero. An unknown
// (partner, ym) is logged and treated as a no-op.
func (s *DeltaService) ApplyRemoval(ctx context.Context, partnerID uuid.UUID, date time.Time, amount decimal.Decimal, wasFuture bool) error {
	ym, err := s.validate(partnerID, date, amount)
	if err != nil {
		return err
	}

	toPay, realized := decimal.Zero, decimal.Zero
	if wasFuture {
		toPay = amount.Neg()
	} else {
		realized = amount.Neg()
	}
	found, err := s.ledger.AdjustExisting(ctx, partnerID, ym, toPay, realized)
	if err != nil {
		return err
	}
	if !found {
		s.warnMissingRow("removal", partnerID, ym)
		return nil
	}

	s.logger.Info("expense removal applied",
		zap.String("partner_id", partnerID.String()),
		zap.String("ym", ym),
		zap.String("amount", amount.String()),
		zap.Bool("was_future", wasFuture),
	)
	s.refreshSummary(ctx, partnerID, ym)
	return nil
}

// MonthlySummary serves the month's expense summary cache-aside: a snapshot
// hit is returned as-is, a miss recomputes from the ledger and repopulates
// the cache. A month with no ledger row reads as all-zero.
func (s *DeltaService) MonthlySummary(ctx context.Context, partnerID uuid.UUID, ym string) (*rollup.ExpenseMonthlySummary, error) {
	if partnerID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if !rollup.ValidMonthKey(ym) {
		return nil, shared.ErrInvalidPeriod
	}

	key := rollup.ExpenseMonthSummaryKey(partnerID, ym)
	blob, err := s.summaries.Get(ctx, key)
	if err != nil {
		s.logger.Warn("expense summary cache read failed, recomputing from ledger",
			zap.String("partner_id", partnerID.String()),
			zap.String("ym", ym),
			zap.Error(err),
		)
	} else if blob != nil {
		var summary rollup.ExpenseMonthlySummary
		if err := json.Unmarshal(blob, &summary); err == nil {
			return &summary, nil
		}
		s.logger.Warn("corrupt expense summary snapshot, recomputing from ledger",
			zap.String("key", key),
		)
	}

	summary, err := s.computeSummary(ctx, partnerID, ym)
	if err != nil {
		return nil, err
	}
	s.storeSummary(ctx, partnerID, ym, summary)
	return summary, nil
}

// refreshSummary recomputes the month's snapshot after a committed ledger
// write. Failures leave the cache stale until the next delta and are never
// surfaced to the caller.
func (s *DeltaService) refreshSummary(ctx context.Context, partnerID uuid.UUID, ym string) {
	summary, err := s.computeSummary(ctx, partnerID, ym)
	if err != nil {
		s.logger.Warn("expense summary recompute failed",
			zap.String("partner_id", partnerID.String()),
			zap.String("ym", ym),
			zap.Error(err),
		)
		return
	}
	s.storeSummary(ctx, partnerID, ym, summary)
}

func (s *DeltaService) computeSummary(ctx context.Context, partnerID uuid.UUID, ym string) (*rollup.ExpenseMonthlySummary, error) {
	row, err := s.ledger.GetMonthly(ctx, partnerID, ym)
	if errors.Is(err, shared.ErrNotFound) {
		return &rollup.ExpenseMonthlySummary{Month: ym, ToPay: decimal.Zero, Realized: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	return &rollup.ExpenseMonthlySummary{Month: ym, ToPay: row.ToPay, Realized: row.Realized}, nil
}

func (s *DeltaService) storeSummary(ctx context.Context, partnerID uuid.UUID, ym string, summary *rollup.ExpenseMonthlySummary) {
	blob, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("expense summary marshal failed", zap.Error(err))
		return
	}
	if err := s.summaries.Set(ctx, rollup.ExpenseMonthSummaryKey(partnerID, ym), blob); err != nil {
		s.logger.Warn("expense summary cache write failed",
			zap.String("partner_id", partnerID.String()),
			zap.String("ym", ym),
			zap.Error(err),
		)
	}
}

func (s *DeltaService) validate(partnerID uuid.UUID, date time.Time, amount decimal.Decimal) (string, error) {
	if partnerID == uuid.Nil {
		return "", shared.ErrInvalidInput
	}
	if amount.Sign() <= 0 {
		return "", shared.ErrInvalidAmount
	}
	return rollup.MonthKey(date)
}

func (s *DeltaService) warnMissingRow(operation string, partnerID uuid.UUID, ym string) {
	s.logger.Warn("no ledger row for expense "+operation+", skipping",
		zap.String("partner_id", partnerID.String()),
		zap.String("ym", ym),
	)
}
