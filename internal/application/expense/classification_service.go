package expense

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendasys/backend/internal/domain/rollup"
	"github.com/vendasys/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ApplyOptions controls the repair passes that follow a classification delta.
// Both passes run as separate round trips after the pipelined increments and
// can race with concurrent deltas; they repair a transient display anomaly,
// never the ledger.
type ApplyOptions struct {
	// ClampTotalsAtZero resets the four running totals to zero when a
	// reversal drove them negative.
	ClampTotalsAtZero bool
	// PruneZeroMembers drops the touched members from the ranked aggregates
	// once their score reaches zero or below. Dictionary entries survive.
	PruneZeroMembers bool
}

// RankedItem is one entry of a classification breakdown, highest value first.
type RankedItem struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	CategoryID string  `json:"category_id,omitempty"`
	Value      float64 `json:"value"`
	Percent    float64 `json:"percent"`
}

// Breakdown is a ranked classification listing with its running total.
type Breakdown struct {
	Total float64      `json:"total"`
	Items []RankedItem `json:"items"`
}

// classDictEntry is the stored dictionary blob for a sub-classification.
type classDictEntry struct {
	Name       string `json:"name"`
	CategoryID string `json:"category_id,omitempty"`
}

// ClassificationService maintains the per-period classification aggregates:
// authoritative rows in the ledger, plus ranked month/year aggregates,
// running totals, and name dictionaries in the aggregation cache. Ledger
// writes are strict; cache maintenance is best-effort and rebuildable.
type ClassificationService struct {
	ledger rollup.ExpenseLedgerRepository
	cache  rollup.RankingStore
	logger *zap.Logger
}

// NewClassificationService creates a new ClassificationService
func NewClassificationService(ledger rollup.ExpenseLedgerRepository, cache rollup.RankingStore, logger *zap.Logger) *ClassificationService {
	return &ClassificationService{
		ledger: ledger,
		cache:  cache,
		logger: logger,
	}
}

// Classify attributes a realized amount to one classification leaf: the
// ledger row accumulates strictly, then the cache aggregates follow. A cache
// failure leaves the aggregates stale and is logged, not returned.
func (s *ClassificationService) Classify(ctx context.Context, partnerID uuid.UUID, date time.Time, c rollup.Classification, amount decimal.Decimal) error {
	ym, err := s.validate(partnerID, date, c, amount)
	if err != nil {
		return err
	}

	if err := s.ledger.AccumulateClassification(ctx, partnerID, ym, c, amount); err != nil {
		return err
	}
	s.logger.Info("expense classification accumulated",
		zap.String("partner_id", partnerID.String()),
		zap.String("ym", ym),
		zap.String("scheme", string(c.Scheme)),
		zap.String("sub_category_id", c.SubCategoryID),
		zap.String("amount", amount.String()),
	)

	if err := s.ApplyDelta(ctx, partnerID, ym, c, amount, ApplyOptions{}); err != nil {
		s.logCacheFailure("classification cache update failed", partnerID, ym, err)
	}
	return nil
}

// RemoveClassification is the symmetric inverse of Classify: the ledger row
// accumulates the negated amount (clamped at zero), the cache applies the
// negated delta with clamping and without touching the dictionaries.
func (s *ClassificationService) RemoveClassification(ctx context.Context, partnerID uuid.UUID, date time.Time, c rollup.Classification, amount decimal.Decimal) error {
	ym, err := s.validate(partnerID, date, c, amount)
	if err != nil {
		return err
	}

	if err := s.ledger.AccumulateClassification(ctx, partnerID, ym, c, amount.Neg()); err != nil {
		return err
	}

	if err := s.RemoveDelta(ctx, partnerID, ym, c, amount); err != nil {
		s.logCacheFailure("classification cache removal failed", partnerID, ym, err)
	}
	return nil
}

// ApplyDelta applies one signed classification delta to the cache aggregates:
// the sub-class and category scores of both the month and the year, and the
// four paired totals, all in one pipelined batch. Display names, when
// supplied, are upserted last-wins into the global dictionaries. The clamp
// and prune options run afterwards as best-effort repair passes.
func (s *ClassificationService) ApplyDelta(ctx context.Context, partnerID uuid.UUID, ym string, c rollup.Classification, amount decimal.Decimal, opts ApplyOptions) error {
	if amount.IsZero() {
		return nil
	}
	year, err := rollup.YearOfMonthKey(ym)
	if err != nil {
		return err
	}
	delta := amount.InexactFloat64()

	classMonth := rollup.ClassMonthKey(c.Scheme, partnerID, ym)
	classYear := rollup.ClassYearKey(c.Scheme, partnerID, year)
	catMonth := rollup.CategoryMonthKey(c.Scheme, partnerID, ym)
	catYear := rollup.CategoryYearKey(c.Scheme, partnerID, year)

	batch := rollup.DeltaBatch{
		Scores: []rollup.ScoreIncrement{
			{Key: classMonth, Member: c.SubCategoryID, Delta: delta},
			{Key: classYear, Member: c.SubCategoryID, Delta: delta},
			{Key: catMonth, Member: c.CategoryID, Delta: delta},
			{Key: catYear, Member: c.CategoryID, Delta: delta},
		},
		Counters: []rollup.CounterIncrement{
			{Key: rollup.TotalKey(classMonth), Delta: delta},
			{Key: rollup.TotalKey(classYear), Delta: delta},
			{Key: rollup.TotalKey(catMonth), Delta: delta},
			{Key: rollup.TotalKey(catYear), Delta: delta},
		},
	}
	if c.SubCategoryName != "" {
		blob, err := json.Marshal(classDictEntry{Name: c.SubCategoryName, CategoryID: c.CategoryID})
		if err != nil {
			return err
		}
		batch.Dict = append(batch.Dict, rollup.DictWrite{
			Key:   rollup.ClassDictKey(c.Scheme),
			Field: c.SubCategoryID,
			Value: string(blob),
		})
	}
	if c.CategoryName != "" {
		blob, err := json.Marshal(classDictEntry{Name: c.CategoryName})
		if err != nil {
			return err
		}
		batch.Dict = append(batch.Dict, rollup.DictWrite{
			Key:   rollup.CategoryDictKey(c.Scheme),
			Field: c.CategoryID,
			Value: string(blob),
		})
	}

	if err := s.cache.Apply(ctx, batch); err != nil {
		return err
	}

	if opts.ClampTotalsAtZero {
		for _, key := range []string{
			rollup.TotalKey(classMonth), rollup.TotalKey(classYear),
			rollup.TotalKey(catMonth), rollup.TotalKey(catYear),
		} {
			if err := s.clampTotal(ctx, key); err != nil {
				return err
			}
		}
	}
	if opts.PruneZeroMembers {
		prunes := []struct{ key, member string }{
			{classMonth, c.SubCategoryID},
			{classYear, c.SubCategoryID},
			{catMonth, c.CategoryID},
			{catYear, c.CategoryID},
		}
		for _, p := range prunes {
			if err := s.pruneIfZero(ctx, p.key, p.member); err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveDelta reverses a classification delta in the cache: the negated
// amount with clamping enabled, pruning disabled, and no name writes.
func (s *ClassificationService) RemoveDelta(ctx context.Context, partnerID uuid.UUID, ym string, c rollup.Classification, amount decimal.Decimal) error {
	stripped := rollup.Classification{
		Scheme:        c.Scheme,
		CategoryID:    c.CategoryID,
		SubCategoryID: c.SubCategoryID,
	}
	return s.ApplyDelta(ctx, partnerID, ym, stripped, amount.Neg(), ApplyOptions{
		ClampTotalsAtZero: true,
		PruneZeroMembers:  false,
	})
}

// ClassesOfMonth returns the month's ranked sub-classification breakdown.
func (s *ClassificationService) ClassesOfMonth(ctx context.Context, partnerID uuid.UUID, ym string, scheme rollup.ClassificationScheme) (*Breakdown, error) {
	if !rollup.ValidMonthKey(ym) {
		return nil, shared.ErrInvalidPeriod
	}
	key := rollup.ClassMonthKey(scheme, partnerID, ym)
	return s.readBreakdown(ctx, key, rollup.ClassDictKey(scheme), true)
}

// ClassesOfYear returns the year's ranked sub-classification breakdown.
func (s *ClassificationService) ClassesOfYear(ctx context.Context, partnerID uuid.UUID, year string, scheme rollup.ClassificationScheme) (*Breakdown, error) {
	if !rollup.ValidYearKey(year) {
		return nil, shared.ErrInvalidPeriod
	}
	key := rollup.ClassYearKey(scheme, partnerID, year)
	return s.readBreakdown(ctx, key, rollup.ClassDictKey(scheme), true)
}

// CategoriesOfMonth returns the month's ranked category breakdown.
func (s *ClassificationService) CategoriesOfMonth(ctx context.Context, partnerID uuid.UUID, ym string, scheme rollup.ClassificationScheme) (*Breakdown, error) {
	if !rollup.ValidMonthKey(ym) {
		return nil, shared.ErrInvalidPeriod
	}
	key := rollup.CategoryMonthKey(scheme, partnerID, ym)
	return s.readBreakdown(ctx, key, rollup.CategoryDictKey(scheme), false)
}

// CategoriesOfYear returns the year's ranked category breakdown.
func (s *ClassificationService) CategoriesOfYear(ctx context.Context, partnerID uuid.UUID, year string, scheme rollup.ClassificationScheme) (*Breakdown, error) {
	if !rollup.ValidYearKey(year) {
		return nil, shared.ErrInvalidPeriod
	}
	key := rollup.CategoryYearKey(scheme, partnerID, year)
	return s.readBreakdown(ctx, key, rollup.CategoryDictKey(scheme), false)
}

// RebuildMonth recomputes the month's ranked aggregates and totals from the
// ledger, replacing whatever the cache held. Dictionaries are left untouched:
// names survive a rebuild the same way they survive a decrement to zero.
func (s *ClassificationService) RebuildMonth(ctx context.Context, partnerID uuid.UUID, ym string, scheme rollup.ClassificationScheme) error {
	if !rollup.ValidMonthKey(ym) {
		return shared.ErrInvalidPeriod
	}
	rows, err := s.ledger.ClassificationsOfMonth(ctx, partnerID, ym, scheme)
	if err != nil {
		return err
	}

	classKey := rollup.ClassMonthKey(scheme, partnerID, ym)
	catKey := rollup.CategoryMonthKey(scheme, partnerID, ym)
	if err := s.cache.Delete(ctx, classKey, rollup.TotalKey(classKey), catKey, rollup.TotalKey(catKey)); err != nil {
		return err
	}

	batch := rollup.DeltaBatch{}
	var total float64
	categories := make(map[string]float64)
	for _, row := range rows {
		value := row.Realized.InexactFloat64()
		batch.Scores = append(batch.Scores, rollup.ScoreIncrement{
			Key: classKey, Member: row.SubCategoryID, Delta: value,
		})
		categories[row.CategoryID] += value
		total += value
	}
	for categoryID, value := range categories {
		batch.Scores = append(batch.Scores, rollup.ScoreIncrement{
			Key: catKey, Member: categoryID, Delta: value,
		})
	}
	batch.Counters = []rollup.CounterIncrement{
		{Key: rollup.TotalKey(classKey), Delta: total},
		{Key: rollup.TotalKey(catKey), Delta: total},
	}
	if err := s.cache.Apply(ctx, batch); err != nil {
		return err
	}

	s.logger.Info("classification cache month rebuilt",
		zap.String("partner_id", partnerID.String()),
		zap.String("ym", ym),
		zap.String("scheme", string(scheme)),
		zap.Int("rows", len(rows)),
	)
	return nil
}

// RebuildYear recomputes the year's ranked aggregates from the twelve months
// of ledger rows.
func (s *ClassificationService) RebuildYear(ctx context.Context, partnerID uuid.UUID, year string, scheme rollup.ClassificationScheme) error {
	if !rollup.ValidYearKey(year) {
		return shared.ErrInvalidPeriod
	}

	classKey := rollup.ClassYearKey(scheme, partnerID, year)
	catKey := rollup.CategoryYearKey(scheme, partnerID, year)
	if err := s.cache.Delete(ctx, classKey, rollup.TotalKey(classKey), catKey, rollup.TotalKey(catKey)); err != nil {
		return err
	}

	batch := rollup.DeltaBatch{}
	var total float64
	classes := make(map[string]float64)
	categories := make(map[string]float64)
	for month := 1; month <= 12; month++ {
		ym := fmt.Sprintf("%s%02d", year, month)
		rows, err := s.ledger.ClassificationsOfMonth(ctx, partnerID, ym, scheme)
		if err != nil {
			return err
		}
		for _, row := range rows {
			value := row.Realized.InexactFloat64()
			classes[row.SubCategoryID] += value
			categories[row.CategoryID] += value
			total += value
		}
	}
	for subCategoryID, value := range classes {
		batch.Scores = append(batch.Scores, rollup.ScoreIncrement{Key: classKey, Member: subCategoryID, Delta: value})
	}
	for categoryID, value := range categories {
		batch.Scores = append(batch.Scores, rollup.ScoreIncrement{Key: catKey, Member: categoryID, Delta: value})
	}
	batch.Counters = []rollup.CounterIncrement{
		{Key: rollup.TotalKey(classKey), Delta: total},
		{Key: rollup.TotalKey(catKey), Delta: total},
	}
	if err := s.cache.Apply(ctx, batch); err != nil {
		return err
	}

	s.logger.Info("classification cache year rebuilt",
		zap.String("partner_id", partnerID.String()),
		zap.String("year", year),
		zap.String("scheme", string(scheme)),
	)
	return nil
}

// readBreakdown assembles a ranked listing from one aggregate key, resolving
// names through the dictionary. Members without a dictionary entry keep an
// empty name rather than being dropped.
func (s *ClassificationService) readBreakdown(ctx context.Context, key, dictKey string, withCategory bool) (*Breakdown, error) {
	members, err := s.cache.RangeDesc(ctx, key)
	if err != nil {
		return nil, err
	}
	total, err := s.cache.Total(ctx, rollup.TotalKey(key))
	if err != nil {
		return nil, err
	}

	fields := make([]string, len(members))
	for i, m := range members {
		fields[i] = m.Member
	}
	dict, err := s.cache.DictEntries(ctx, dictKey, fields...)
	if err != nil {
		return nil, err
	}

	items := make([]RankedItem, len(members))
	for i, m := range members {
		item := RankedItem{ID: m.Member, Value: m.Score}
		if total > 0 {
			item.Percent = m.Score / total
		}
		if blob, ok := dict[m.Member]; ok {
			var entry classDictEntry
			if err := json.Unmarshal([]byte(blob), &entry); err == nil {
				item.Name = entry.Name
				if withCategory {
					item.CategoryID = entry.CategoryID
				}
			}
		}
		items[i] = item
	}
	return &Breakdown{Total: total, Items: items}, nil
}

func (s *ClassificationService) clampTotal(ctx context.Context, key string) error {
	total, err := s.cache.Total(ctx, key)
	if err != nil {
		return err
	}
	if total < 0 {
		return s.cache.SetTotal(ctx, key, 0)
	}
	return nil
}

func (s *ClassificationService) pruneIfZero(ctx context.Context, key, member string) error {
	score, found, err := s.cache.Score(ctx, key, member)
	if err != nil {
		return err
	}
	if found && score <= 0 {
		return s.cache.RemoveMembers(ctx, key, member)
	}
	return nil
}

func (s *ClassificationService) validate(partnerID uuid.UUID, date time.Time, c rollup.Classification, amount decimal.Decimal) (string, error) {
	if partnerID == uuid.Nil || c.CategoryID == "" || c.SubCategoryID == "" {
		return "", shared.ErrInvalidInput
	}
	if !c.Scheme.Valid() {
		return "", shared.ErrInvalidInput
	}
	if amount.Sign() <= 0 {
		return "", shared.ErrInvalidAmount
	}
	return rollup.MonthKey(date)
}

func (s *ClassificationService) logCacheFailure(msg string, partnerID uuid.UUID, ym string, err error) {
	s.logger.Warn(msg,
		zap.String("partner_id", partnerID.String()),
		zap.String("ym", ym),
		zap.Error(err),
	)
}
