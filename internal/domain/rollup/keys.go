package rollup

import (
	"fmt"

	"github.com/google/uuid"
)

// Cache key layout. Ranked aggregates and totals are partitioned by partner
// and period; the name dictionaries are global so display names survive a
// partner's aggregates going to zero.

// ClassMonthKey is the ranked sub-classification aggregate of one month.
func ClassMonthKey(scheme ClassificationScheme, partnerID uuid.UUID, ym string) string {
	return fmt.Sprintf("exp:cls:m:%s:%s:%s", scheme, partnerID, ym)
}

// ClassYearKey is the ranked sub-classification aggregate of one year.
func ClassYearKey(scheme ClassificationScheme, partnerID uuid.UUID, year string) string {
	return fmt.Sprintf("exp:cls:y:%s:%s:%s", scheme, partnerID, year)
}

// CategoryMonthKey is the ranked category aggregate of one month.
func CategoryMonthKey(scheme ClassificationScheme, partnerID uuid.UUID, ym string) string {
	return fmt.Sprintf("exp:cat:m:%s:%s:%s", scheme, partnerID, ym)
}

// CategoryYearKey is the ranked category aggregate of one year.
func CategoryYearKey(scheme ClassificationScheme, partnerID uuid.UUID, year string) string {
	return fmt.Sprintf("exp:cat:y:%s:%s:%s", scheme, partnerID, year)
}

// TotalKey is the running total counter paired with a ranked aggregate.
func TotalKey(aggregateKey string) string {
	return aggregateKey + ":total"
}

// ClassDictKey is the global sub-classification name dictionary of a scheme.
func ClassDictKey(scheme ClassificationScheme) string {
	return fmt.Sprintf("exp:dict:cls:%s", scheme)
}

// CategoryDictKey is the global category name dictionary of a scheme.
func CategoryDictKey(scheme ClassificationScheme) string {
	return fmt.Sprintf("exp:dict:cat:%s", scheme)
}

// SalesMonthSummaryKey is the snapshot of one month's sales summary.
func SalesMonthSummaryKey(partnerID uuid.UUID, ym string) string {
	return fmt.Sprintf("sales:sum:m:%s:%s", partnerID, ym)
}

// SalesYearSummaryKey is the snapshot of one year's sales summary.
func SalesYearSummaryKey(partnerID uuid.UUID, year string) string {
	return fmt.Sprintf("sales:sum:y:%s:%s", partnerID, year)
}

// ExpenseMonthSummaryKey is the snapshot of one month's expense summary.
func ExpenseMonthSummaryKey(partnerID uuid.UUID, ym string) string {
	return fmt.Sprintf("exp:sum:m:%s:%s", partnerID, ym)
}
