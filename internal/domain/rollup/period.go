package rollup

import (
	"time"

	"github.com/vendasys/backend/internal/domain/shared"
)

// Period key layouts. A month key is "YYYYMM", a year key is "YYYY",
// both derived from the business date of the transaction, never from
// processing time.
const (
	monthKeyLayout = "200601"
	yearKeyLayout  = "2006"
)

// MonthKey derives the "YYYYMM" period key from a business date.
// A zero date fails fast instead of silently defaulting to "now".
func MonthKey(date time.Time) (string, error) {
	if date.IsZero() {
		return "", shared.ErrInvalidPeriod
	}
	return date.Format(monthKeyLayout), nil
}

// YearKey derives the "YYYY" period key from a business date.
func YearKey(date time.Time) (string, error) {
	if date.IsZero() {
		return "", shared.ErrInvalidPeriod
	}
	return date.Format(yearKeyLayout), nil
}

// PeriodKeys derives both keys from one business date.
func PeriodKeys(date time.Time) (ym string, year string, err error) {
	ym, err = MonthKey(date)
	if err != nil {
		return "", "", err
	}
	return ym, ym[:4], nil
}

// ValidMonthKey reports whether ym is a well-formed "YYYYMM" key.
func ValidMonthKey(ym string) bool {
	if len(ym) != 6 {
		return false
	}
	_, err := time.Parse(monthKeyLayout, ym)
	return err == nil
}

// ValidYearKey reports whether year is a well-formed "YYYY" key.
func ValidYearKey(year string) bool {
	if len(year) != 4 {
		return false
	}
	_, err := time.Parse(yearKeyLayout, year)
	return err == nil
}

// YearOfMonthKey extracts the "YYYY" prefix of a month key.
func YearOfMonthKey(ym string) (string, error) {
	if !ValidMonthKey(ym) {
		return "", shared.ErrInvalidPeriod
	}
	return ym[:4], nil
}
