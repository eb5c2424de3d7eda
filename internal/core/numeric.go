package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the business-date format used by every form and table.
const DateLayout = "2006-01-02"

// maxMagnitude is the largest power of ten Num accepts, the float64 range.
const maxMagnitude = 308

// Num coerces raw form input to a finite number. Empty, non-numeric or out-of-range
// input counts as zero; it never fails. Submission-time rules decide whether a zero
// is acceptable.
func Num(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsZero() {
		return decimal.Zero
	}
	// Magnitude of the leading digit. Checked on the exponent so huge values are
	// never expanded.
	if mag := int64(d.Exponent()) + int64(d.NumDigits()) - 1; mag > maxMagnitude || mag < -maxMagnitude {
		return decimal.Zero
	}
	return d
}

// To2 formats d with exactly two decimals.
func To2(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Round2 rounds d to two decimals.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Today returns now as a business date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// MonthStart returns the first day of now's month as a business date.
func MonthStart(now time.Time) string {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(DateLayout)
}

// ValidDate reports whether s is a YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
