// Package types contains display conventions shared by the renderers and the
// HTTP layer. Values keep full precision everywhere else; rounding happens
// only through these helpers.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fraction digits shown for monetary values.
const MoneyPlaces = 2

// Date layouts used in rendered documents.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// Round rounds d half away from zero to MoneyPlaces digits.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Money formats d with exactly MoneyPlaces fraction digits.
func Money(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// Percent formats an optional percentage, returning "" when absent.
func Percent(p *decimal.Decimal) string {
	if p == nil {
		return ""
	}
	return p.StringFixed(MoneyPlaces)
}

// Date formats t as a calendar date, returning "" for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// OptionalDate formats an optional date, returning "" when absent.
func OptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Date(*t)
}

// DateTime formats t with minutes precision, returning "" for the zero time.
func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateTimeLayout)
}
