package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for negative or unparsable money/rate values
var ErrInvalidAmount = errors.New("invalid amount")

// OverdueDays returns the number of whole calendar days elapsed since due,
// counted on the wall clock of now's location so a daylight saving change
// neither adds nor drops a day. A due date in the future yields 0.
func OverdueDays(due, now time.Time) int64 {
	if now.Before(due) {
		return 0
	}
	due = due.In(now.Location())

	y1, m1, d1 := due.Date()
	y2, m2, d2 := now.Date()
	days := int64(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC).Sub(time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)) / (24 * time.Hour))
	if clockOf(now) < clockOf(due) {
		days--
	}
	if days < 0 {
		// repeated wall clock hour when clocks fall back
		return 0
	}
	return days
}

// clockOf returns the wall clock time of day of t
func clockOf(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// MaxFine is the largest fine the installment_items.fine column stores
var MaxFine = decimal.RequireFromString("9999999999.99")

// CalculateFine computes the late fee of an installment item.
// The fee is (base+fee) * days * rate / 100 rounded up to cents, capped at base+fee.
func CalculateFine(base, fee, rate decimal.Decimal, days int64) (decimal.Decimal, error) {
	if base.IsNegative() || fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: base %s fee %s", ErrInvalidAmount, base, fee)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: fine rate %s", ErrInvalidAmount, rate)
	}
	if days < 0 {
		days = 0
	}

	total := base.Add(fee)
	fine := total.
		Mul(decimal.NewFromInt(days)).
		Mul(rate).
		Shift(-2). // exact division by 100
		RoundUp(2)

	if fine.GreaterThan(total) {
		return total, nil
	}
	return fine, nil
}

// ParseAmount parses a stored decimal column value
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is empty", ErrInvalidAmount, field)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q: %v", ErrInvalidAmount, field, raw, err)
	}
	return d, nil
}
