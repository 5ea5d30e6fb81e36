package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestCalculateFine(t *testing.T) {
	tests := []struct {
		name string
		base string
		fee  string
		rate string
		days int64
		want string
	}{
		{name: "exact cents", base: "100.00", fee: "5.00", rate: "1", days: 3, want: "3.15"},
		{name: "clamped to base plus fee", base: "10.00", fee: "0.00", rate: "50", days: 1000, want: "10.00"},
		{name: "remainder rounds up", base: "200.10", fee: "0.00", rate: "1", days: 1, want: "2.01"},
		{name: "tiny remainder still rounds up", base: "0.01", fee: "0.00", rate: "0.05", days: 1, want: "0.01"},
		{name: "zero overdue days", base: "100.00", fee: "5.00", rate: "3", days: 0, want: "0.00"},
		{name: "zero rate", base: "100.00", fee: "5.00", rate: "0", days: 30, want: "0.00"},
		{name: "negative days treated as zero", base: "100.00", fee: "5.00", rate: "1", days: -2, want: "0.00"},
		{name: "fine equal to total is kept", base: "50.00", fee: "50.00", rate: "10", days: 10, want: "100.00"},
		{name: "fractional rate", base: "1000.00", fee: "25.50", rate: "0.05", days: 7, want: "3.59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateFine(dec(t, tt.base), dec(t, tt.fee), dec(t, tt.rate), tt.days)
			if err != nil {
				t.Fatalf("CalculateFine() error = %v", err)
			}
			if !got.Equal(dec(t, tt.want)) {
				t.Errorf("CalculateFine() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCalculateFineNeverExceedsTotal(t *testing.T) {
	base := dec(t, "99.99")
	fee := dec(t, "0.37")
	total := base.Add(fee)
	for _, rate := range []string{"0", "0.01", "0.5", "1", "7.25", "100", "250"} {
		for days := int64(0); days <= 400; days += 7 {
			got, err := CalculateFine(base, fee, dec(t, rate), days)
			if err != nil {
				t.Fatalf("CalculateFine(rate=%s, days=%d) error = %v", rate, days, err)
			}
			if got.GreaterThan(total) {
				t.Fatalf("CalculateFine(rate=%s, days=%d) = %s exceeds %s", rate, days, got, total)
			}
			if got.IsNegative() {
				t.Fatalf("CalculateFine(rate=%s, days=%d) = %s is negative", rate, days, got)
			}
		}
	}
}

func TestCalculateFineRejectsNegativeInput(t *testing.T) {
	tests := []struct {
		name           string
		base, fee, rat string
	}{
		{name: "negative base", base: "-1.00", fee: "0", rat: "1"},
		{name: "negative fee", base: "1.00", fee: "-0.01", rat: "1"},
		{name: "negative rate", base: "1.00", fee: "0", rat: "-0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateFine(dec(t, tt.base), dec(t, tt.fee), dec(t, tt.rat), 5)
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("CalculateFine() error = %v, want ErrInvalidAmount", err)
			}
		})
	}
}

func TestOverdueDays(t *testing.T) {
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want int64
	}{
		{name: "same instant", now: due, want: 0},
		{name: "later the same day", now: due.Add(23*time.Hour + 59*time.Minute), want: 0},
		{name: "exactly one day", now: due.Add(24 * time.Hour), want: 1},
		{name: "partial days truncate", now: due.Add(73 * time.Hour), want: 3},
		{name: "due in the future", now: due.Add(-5 * time.Hour), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverdueDays(due, tt.now); got != tt.want {
				t.Errorf("OverdueDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOverdueDaysAcrossDaylightSaving(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	tests := []struct {
		name     string
		due, now time.Time
		want     int64
	}{
		{
			name: "spring forward",
			due:  time.Date(2024, 3, 1, 0, 0, 0, 0, berlin),
			now:  time.Date(2024, 4, 1, 0, 0, 0, 0, berlin),
			want: 31,
		},
		{
			name: "fall back",
			due:  time.Date(2024, 10, 1, 12, 0, 0, 0, berlin),
			now:  time.Date(2024, 11, 1, 11, 59, 0, 0, berlin),
			want: 30,
		},
		{
			name: "due stored in UTC",
			due:  time.Date(2024, 3, 30, 23, 0, 0, 0, time.UTC), // midnight in Berlin
			now:  time.Date(2024, 4, 2, 0, 0, 0, 0, berlin),
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverdueDays(tt.due, tt.now); got != tt.want {
				t.Errorf("OverdueDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	if _, err := ParseAmount("base", ""); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("ParseAmount(empty) error = %v, want ErrInvalidAmount", err)
	}
	if _, err := ParseAmount("base", "12,50"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("ParseAmount(12,50) error = %v, want ErrInvalidAmount", err)
	}
	got, err := ParseAmount("base", "12.50")
	if err != nil {
		t.Fatalf("ParseAmount(12.50) error = %v", err)
	}
	if got.StringFixed(2) != "12.50" {
		t.Errorf("ParseAmount(12.50) = %s", got)
	}
}
