package journey

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - A calendar month in a specific year
// =============================================================================

// Month is the first instant (UTC) of a calendar month.
type Month time.Time

// NewMonth returns the Month for year/month. Out-of-range months normalize,
// so NewMonth(2025, 13) is January 2026.
func NewMonth(year int, month time.Month) Month {
	return Month(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

// MonthOf returns the Month in which t occurs.
func MonthOf(t time.Time) Month {
	year, month, _ := t.Date()
	return NewMonth(year, month)
}

// ParseMonth parses a "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

func (m Month) Time() time.Time { return time.Time(m) }
func (m Month) Year() int { return time.Time(m).Year() }
func (m Month) Calendar() time.Month { return time.Time(m).Month() }
func (m Month) AddMonths(n int) Month { return Month(time.Time(m).AddDate(0, n, 0)) }
func (m Month) Before(n Month) bool { return time.Time(m).Before(time.Time(n)) }
func (m Month) After(n Month) bool { return time.Time(m).After(time.Time(n)) }
func (m Month) Equal(n Month) bool { return time.Time(m).Equal(time.Time(n)) }
func (m Month) IsZero() bool { return time.Time(m).IsZero() }

// String returns the month formatted as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year(), m.Calendar())
}

// Label returns a short display form such as "Mar 2025".
func (m Month) Label() string {
	return time.Time(m).Format("Jan 2006")
}

// ElapsedMonths counts whole months from start to now. Negative when now
// precedes start.
func ElapsedMonths(start, now time.Time) int {
	months := (now.Year()-start.Year())*12 + int(now.Month()-start.Month())
	if start.AddDate(0, months, 0).After(now) {
		months--
	}
	return months
}

// =============================================================================
// CLOCK - Injected wall-clock time
// =============================================================================

// Clock supplies "now". Compute consults nothing else outside its inputs.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Use it in tests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
