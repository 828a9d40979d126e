/*
errors.go - Centralized error types for the journey engine

PURPOSE:
  All error types in one place. The engine's computation path never returns
  errors (missing data degrades to zero, missing configuration yields nil);
  these errors belong to the input side: record validation and the storage
  collaborators.

ERROR CATEGORIES:
  1. Validation errors - Malformed records or configuration
  2. Store errors - Missing or duplicate rows

SEE ALSO:
  - store.go: Uses these errors
  - store/sqlite/sqlite.go: Maps driver errors onto these sentinels
  - api/handlers.go: Maps these onto HTTP status codes
*/
package journey

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMentorshipNotFound is returned when a user has no program configured.
	ErrMentorshipNotFound = errors.New("mentorship not found")

	// ErrInvalidDuration is returned for a program length outside
	// 1..MaxDurationMonths.
	ErrInvalidDuration = errors.New("invalid duration: must be between 1 and 120 months")

	// ErrInvalidMonth is returned for a month outside 1-12 or an unparsable month.
	ErrInvalidMonth = errors.New("invalid month")

	// ErrNegativeAmount is returned for negative revenue, goal or sale amounts.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrDuplicateRecord is returned when a row with the same key already exists.
	ErrDuplicateRecord = errors.New("duplicate record")

	// ErrInvalidRequirement is returned by catalogue parsing for unknown rule types.
	ErrInvalidRequirement = errors.New("invalid achievement requirement")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RecordError describes which ledger or journal row failed validation.
type RecordError struct {
	UserID UserID
	Month  time.Month
	Year   int
	Field  string
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s %04d-%02d: %s: %v", e.UserID, e.Year, e.Month, e.Field, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateRecord checks a ledger row before it is stored.
func ValidateRecord(r MonthlyRecord) error {
	if r.Month < time.January || r.Month > time.December {
		return &RecordError{UserID: r.UserID, Month: r.Month, Year: r.Year, Field: "month", Err: ErrInvalidMonth}
	}
	if r.Revenue.IsNegative() {
		return &RecordError{UserID: r.UserID, Month: r.Month, Year: r.Year, Field: "revenue", Err: ErrNegativeAmount}
	}
	if r.Goal.IsNegative() {
		return &RecordError{UserID: r.UserID, Month: r.Month, Year: r.Year, Field: "goal", Err: ErrNegativeAmount}
	}
	return nil
}

// ValidateEntry checks an itemized sale before it is stored.
func ValidateEntry(e JournalEntry) error {
	if e.Amount.IsNegative() {
		return &RecordError{UserID: e.UserID, Month: e.Date.Month(), Year: e.Date.Year(), Field: "amount", Err: ErrNegativeAmount}
	}
	return nil
}

// ValidateMentorship checks a program configuration.
func ValidateMentorship(m Mentorship) error {
	if m.DurationMonths < 1 || m.DurationMonths > MaxDurationMonths {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, m.DurationMonths)
	}
	return nil
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrInvalidRequirement)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMentorshipNotFound)
}

// IsConflict returns true if the error indicates a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateRecord)
}
