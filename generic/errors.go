package generic

import (
	"errors"
	"fmt"
)

// ErrInvalidPeriod is returned when a period is malformed.
var ErrInvalidPeriod = errors.New("invalid period")

// MaxPeriodDays bounds the length of a validated period in calendar days.
const MaxPeriodDays = 366

// PeriodError provides details about a malformed period.
type PeriodError struct {
	Period Period
	Reason string
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("invalid period %s: %s", e.Period, e.Reason)
}

func (e *PeriodError) Unwrap() error {
	return ErrInvalidPeriod
}

// ValidatePeriod returns a *PeriodError when p has a missing end, is
// inverted, or spans more than MaxPeriodDays.
func ValidatePeriod(p Period) error {
	switch {
	case p.Start.IsZero() || p.End.IsZero():
		return &PeriodError{Period: p, Reason: "start and end date are required"}
	case !p.Valid():
		return &PeriodError{Period: p, Reason: "end before start"}
	case p.Len() > MaxPeriodDays:
		return &PeriodError{Period: p, Reason: fmt.Sprintf("longer than %d days", MaxPeriodDays)}
	}
	return nil
}
