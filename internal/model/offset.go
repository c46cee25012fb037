package model

import (
	"fmt"
	"time"
)

// OffsetUnit is the calendar unit of a TimeOffset.
type OffsetUnit string

const (
	OffsetUnitDays   OffsetUnit = "days"
	OffsetUnitWeeks  OffsetUnit = "weeks"
	OffsetUnitMonths OffsetUnit = "months"
)

// TimeOffset expresses a relative distance from an anchor date,
// e.g. "7 days before" or "2 months after".
type TimeOffset struct {
	Amount int        `json:"amount" db:"offset_amount"`
	Unit   OffsetUnit `json:"unit" db:"offset_unit"`
	Before bool       `json:"before" db:"offset_before"`
}

// OffsetError reports degenerate offset arithmetic. Callers are expected
// to skip the affected step and continue, never to abort a whole pass.
type OffsetError struct {
	Offset TimeOffset
	Reason string
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("invalid offset %+d %s: %s", e.Offset.Amount, e.Offset.Unit, e.Reason)
}

// Validate checks that the offset has a positive magnitude and a known unit.
func (o TimeOffset) Validate() error {
	if o.Amount < 1 {
		return &OffsetError{Offset: o, Reason: "magnitude must be at least 1"}
	}
	switch o.Unit {
	case OffsetUnitDays, OffsetUnitWeeks, OffsetUnitMonths:
		return nil
	default:
		return &OffsetError{Offset: o, Reason: "unknown unit"}
	}
}

// Apply computes the concrete date this offset describes relative to anchor.
// Month arithmetic clamps to the last valid day of the target month, so
// "1 month before Mar 31" lands on Feb 28 (29 in leap years) rather than
// overflowing into March.
func (o TimeOffset) Apply(anchor time.Time) (time.Time, error) {
	if err := o.Validate(); err != nil {
		return time.Time{}, err
	}

	amount := o.Amount
	if o.Before {
		amount = -amount
	}

	switch o.Unit {
	case OffsetUnitDays:
		return anchor.AddDate(0, 0, amount), nil
	case OffsetUnitWeeks:
		return anchor.AddDate(0, 0, amount*7), nil
	case OffsetUnitMonths:
		return addMonthsClamped(anchor, amount), nil
	}

	// Unreachable after Validate.
	return time.Time{}, &OffsetError{Offset: o, Reason: "unknown unit"}
}

// String renders the offset in a human-readable form, e.g. "7 days before".
func (o TimeOffset) String() string {
	direction := "after"
	if o.Before {
		direction = "before"
	}
	unit := string(o.Unit)
	if o.Amount == 1 {
		unit = unit[:len(unit)-1]
	}
	return fmt.Sprintf("%d %s %s", o.Amount, unit, direction)
}

// OffsetBetween derives the offset that maps anchor onto date. The gap is
// always expressed in whole days, collapsed to weeks when evenly divisible;
// months are never inferred because month arithmetic is lossy. A zero gap
// yields "1 day before" so the result is always a valid offset.
func OffsetBetween(anchor, date time.Time) TimeOffset {
	days := int(truncateDay(date).Sub(truncateDay(anchor)).Hours() / 24)

	before := days < 0
	if before {
		days = -days
	}
	if days == 0 {
		return TimeOffset{Amount: 1, Unit: OffsetUnitDays, Before: true}
	}
	if days%7 == 0 {
		return TimeOffset{Amount: days / 7, Unit: OffsetUnitWeeks, Before: before}
	}
	return TimeOffset{Amount: days, Unit: OffsetUnitDays, Before: before}
}

// addMonthsClamped shifts t by the given number of months, clamping the
// day-of-month to the last valid day of the target month instead of
// relying on time.AddDate's overflow behavior.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}

	return time.Date(
		firstOfTarget.Year(), firstOfTarget.Month(), day,
		hour, min, sec, t.Nanosecond(), t.Location(),
	)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// truncateDay drops the time-of-day component.
func truncateDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
