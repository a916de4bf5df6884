package interval

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidStep is returned when an interval or period token cannot be parsed.
// It wraps every parse failure so callers can map it to a client error.
var ErrInvalidStep = errors.New("invalid interval")

// Unit is the calendar unit a step truncates to. Fixed-duration steps
// (minutes, hours) carry UnitNone and a Duration instead.
type Unit int

const (
	UnitNone Unit = iota
	UnitDay
	UnitMonth
	UnitYear
)

// Step is a parsed bucket size: either a fixed duration (5m, 30m, 1h) or a
// calendar unit (1d, 1M, 1Y) whose wall-clock length varies.
type Step struct {
	Label    string
	Duration time.Duration // zero for calendar units
	Unit     Unit          // UnitNone for fixed durations
	Count    int           // multiplier for calendar units, e.g. 3 for "3M"
}

// Calendar reports whether the step advances by calendar arithmetic rather
// than a fixed duration.
func (s Step) Calendar() bool {
	return s.Unit != UnitNone
}

// Next returns the start of the bucket following t for this step.
func (s Step) Next(t time.Time) time.Time {
	switch s.Unit {
	case UnitDay:
		return t.AddDate(0, 0, s.Count)
	case UnitMonth:
		return t.AddDate(0, s.Count, 0)
	case UnitYear:
		return t.AddDate(s.Count, 0, 0)
	default:
		return t.Add(s.Duration)
	}
}

// ParseStep parses a human interval token ("5m", "30m", "1h", "1d", "1M",
// "1Y") into a Step. The unit letter is case-sensitive: "m" is minutes,
// "M" is calendar months.
func ParseStep(token string) (Step, error) {
	if token == "" {
		return Step{}, fmt.Errorf("%w: empty token", ErrInvalidStep)
	}

	unit := token[len(token)-1]
	count, err := strconv.Atoi(token[:len(token)-1])
	if err != nil {
		return Step{}, fmt.Errorf("%w: %q", ErrInvalidStep, token)
	}
	if count <= 0 {
		return Step{}, fmt.Errorf("%w: %q must be positive", ErrInvalidStep, token)
	}

	switch unit {
	case 'm':
		return Step{Label: token, Duration: time.Duration(count) * time.Minute}, nil
	case 'h':
		return Step{Label: token, Duration: time.Duration(count) * time.Hour}, nil
	case 'd':
		return Step{Label: token, Unit: UnitDay, Count: count}, nil
	case 'M':
		return Step{Label: token, Unit: UnitMonth, Count: count}, nil
	case 'Y':
		return Step{Label: token, Unit: UnitYear, Count: count}, nil
	default:
		return Step{}, fmt.Errorf("%w: unknown unit in %q", ErrInvalidStep, token)
	}
}

// PeriodAll is the token for an unbounded lookback.
const PeriodAll = "all"

// Relative periods convert months and years to fixed day counts so that
// "end - period" stays a pure duration subtraction.
const (
	daysPerMonth = 30
	daysPerYear  = 365
)

// Period is a parsed relative lookback ("7d", "1M", "1Y", "all").
type Period struct {
	Label    string
	Duration time.Duration // zero when All
	All      bool
}

// ParsePeriod parses a period token. "all" yields the unbounded period; every
// other token follows the same grammar as ParseStep with month/year converted
// to 30/365 days.
func ParsePeriod(token string) (Period, error) {
	if token == PeriodAll {
		return Period{Label: token, All: true}, nil
	}

	step, err := ParseStep(token)
	if err != nil {
		return Period{}, err
	}

	d := step.Duration
	switch step.Unit {
	case UnitDay:
		d = time.Duration(step.Count) * 24 * time.Hour
	case UnitMonth:
		d = time.Duration(step.Count) * daysPerMonth * 24 * time.Hour
	case UnitYear:
		d = time.Duration(step.Count) * daysPerYear * 24 * time.Hour
	}
	return Period{Label: token, Duration: d}, nil
}

// TruncateUnit floors t to the start of the given calendar unit in t's own
// location.
func TruncateUnit(t time.Time, unit Unit) time.Time {
	switch unit {
	case UnitDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case UnitMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case UnitYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	default:
		return t
	}
}

// Truncate floors t to the start of the bucket that contains it. Calendar
// steps truncate to their unit; fixed steps truncate within the day so that
// buckets stay aligned to local midnight regardless of the zone offset.
func (s Step) Truncate(t time.Time) time.Time {
	if s.Unit != UnitNone {
		return TruncateUnit(t, s.Unit)
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := t.Sub(midnight)
	return midnight.Add(offset - offset%s.Duration)
}

// SnapHalfHour floors t's minute field to {0, 30} and zeroes seconds. Used by
// 30-minute networks to keep query boundaries bucket-aligned.
func SnapHalfHour(t time.Time) time.Time {
	minute := 0
	if t.Minute() >= 30 {
		minute = 30
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location())
}
