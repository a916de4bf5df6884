package window

import (
	"errors"
	"fmt"
	"time"

	"github.com/opennem/opennem-sub002/internal/core/interval"
	"github.com/opennem/opennem-sub002/internal/core/network"
)

// ErrInvalidRange is returned when a resolved window is inconsistent: a
// requested year/month lies beyond the query end, or start > end.
var ErrInvalidRange = errors.New("invalid query range")

// DefaultForecastHorizon is how far ahead a forecast window reaches when the
// caller does not say.
const DefaultForecastHorizon = 7 * 24 * time.Hour

// QuerySpec is the logical description of a series query before boundary
// resolution. At most one of Period, Year, Month and Forecast is
// authoritative; precedence is encoded in Resolve.
type QuerySpec struct {
	Network *network.Network

	// Start and End seed the base window. A zero End means "now" in the
	// network's fixed offset.
	Start time.Time
	End   time.Time

	// Step is the bucket size. Zero value means the network's native
	// sampling interval.
	Step interval.Step

	Period          *interval.Period
	Year            int
	Month           *time.Time // any instant inside the requested month
	Forecast        bool
	ForecastHorizon time.Duration

	// Now is the injected clock; zero means time.Now. Resolution never
	// reads the wall clock directly so resolving is repeatable.
	Now time.Time
}

// Window is a concrete, timezone-carrying query boundary.
type Window struct {
	Start time.Time
	End   time.Time
	Step  interval.Step
}

// Resolve turns a QuerySpec into a concrete Window. Rules apply in order;
// later rules override earlier ones only for the fields they touch.
func Resolve(spec QuerySpec) (Window, error) {
	if spec.Network == nil {
		return Window{}, fmt.Errorf("%w: network is required", ErrInvalidRange)
	}
	net := spec.Network

	step := spec.Step
	if step.Label == "" && step.Duration == 0 && step.Unit == interval.UnitNone {
		step = interval.Step{Label: net.NativeStepLabel(), Duration: net.NativeStep()}
	}

	now := spec.Now
	if now.IsZero() {
		now = time.Now()
	}

	start := spec.Start
	end := spec.End
	if end.IsZero() {
		end = net.Localize(now)
	}

	// Half-hour networks need bucket-aligned boundaries before any
	// further adjustment.
	halfHour := step.Duration == 30*time.Minute
	if halfHour {
		if !start.IsZero() {
			start = interval.SnapHalfHour(start)
		}
		end = interval.SnapHalfHour(end)
	}

	// Forecast discards the historical window entirely: it looks forward
	// from the base end.
	if spec.Forecast {
		horizon := spec.ForecastHorizon
		if horizon <= 0 {
			horizon = DefaultForecastHorizon
		}
		fStart := net.Localize(end)
		return Window{Start: fStart, End: fStart.Add(horizon), Step: step}, nil
	}

	year := spec.Year

	if spec.Period != nil && spec.Period.All {
		localStart := net.Localize(start)
		if step.Calendar() {
			localStart = interval.TruncateUnit(localStart, step.Unit)
		} else {
			localStart = interval.TruncateUnit(localStart, interval.UnitDay)
		}
		start = localStart

		// Month-stepped "all" queries end at the last completed month,
		// never a partial one.
		if step.Unit == interval.UnitMonth && step.Count == 1 {
			localEnd := net.Localize(end)
			end = interval.TruncateUnit(localEnd, interval.UnitMonth).Add(-time.Second)
		}

		// An "all" query is never also year-scoped.
		year = 0
	} else if spec.Period != nil {
		start = end.Add(-spec.Period.Duration)
		if halfHour {
			start = interval.SnapHalfHour(start)
		}
	}

	if year != 0 {
		localEnd := net.Localize(end)
		if year > localEnd.Year() {
			return Window{}, fmt.Errorf("%w: year %d is after query end %s", ErrInvalidRange, year, localEnd.Format("2006-01-02"))
		}
		start = time.Date(year, 1, 1, 0, 0, 0, 0, net.FixedOffset())
		if year == localEnd.Year() {
			// The incomplete current year is capped at yesterday so the
			// window never implies data that cannot exist yet.
			yesterday := localEnd.AddDate(0, 0, -1)
			end = time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 23, 59, 59, 0, net.FixedOffset())
		} else {
			end = time.Date(year, 12, 31, 23, 59, 59, 0, net.FixedOffset())
		}
	}

	if spec.Month != nil {
		m := *spec.Month
		localEnd := net.Localize(spec.End)
		if spec.End.IsZero() {
			localEnd = net.Localize(now)
		}
		first := time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, net.FixedOffset())
		if first.After(localEnd) {
			return Window{}, fmt.Errorf("%w: month %s is after query end %s", ErrInvalidRange, first.Format("2006-01"), localEnd.Format("2006-01-02"))
		}
		start = first
		end = first.AddDate(0, 1, 0).Add(-time.Second)
	}

	if start.IsZero() {
		start = net.Localize(end)
	}

	if start.After(end) {
		return Window{}, fmt.Errorf("%w: start %s after end %s", ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return Window{Start: start, End: end, Step: step}, nil
}
