package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opennem/opennem-sub002/internal/core/interval"
	"github.com/opennem/opennem-sub002/internal/core/network"
)

func testNEM() *network.Network {
	return &network.Network{
		Code:            "NEM",
		Country:         "au",
		Timezone:        "Australia/Sydney",
		OffsetMinutes:   600,
		IntervalMinutes: 5,
	}
}

func testWEM() *network.Network {
	return &network.Network{
		Code:            "WEM",
		Country:         "au",
		Timezone:        "Australia/Perth",
		OffsetMinutes:   480,
		IntervalMinutes: 30,
	}
}

func mustStep(t *testing.T, token string) interval.Step {
	t.Helper()
	step, err := interval.ParseStep(token)
	require.NoError(t, err)
	return step
}

func mustPeriod(t *testing.T, token string) *interval.Period {
	t.Helper()
	period, err := interval.ParsePeriod(token)
	require.NoError(t, err)
	return &period
}

func TestResolve_RelativePeriod(t *testing.T) {
	end := time.Date(2021, 1, 15, 12, 45, 0, 0, time.UTC)

	win, err := Resolve(QuerySpec{
		Network: testNEM(),
		End:     end,
		Step:    mustStep(t, "5m"),
		Period:  mustPeriod(t, "7d"),
	})
	require.NoError(t, err)

	require.True(t, win.Start.Equal(time.Date(2021, 1, 8, 12, 45, 0, 0, time.UTC)))
	require.True(t, win.End.Equal(end))
	require.Equal(t, "5m", win.Step.Label)
	require.Equal(t, 7*24*time.Hour, win.End.Sub(win.Start))
}

func TestResolve_PeriodSpanEqualsPeriodDuration(t *testing.T) {
	end := time.Date(2021, 6, 1, 9, 12, 0, 0, time.UTC)
	for _, token := range []string{"1d", "7d", "1M", "1Y"} {
		win, err := Resolve(QuerySpec{
			Network: testNEM(),
			End:     end,
			Step:    mustStep(t, "5m"),
			Period:  mustPeriod(t, token),
		})
		require.NoError(t, err)
		require.Equal(t, mustPeriod(t, token).Duration, win.End.Sub(win.Start), "period %s", token)
	}
}

func TestResolve_AllPeriodMonthStep(t *testing.T) {
	win, err := Resolve(QuerySpec{
		Network: testNEM(),
		Start:   time.Date(1997, 5, 5, 12, 45, 0, 0, time.UTC),
		End:     time.Date(2020, 2, 15, 12, 45, 0, 0, time.UTC),
		Step:    mustStep(t, "1M"),
		Period:  mustPeriod(t, "all"),
	})
	require.NoError(t, err)

	sydney := testNEM().FixedOffset()
	require.True(t, win.Start.Equal(time.Date(1997, 5, 1, 0, 0, 0, 0, sydney)))
	require.True(t, win.End.Equal(time.Date(2020, 1, 31, 23, 59, 59, 0, sydney)))
	// The resolved boundaries present in the network's fixed offset.
	_, startOffset := win.Start.Zone()
	require.Equal(t, 600*60, startOffset)
}

func TestResolve_AllPeriodFixedStepResetsToMidnight(t *testing.T) {
	win, err := Resolve(QuerySpec{
		Network: testNEM(),
		Start:   time.Date(2019, 3, 10, 4, 30, 0, 0, time.UTC),
		End:     time.Date(2020, 2, 15, 12, 45, 0, 0, time.UTC),
		Step:    mustStep(t, "5m"),
		Period:  mustPeriod(t, "all"),
	})
	require.NoError(t, err)

	sydney := testNEM().FixedOffset()
	// 2019-03-10T04:30Z is 14:30 local; "all" floors to local midnight.
	require.True(t, win.Start.Equal(time.Date(2019, 3, 10, 0, 0, 0, 0, sydney)))
	// End is untouched for non-month steps.
	require.True(t, win.End.Equal(time.Date(2020, 2, 15, 12, 45, 0, 0, time.UTC)))
}

func TestResolve_AllPeriodClearsYear(t *testing.T) {
	// "all" is never also year-scoped: the year would otherwise rewrite
	// the boundaries resolved above.
	win, err := Resolve(QuerySpec{
		Network: testNEM(),
		Start:   time.Date(1997, 5, 5, 12, 45, 0, 0, time.UTC),
		End:     time.Date(2020, 2, 15, 12, 45, 0, 0, time.UTC),
		Step:    mustStep(t, "1M"),
		Period:  mustPeriod(t, "all"),
		Year:    2018,
	})
	require.NoError(t, err)

	sydney := testNEM().FixedOffset()
	require.True(t, win.Start.Equal(time.Date(1997, 5, 1, 0, 0, 0, 0, sydney)))
	require.True(t, win.End.Equal(time.Date(2020, 1, 31, 23, 59, 59, 0, sydney)))
}

func TestResolve_HalfHourSnap(t *testing.T) {
	end := time.Date(2021, 1, 15, 12, 47, 13, 0, time.UTC)

	win, err := Resolve(QuerySpec{
		Network: testWEM(),
		End:     end,
		Step:    mustStep(t, "30m"),
		Period:  mustPeriod(t, "1d"),
	})
	require.NoError(t, err)

	require.True(t, win.End.Equal(time.Date(2021, 1, 15, 12, 30, 0, 0, time.UTC)))
	require.True(t, win.Start.Equal(time.Date(2021, 1, 14, 12, 30, 0, 0, time.UTC)))
	require.Zero(t, win.Start.Minute()%30)
	require.Zero(t, win.End.Minute()%30)
}

func TestResolve_PastYear(t *testing.T) {
	win, err := Resolve(QuerySpec{
		Network: testNEM(),
		End:     time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC),
		Step:    mustStep(t, "1d"),
		Year:    2019,
	})
	require.NoError(t, err)

	sydney := testNEM().FixedOffset()
	require.True(t, win.Start.Equal(time.Date(2019, 1, 1, 0, 0, 0, 0, sydney)))
	require.True(t, win.End.Equal(time.Date(2019, 12, 31, 23, 59, 59, 0, sydney)))
}

func TestResolve_CurrentYearCapsAtYesterday(t *testing.T) {
	// 2021-06-15T20:00+10:00 local; the incomplete year caps at the end
	// of the previous local day.
	win, err := Resolve(QuerySpec{
		Network: testNEM(),
		End:     time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC),
		Step:    mustStep(t, "1d"),
		Year:    2021,
	})
	require.NoError(t, err)

	sydney := testNEM().FixedOffset()
	require.True(t, win.Start.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, sydney)))
	require.True(t, win.End.Equal(time.Date(2021, 6, 14, 23, 59, 59, 0, sydney)))
}

func TestResolve_CurrentYearOnItsFirstDayIsInvalid(t *testing.T) {
	// Querying the current year before it has a completed day caps the
	// end into the previous year, which then precedes the year start.
	// The literal capping behavior is preserved; the resolver reports the
	// inverted range rather than inventing data.
	_, err := Resolve(QuerySpec{
		Network: testNEM(),
		End:     time.Date(2021, 1, 1, 1, 0, 0, 0, testNEM().FixedOffset()),
		Step:    mustStep(t, "1d"),
		Year:    2021,
	})
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestResolve_FutureYearRejected(t *testing.T) {
	_, err := Resolve(QuerySpec{
		Network: testNEM(),
		End:     time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC),
		Step:    mustStep(t, "1d"),
		Year:    2022,
	})
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestResolve_ExactMonth(t *testing.T) {
	month := time.Date(2021, 3, 12, 0, 0, 0, 0, time.UTC)

	win, err := Resolve(QuerySpec{
		Network: testNEM(),
		End:     time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC),
		Step:    mustStep(t, "1d"),
		Month:   &month,
	})
	require.NoError(t, err)

	sydney := testNEM().FixedOffset()
	require.True(t, win.Start.Equal(time.Date(2021, 3, 1, 0, 0, 0, 0, sydney)))
	require.True(t, win.End.Equal(time.Date(2021, 3, 31, 23, 59, 59, 0, sydney)))
}

func TestResolve_MonthOverridesYear(t *testing.T) {
	month := time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC)

	win, err := Resolve(QuerySpec{
		Network: testNEM(),
		End:     time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC),
		Step:    mustStep(t, "1d"),
		Year:    2019,
		Month:   &month,
	})
	require.NoError(t, err)

	sydney := testNEM().FixedOffset()
	require.True(t, win.Start.Equal(time.Date(2020, 11, 1, 0, 0, 0, 0, sydney)))
	require.True(t, win.End.Equal(time.Date(2020, 11, 30, 23, 59, 59, 0, sydney)))
}

func TestResolve_FutureMonthRejected(t *testing.T) {
	month := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := Resolve(QuerySpec{
		Network: testNEM(),
		End:     time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC),
		Step:    mustStep(t, "1d"),
		Month:   &month,
	})
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestResolve_Forecast(t *testing.T) {
	end := time.Date(2021, 1, 15, 12, 45, 0, 0, time.UTC)

	win, err := Resolve(QuerySpec{
		Network:  testNEM(),
		End:      end,
		Step:     mustStep(t, "5m"),
		Forecast: true,
	})
	require.NoError(t, err)

	require.True(t, win.Start.Equal(end))
	require.True(t, win.End.Equal(end.Add(DefaultForecastHorizon)))
	// Forecast boundaries present in the network's fixed offset.
	_, offset := win.Start.Zone()
	require.Equal(t, 600*60, offset)
}

func TestResolve_ForecastIgnoresPeriodAndYear(t *testing.T) {
	end := time.Date(2021, 1, 15, 12, 45, 0, 0, time.UTC)

	win, err := Resolve(QuerySpec{
		Network:         testNEM(),
		End:             end,
		Step:            mustStep(t, "5m"),
		Forecast:        true,
		ForecastHorizon: 24 * time.Hour,
		Period:          mustPeriod(t, "7d"),
		Year:            2019,
	})
	require.NoError(t, err)

	require.True(t, win.Start.Equal(end))
	require.True(t, win.End.Equal(end.Add(24*time.Hour)))
}

func TestResolve_DefaultsToNetworkNativeStep(t *testing.T) {
	now := time.Date(2021, 1, 15, 12, 45, 0, 0, time.UTC)

	win, err := Resolve(QuerySpec{
		Network: testNEM(),
		Period:  mustPeriod(t, "1d"),
		Now:     now,
	})
	require.NoError(t, err)

	require.Equal(t, "5m", win.Step.Label)
	require.Equal(t, 5*time.Minute, win.Step.Duration)
	require.True(t, win.End.Equal(now))
}

func TestResolve_Idempotent(t *testing.T) {
	spec := QuerySpec{
		Network: testNEM(),
		End:     time.Date(2021, 1, 15, 12, 45, 0, 0, time.UTC),
		Step:    mustStep(t, "5m"),
		Period:  mustPeriod(t, "7d"),
		Now:     time.Date(2021, 1, 16, 0, 0, 0, 0, time.UTC),
	}

	first, err := Resolve(spec)
	require.NoError(t, err)
	second, err := Resolve(spec)
	require.NoError(t, err)

	require.True(t, first.Start.Equal(second.Start))
	require.True(t, first.End.Equal(second.End))
	require.Equal(t, first.Step, second.Step)
}

func TestResolve_InvertedRangeRejected(t *testing.T) {
	_, err := Resolve(QuerySpec{
		Network: testNEM(),
		Start:   time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Step:    mustStep(t, "5m"),
	})
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestResolve_NetworkRequired(t *testing.T) {
	_, err := Resolve(QuerySpec{})
	require.ErrorIs(t, err, ErrInvalidRange)
}
