package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/opennem/opennem-sub002/internal/api/v1"
	"github.com/opennem/opennem-sub002/internal/core/fixtures"
	"github.com/opennem/opennem-sub002/internal/core/interval"
	"github.com/opennem/opennem-sub002/internal/core/network"
	"github.com/opennem/opennem-sub002/internal/core/series"
	"github.com/opennem/opennem-sub002/internal/core/storage"
	"github.com/opennem/opennem-sub002/internal/core/window"
	"github.com/opennem/opennem-sub002/internal/rangecache"
)

type fakeStore struct {
	lastQuery storage.ObservationQuery
	rows      []series.Observation
	err       error
}

func (f *fakeStore) Observations(ctx context.Context, q storage.ObservationQuery) ([]series.Observation, error) {
	f.lastQuery = q
	return f.rows, f.err
}

type fakeBoundaries struct {
	rng rangecache.Range
	err error
}

func (f *fakeBoundaries) ObservationRange(ctx context.Context, networks, facilities []string) (rangecache.Range, error) {
	return f.rng, f.err
}

var testNow = time.Date(2021, 1, 15, 12, 45, 0, 0, time.UTC)

func newTestService(t *testing.T, store *fakeStore, boundaries *fakeBoundaries) *Service {
	t.Helper()

	networks, err := network.NewRegistry([]*network.Network{
		{Code: "NEM", Country: "au", Timezone: "Australia/Sydney", OffsetMinutes: 600, IntervalMinutes: 5},
		{Code: "WEM", Country: "au", Timezone: "Australia/Perth", OffsetMinutes: 480, IntervalMinutes: 30},
	})
	require.NoError(t, err)

	if boundaries == nil {
		boundaries = &fakeBoundaries{}
	}

	svc := NewService(store, rangecache.New(boundaries, 10, time.Hour), networks, fixtures.Default(), "3.0")
	svc.nowFn = func() time.Time { return testNow }
	return svc
}

func powerRows(base time.Time) []series.Observation {
	return []series.Observation{
		{Timestamp: base, Group: "coal_black", Value: series.NewValueFromFloat(660.5)},
		{Timestamp: base.Add(5 * time.Minute), Group: "coal_black", Value: series.NewValueFromFloat(661)},
		{Timestamp: base, Group: "wind", Value: series.NewValueFromFloat(120)},
	}
}

func TestPowerSeries_DefaultWindowAndLabels(t *testing.T) {
	store := &fakeStore{rows: powerRows(testNow.Add(-time.Hour))}
	svc := newTestService(t, store, nil)

	set, err := svc.PowerSeries(context.Background(), v1.StatsRequest{NetworkCode: "nem"})
	require.NoError(t, err)
	require.NotNil(t, set)

	// Default period is seven days back from now at the native step.
	require.Equal(t, storage.MetricPower, store.lastQuery.Metric)
	require.Equal(t, "NEM", store.lastQuery.Network)
	require.Equal(t, storage.GroupByFuelTech, store.lastQuery.GroupBy)
	require.Equal(t, 7*24*time.Hour, store.lastQuery.End.Sub(store.lastQuery.Start))
	require.True(t, store.lastQuery.End.Equal(testNow))

	require.Equal(t, "power", set.Type)
	require.Equal(t, "3.0", set.Version)
	require.Equal(t, "NEM", set.Network)
	require.Len(t, set.Data, 2)
	require.Equal(t, "nem.fuel_tech.coal_black.power", set.Data[0].ID)
	require.Equal(t, "MW", set.Data[0].Units)
	require.Equal(t, "5m", set.Data[0].History.Interval)
	require.True(t, set.CreatedAt.Equal(testNow))

	// Fuel-tech series carry the fixture table's display metadata.
	require.Equal(t, "Coal (Black)", set.Data[0].Label)
	require.False(t, set.Data[0].Renewable)
	require.Equal(t, "Wind", set.Data[1].Label)
	require.True(t, set.Data[1].Renewable)
}

func TestPowerSeries_ExplicitInterval(t *testing.T) {
	store := &fakeStore{rows: powerRows(testNow.Add(-time.Hour))}
	svc := newTestService(t, store, nil)

	set, err := svc.PowerSeries(context.Background(), v1.StatsRequest{
		NetworkCode: "NEM",
		Interval:    "30m",
	})
	require.NoError(t, err)
	require.NotNil(t, set)
	require.Equal(t, "30m", set.Data[0].History.Interval)
}

func TestPowerSeries_NoRowsMeansNilSet(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, nil)

	set, err := svc.PowerSeries(context.Background(), v1.StatsRequest{NetworkCode: "NEM"})
	require.NoError(t, err)
	require.Nil(t, set)
}

func TestPowerSeries_UnknownNetwork(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, nil)

	_, err := svc.PowerSeries(context.Background(), v1.StatsRequest{NetworkCode: "AEMO"})
	require.ErrorIs(t, err, network.ErrUnknown)
}

func TestPowerSeries_InvalidInterval(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, nil)

	_, err := svc.PowerSeries(context.Background(), v1.StatsRequest{
		NetworkCode: "NEM",
		Interval:    "fortnight",
	})
	require.ErrorIs(t, err, interval.ErrInvalidStep)
}

func TestPowerSeries_InvalidMonth(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, nil)

	_, err := svc.PowerSeries(context.Background(), v1.StatsRequest{
		NetworkCode: "NEM",
		Month:       "Jan-2021",
	})
	require.ErrorIs(t, err, window.ErrInvalidRange)
}

func TestPowerSeries_StoreErrorPropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	svc := newTestService(t, store, nil)

	_, err := svc.PowerSeries(context.Background(), v1.StatsRequest{NetworkCode: "NEM"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch observations")
}

func TestEnergySeries_AllPeriodSeedsStartFromBoundaries(t *testing.T) {
	availStart := time.Date(1998, 12, 7, 1, 50, 0, 0, time.UTC)
	store := &fakeStore{rows: []series.Observation{
		{Timestamp: testNow.Add(-48 * time.Hour), Group: "coal_black", Value: series.NewValueFromFloat(100)},
	}}
	svc := newTestService(t, store, &fakeBoundaries{rng: rangecache.Range{Start: availStart, End: testNow}})

	_, err := svc.EnergySeries(context.Background(), v1.StatsRequest{
		NetworkCode: "NEM",
		Period:      "all",
		Interval:    "1M",
	})
	require.NoError(t, err)

	// The window opens at the first recorded observation, truncated to the
	// start of its local month.
	sydney := time.FixedZone("+10:00", 600*60)
	require.True(t, store.lastQuery.Start.Equal(time.Date(1998, 12, 1, 0, 0, 0, 0, sydney)))
}

func TestEnergySeries_AlignsSiblingSeries(t *testing.T) {
	day := 24 * time.Hour
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{rows: []series.Observation{
		{Timestamp: base, Group: "coal_black", Value: series.NewValueFromFloat(100)},
		{Timestamp: base.Add(day), Group: "coal_black", Value: series.NewValueFromFloat(101)},
		{Timestamp: base.Add(2 * day), Group: "coal_black", Value: series.NewValueFromFloat(102)},
		{Timestamp: base.Add(2 * day), Group: "solar_utility", Value: series.NewValueFromFloat(50)},
	}}
	svc := newTestService(t, store, nil)

	set, err := svc.EnergySeries(context.Background(), v1.StatsRequest{NetworkCode: "NEM"})
	require.NoError(t, err)
	require.NotNil(t, set)
	require.Len(t, set.Data, 2)

	// The late-starting sibling is padded onto the family axis.
	coal, solar := set.Data[0].History, set.Data[1].History
	require.Len(t, coal.Data, 3)
	require.Len(t, solar.Data, 3)
	require.True(t, solar.Start.Equal(coal.Start))
	require.False(t, solar.Data[0].Valid)
	require.False(t, solar.Data[1].Valid)
	require.Equal(t, "50", solar.Data[2].String())
}

func TestPriceSeries_RegionScoped(t *testing.T) {
	store := &fakeStore{rows: []series.Observation{
		{Timestamp: testNow.Add(-time.Hour), Group: "NSW1", Value: series.NewValueFromFloat(42.37)},
	}}
	svc := newTestService(t, store, nil)

	set, err := svc.PriceSeries(context.Background(), v1.StatsRequest{
		NetworkCode: "NEM",
		RegionCode:  "NSW1",
	})
	require.NoError(t, err)
	require.NotNil(t, set)

	require.Equal(t, "NSW1", store.lastQuery.Region)
	require.Equal(t, storage.GroupByRegion, store.lastQuery.GroupBy)
	require.Equal(t, "nem.nsw1.price", set.Data[0].ID)
	require.Equal(t, "AUD/MWh", set.Data[0].Units)
	require.Equal(t, "nsw1", set.Data[0].Region)
}

func TestDemandSeries_NetworkWideKeepsRegionInID(t *testing.T) {
	store := &fakeStore{rows: []series.Observation{
		{Timestamp: testNow.Add(-time.Hour), Group: "NSW1", Value: series.NewValueFromFloat(8000)},
		{Timestamp: testNow.Add(-time.Hour), Group: "VIC1", Value: series.NewValueFromFloat(5500)},
	}}
	svc := newTestService(t, store, nil)

	set, err := svc.DemandSeries(context.Background(), v1.StatsRequest{NetworkCode: "NEM"})
	require.NoError(t, err)
	require.NotNil(t, set)
	require.Len(t, set.Data, 2)
	require.Equal(t, "nem.demand.nsw1", set.Data[0].ID)
	require.Equal(t, "nem.demand.vic1", set.Data[1].ID)
}

func TestDemandSeries_RegionScopedDropsGroupCode(t *testing.T) {
	store := &fakeStore{rows: []series.Observation{
		{Timestamp: testNow.Add(-time.Hour), Group: "NSW1", Value: series.NewValueFromFloat(8000)},
	}}
	svc := newTestService(t, store, nil)

	set, err := svc.DemandSeries(context.Background(), v1.StatsRequest{
		NetworkCode: "NEM",
		RegionCode:  "NSW1",
	})
	require.NoError(t, err)
	require.NotNil(t, set)
	require.Equal(t, "nem.nsw1.demand", set.Data[0].ID)
}

func TestPowerSeries_YearWindow(t *testing.T) {
	store := &fakeStore{rows: powerRows(time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(t, store, nil)

	_, err := svc.PowerSeries(context.Background(), v1.StatsRequest{
		NetworkCode: "NEM",
		Year:        2019,
		Interval:    "1d",
	})
	require.NoError(t, err)

	sydney := time.FixedZone("+10:00", 600*60)
	require.True(t, store.lastQuery.Start.Equal(time.Date(2019, 1, 1, 0, 0, 0, 0, sydney)))
	require.True(t, store.lastQuery.End.Equal(time.Date(2019, 12, 31, 23, 59, 59, 0, sydney)))
}
