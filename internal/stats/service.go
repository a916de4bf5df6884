// Package stats is the query side of the API: it binds user-facing
// parameters into a window spec, resolves the boundary, fetches grouped
// rows and hands them to the series aggregator.
package stats

import (
	"context"
	"fmt"
	"time"

	v1 "github.com/opennem/opennem-sub002/internal/api/v1"
	"github.com/opennem/opennem-sub002/internal/core/fixtures"
	"github.com/opennem/opennem-sub002/internal/core/interval"
	"github.com/opennem/opennem-sub002/internal/core/network"
	"github.com/opennem/opennem-sub002/internal/core/series"
	"github.com/opennem/opennem-sub002/internal/core/storage"
	"github.com/opennem/opennem-sub002/internal/core/window"
	"github.com/opennem/opennem-sub002/internal/rangecache"
)

const monthLayout = "2006-01"

// Service runs series queries end to end: resolve, fetch, aggregate, align.
type Service struct {
	store      storage.ObservationStore
	boundaries *rangecache.Cache
	networks   *network.Registry
	fixtures   *fixtures.Registry
	version    string
	nowFn      func() time.Time
}

// NewService wires the query service. version is stamped onto every built
// set.
func NewService(
	store storage.ObservationStore,
	boundaries *rangecache.Cache,
	networks *network.Registry,
	fix *fixtures.Registry,
	version string,
) *Service {
	return &Service{
		store:      store,
		boundaries: boundaries,
		networks:   networks,
		fixtures:   fix,
		version:    version,
		nowFn:      time.Now,
	}
}

// PowerSeries returns fuel-tech grouped power for a network or region over a
// relative period (default 7d).
func (s *Service) PowerSeries(ctx context.Context, req v1.StatsRequest) (*series.Set, error) {
	return s.run(ctx, req, queryPlan{
		metric:          storage.MetricPower,
		unitName:        "power",
		groupBy:         storage.GroupByFuelTech,
		fuelTechGrouped: true,
		defaultPeriod:   "7d",
	})
}

// EnergySeries returns fuel-tech grouped energy, aligned to a shared axis so
// sibling series can be exported together.
func (s *Service) EnergySeries(ctx context.Context, req v1.StatsRequest) (*series.Set, error) {
	set, err := s.run(ctx, req, queryPlan{
		metric:          storage.MetricEnergy,
		unitName:        "energy",
		groupBy:         storage.GroupByFuelTech,
		fuelTechGrouped: true,
		defaultPeriod:   "1Y",
		defaultInterval: "1d",
	})
	if err != nil || set == nil {
		return set, err
	}
	return series.AlignFamily(set, "energy"), nil
}

// PriceSeries returns the dispatch price series for a network or region.
func (s *Service) PriceSeries(ctx context.Context, req v1.StatsRequest) (*series.Set, error) {
	return s.run(ctx, req, queryPlan{
		metric:        storage.MetricPrice,
		unitName:      "price",
		groupBy:       storage.GroupByRegion,
		groupField:    "region",
		defaultPeriod: "7d",
	})
}

// DemandSeries returns regional demand. When no region filter applies, each
// region's code lands in the series id to keep ids unique.
func (s *Service) DemandSeries(ctx context.Context, req v1.StatsRequest) (*series.Set, error) {
	return s.run(ctx, req, queryPlan{
		metric:           storage.MetricDemand,
		unitName:         "demand",
		groupBy:          storage.GroupByRegion,
		groupField:       "region",
		includeGroupCode: req.RegionCode == "",
		defaultPeriod:    "7d",
	})
}

// queryPlan captures how one endpoint maps onto the aggregator.
type queryPlan struct {
	metric           string
	unitName         string
	groupBy          string
	groupField       string
	fuelTechGrouped  bool
	includeGroupCode bool
	defaultPeriod    string
	defaultInterval  string
}

func (s *Service) run(ctx context.Context, req v1.StatsRequest, plan queryPlan) (*series.Set, error) {
	spec, net, err := s.buildSpec(ctx, req, plan)
	if err != nil {
		return nil, err
	}

	win, err := window.Resolve(spec)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.Observations(ctx, storage.ObservationQuery{
		Network: net.Code,
		Region:  req.RegionCode,
		Metric:  plan.metric,
		GroupBy: plan.groupBy,
		Start:   win.Start,
		End:     win.End,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch observations: %w", err)
	}

	unit, ok := s.fixtures.Unit(plan.unitName)
	if !ok {
		return nil, fmt.Errorf("unit %q missing from fixtures", plan.unitName)
	}

	opts := series.BuildOptions{
		Network:          net,
		Region:           req.RegionCode,
		GroupField:       plan.groupField,
		FuelTechGrouped:  plan.fuelTechGrouped,
		IncludeGroupCode: plan.includeGroupCode,
		Localize:         true,
		Version:          s.version,
		Now:              s.nowFn(),
	}
	if plan.fuelTechGrouped {
		opts.GroupMeta = s.fuelTechMeta
	}

	return series.BuildSet(win, series.UnitDescriptor{
		Type:  unit.Name,
		Unit:  unit.Display,
		Alias: unit.Alias,
		Round: unit.RoundTo,
	}, rows, opts), nil
}

// fuelTechMeta resolves a fuel technology's display metadata from the fixture
// tables.
func (s *Service) fuelTechMeta(code string) (series.GroupMeta, bool) {
	ft, ok := s.fixtures.FuelTech(code)
	if !ok {
		return series.GroupMeta{}, false
	}
	return series.GroupMeta{Label: ft.Label, Renewable: ft.Renewable}, true
}

// buildSpec converts the wire request into a window spec. "all" periods seed
// their start from the cached availability range so the window covers the
// whole recorded history without scanning for it on every request.
func (s *Service) buildSpec(ctx context.Context, req v1.StatsRequest, plan queryPlan) (window.QuerySpec, *network.Network, error) {
	net, err := s.networks.Get(req.NetworkCode)
	if err != nil {
		return window.QuerySpec{}, nil, err
	}

	spec := window.QuerySpec{
		Network: net,
		Year:    req.Year,
		Now:     s.nowFn(),
	}

	token := req.Interval
	if token == "" {
		token = plan.defaultInterval
	}
	if token != "" {
		step, err := interval.ParseStep(token)
		if err != nil {
			return window.QuerySpec{}, nil, err
		}
		spec.Step = step
	}

	periodToken := req.Period
	if periodToken == "" && req.Year == 0 && req.Month == "" && !req.Forecast {
		periodToken = plan.defaultPeriod
	}
	if periodToken != "" {
		period, err := interval.ParsePeriod(periodToken)
		if err != nil {
			return window.QuerySpec{}, nil, err
		}
		spec.Period = &period

		if period.All {
			rng, err := s.boundaries.Get(ctx, []string{net.Code}, nil)
			if err != nil {
				return window.QuerySpec{}, nil, fmt.Errorf("availability range: %w", err)
			}
			spec.Start = rng.Start
		}
	}

	if req.Month != "" {
		m, err := time.Parse(monthLayout, req.Month)
		if err != nil {
			return window.QuerySpec{}, nil, fmt.Errorf("%w: month %q (want YYYY-MM)", window.ErrInvalidRange, req.Month)
		}
		spec.Month = &m
	}

	spec.Forecast = req.Forecast

	return spec, net, nil
}
