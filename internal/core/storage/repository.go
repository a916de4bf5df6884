package storage

import (
	"context"
	"errors"
	"time"

	"github.com/opennem/opennem-sub002/internal/core/series"
	"github.com/opennem/opennem-sub002/internal/rangecache"
)

// ErrUnknownGroupBy is returned when a grouped query names a dimension the
// store cannot group by.
var ErrUnknownGroupBy = errors.New("unknown group-by dimension")

// Grouping dimensions accepted by ObservationQuery.GroupBy.
const (
	GroupByFuelTech = "fuel_tech"
	GroupByRegion   = "region"
	GroupByFacility = "facility"
)

// Metrics stored per observation row.
const (
	MetricPower       = "power"
	MetricEnergy      = "energy"
	MetricPrice       = "price"
	MetricDemand      = "demand"
	MetricTemperature = "temperature"
)

// ObservationQuery scopes a grouped row fetch to one network, an optional
// region/facility filter and a resolved time boundary.
type ObservationQuery struct {
	Network    string
	Region     string
	Facilities []string
	Metric     string
	GroupBy    string
	Start      time.Time
	End        time.Time
}

// ObservationStore is the row-query side of the storage collaborator: it
// returns observation rows already filtered and grouped for the aggregator.
type ObservationStore interface {
	Observations(ctx context.Context, q ObservationQuery) ([]series.Observation, error)
}

// ObservationWriter persists raw observations posted by the crawlers.
// Writes are upserts: a re-crawled interval replaces the previous value.
type ObservationWriter interface {
	SaveObservations(ctx context.Context, rows []ObservationRecord) error
}

// BoundaryStore answers the availability boundary query feeding the range
// cache.
type BoundaryStore interface {
	ObservationRange(ctx context.Context, networks, facilities []string) (rangecache.Range, error)
}

// ObservationRecord is the raw persisted shape of one observation.
type ObservationRecord struct {
	Network  string
	Facility string
	Region   string
	FuelTech string
	Metric   string
	Interval time.Time
	Value    series.Value
}
