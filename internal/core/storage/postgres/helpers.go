package postgres

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/opennem/opennem-sub002/internal/core/series"
	"github.com/opennem/opennem-sub002/internal/core/storage"
)

// groupColumns maps query-level grouping dimensions to table columns. The
// map doubles as the identifier whitelist for the grouped query template.
var groupColumns = map[string]string{
	storage.GroupByFuelTech: "fuel_tech_id",
	storage.GroupByRegion:   "region",
	storage.GroupByFacility: "facility_code",
}

// aggregateFuncs picks the SQL reducer per metric: instantaneous metrics
// average across facilities, quantity metrics sum.
var aggregateFuncs = map[string]string{
	storage.MetricPower:       "SUM",
	storage.MetricEnergy:      "SUM",
	storage.MetricPrice:       "AVG",
	storage.MetricDemand:      "AVG",
	storage.MetricTemperature: "AVG",
}

func aggregateFor(metric string) string {
	if fn, ok := aggregateFuncs[metric]; ok {
		return fn
	}
	return "SUM"
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanObservationRow scans one grouped row into the aggregator's input
// shape. A NULL value (whole bucket null) stays a null datum.
func scanObservationRow(row scanner) (series.Observation, error) {
	var obs series.Observation
	var group sql.NullString
	var value sql.NullString

	if err := row.Scan(&obs.Timestamp, &group, &value); err != nil {
		return series.Observation{}, fmt.Errorf("failed to scan observation row: %w", err)
	}

	obs.Group = group.String
	if value.Valid {
		d, err := decimal.NewFromString(value.String)
		if err != nil {
			return series.Observation{}, fmt.Errorf("invalid observation value %q: %w", value.String, err)
		}
		obs.Value = series.NewValue(d)
	}

	return obs, nil
}

// nullDecimalArg converts a nullable datum to a driver argument.
func nullDecimalArg(v series.Value) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Decimal.String()
}
