package postgres

// SQL for observation storage. Grouped series queries are composed from the
// template below with whitelisted identifiers only.

const (
	// querySaveObservation upserts one observation. A re-crawled interval
	// replaces the stored value rather than duplicating the row.
	querySaveObservation = `
		INSERT INTO observations (
			network_id, facility_code, region, fuel_tech_id,
			metric, trading_interval, value
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (network_id, facility_code, metric, trading_interval)
		DO UPDATE SET
			value = EXCLUDED.value,
			region = EXCLUDED.region,
			fuel_tech_id = EXCLUDED.fuel_tech_id
	`

	// queryObservationRange is the availability boundary query feeding the
	// range cache. An empty facility array means "whole network(s)".
	queryObservationRange = `
		SELECT MIN(trading_interval), MAX(trading_interval)
		FROM observations
		WHERE network_id = ANY($1)
		  AND (cardinality($2::text[]) = 0 OR facility_code = ANY($2))
	`

	// queryObservationsByGroupTmpl is the grouped row query. The two
	// format slots take a whitelisted aggregate function and group column;
	// user input never reaches them.
	queryObservationsByGroupTmpl = `
		SELECT trading_interval, COALESCE(%[2]s, ''), %[1]s(value)
		FROM observations
		WHERE network_id = $1
		  AND metric = $2
		  AND ($3 = '' OR region = $3)
		  AND (cardinality($4::text[]) = 0 OR facility_code = ANY($4))
		  AND trading_interval >= $5
		  AND trading_interval <= $6
		GROUP BY trading_interval, COALESCE(%[2]s, '')
		ORDER BY trading_interval ASC
	`

	// querySchemaCheck verifies migrations ran before the adapter starts.
	querySchemaCheck = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'observations'
		)
	`
)
