package v1

// StatsRequest binds the user-facing query parameters for a series query.
// The stats service turns it into a window.QuerySpec.
type StatsRequest struct {
	NetworkCode string `uri:"network" binding:"required"`
	RegionCode  string `uri:"region"`

	// Interval is the bucket size token ("5m", "1h", "1d", "1M");
	// defaults to the network's native interval.
	Interval string `form:"interval"`

	// Period is the relative lookback token ("7d", "1Y", "all").
	Period string `form:"period"`

	// Year scopes the query to one calendar year.
	Year int `form:"year"`

	// Month scopes the query to one calendar month, formatted "2006-01".
	Month string `form:"month"`

	// Forecast flips the window forward from the base end.
	Forecast bool `form:"forecast"`
}
