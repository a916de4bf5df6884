package series

import (
	"time"
)

// Observation is the atomic unit consumed by the aggregator: one value for
// one (time bucket, group) pair. Rows are not necessarily dense.
type Observation struct {
	Timestamp time.Time
	Group     string
	Value     Value
}

// History is one series' gap-filled value run. Data holds exactly one entry
// per step-sized bucket between Start and Last inclusive, ordered by
// ascending time — buckets with no observation are explicit nulls.
type History struct {
	Start    time.Time `json:"start"`
	Last     time.Time `json:"last"`
	Interval string    `json:"interval"`
	Data     []Value   `json:"data"`
}

// Series is one labeled, gap-aware value sequence. The field names and
// null-padding convention are a compatibility surface with existing
// consumers of the exported JSON.
type Series struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Units    string `json:"units"`
	Network  string `json:"network,omitempty"`
	Region   string `json:"region,omitempty"`
	FuelTech string `json:"fuel_tech,omitempty"`

	// Label and Renewable carry the fuel technology's display metadata in
	// fuel-tech grouped sets; both are absent otherwise.
	Label     string `json:"label,omitempty"`
	Renewable bool   `json:"renewable,omitempty"`

	History History `json:"history"`
}

// Set is the result of one aggregator invocation: an ordered collection of
// labeled series plus provenance. Owned by the single request or export task
// that built it; never mutated concurrently.
type Set struct {
	Type      string    `json:"type"`
	Data      []Series  `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	Version   string    `json:"version"`
	Network   string    `json:"network,omitempty"`
	Region    string    `json:"region,omitempty"`
	Code      string    `json:"code,omitempty"`
}

// Append merges another set's series into this one. The receiver's
// provenance fields win.
func (s *Set) Append(other *Set) {
	if other == nil {
		return
	}
	s.Data = append(s.Data, other.Data...)
}
