package v1

import (
	"fmt"
	"time"
)

// Observation is the wire shape of one crawled market observation. The
// crawlers themselves live outside this repo; this is the contract they post
// against.
type Observation struct {
	// Network is the market/grid operator code, e.g. "NEM", "WEM".
	Network string `json:"network"`

	// Facility is the generating unit or measurement point code.
	Facility string `json:"facility"`

	// Region is the dispatch region within the network, e.g. "NSW1".
	Region string `json:"region,omitempty"`

	// FuelTech is the fuel technology code for generation observations.
	FuelTech string `json:"fuel_tech,omitempty"`

	// Metric names the measured quantity: power, energy, price, demand,
	// temperature.
	Metric string `json:"metric"`

	// Interval is the trading interval this observation belongs to.
	Interval time.Time `json:"interval"`

	// Value is the measured value. A null value is a known-empty reading
	// and is stored as such, not skipped.
	Value *float64 `json:"value"`
}

// Validate ensures the observation carries its required attributes.
func (o *Observation) Validate() error {
	if o.Network == "" {
		return fmt.Errorf("network is required")
	}
	if o.Facility == "" {
		return fmt.Errorf("facility is required")
	}
	if o.Metric == "" {
		return fmt.Errorf("metric is required")
	}
	if o.Interval.IsZero() {
		return fmt.Errorf("interval is required")
	}
	return nil
}

// ObservationBatch is the ingest request body.
type ObservationBatch struct {
	Observations []Observation `json:"observations"`
}
