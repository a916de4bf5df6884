// Package exporter publishes finished series sets as JSON files. The
// on-disk schema is a compatibility surface: field names and explicit null
// entries must survive any refactor.
package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	v1 "github.com/opennem/opennem-sub002/internal/api/v1"
	"github.com/opennem/opennem-sub002/internal/core/series"
	"github.com/opennem/opennem-sub002/internal/stats"
)

// Exporter serializes series sets and writes them to a target.
type Exporter struct {
	stats    *stats.Service
	target   Target
	networks []string
}

// New wires an exporter that publishes the given network codes.
func New(statsSvc *stats.Service, target Target, networks []string) *Exporter {
	return &Exporter{
		stats:    statsSvc,
		target:   target,
		networks: networks,
	}
}

// Marshal serializes a set with the compatibility schema.
func Marshal(set *series.Set) ([]byte, error) {
	body, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal series set: %w", err)
	}
	return body, nil
}

// Unmarshal decodes an exported file back into a set. Used by consumers and
// round-trip tests.
func Unmarshal(body []byte) (*series.Set, error) {
	var set series.Set
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal series set: %w", err)
	}
	return &set, nil
}

// Run publishes one export pass: the current power and energy sets for every
// configured network. Each run is tagged so target-side logs can correlate
// the files it produced.
func (e *Exporter) Run(ctx context.Context) error {
	runID := uuid.NewString()
	started := time.Now()
	var published int

	for _, netCode := range e.networks {
		for _, job := range []struct {
			name  string
			query func(context.Context, v1.StatsRequest) (*series.Set, error)
		}{
			{name: "power", query: e.stats.PowerSeries},
			{name: "energy", query: e.stats.EnergySeries},
		} {
			set, err := job.query(ctx, v1.StatsRequest{NetworkCode: netCode})
			if err != nil {
				return fmt.Errorf("export %s/%s: %w", netCode, job.name, err)
			}
			if set == nil {
				slog.Info("[Exporter] No data for export, skipping",
					"run_id", runID, "network", netCode, "series", job.name)
				continue
			}

			body, err := Marshal(set)
			if err != nil {
				return fmt.Errorf("export %s/%s: %w", netCode, job.name, err)
			}

			key := exportKey(netCode, job.name)
			if err := e.target.Write(ctx, key, body); err != nil {
				return fmt.Errorf("export %s/%s: %w", netCode, job.name, err)
			}
			published++
		}
	}

	slog.Info("[Exporter] Export run complete",
		"run_id", runID,
		"published", published,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

func exportKey(netCode, name string) string {
	return fmt.Sprintf("v3/stats/au/%s/%s.json", strings.ToUpper(netCode), name)
}
