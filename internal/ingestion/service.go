// Package ingestion accepts observation batches posted by the market
// crawlers and persists them. The crawlers themselves live outside this
// repo.
package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	v1 "github.com/opennem/opennem-sub002/internal/api/v1"
	"github.com/opennem/opennem-sub002/internal/core/interval"
	"github.com/opennem/opennem-sub002/internal/core/network"
	"github.com/opennem/opennem-sub002/internal/core/series"
	"github.com/opennem/opennem-sub002/internal/core/storage"
)

// ErrInvalidObservation marks batch validation failures that should return
// HTTP 400.
var ErrInvalidObservation = errors.New("invalid observation")

// Service validates and persists observation batches.
type Service struct {
	writer           storage.ObservationWriter
	networks         *network.Registry
	maxBodySizeBytes int
}

// NewService wires the ingest service. maxBodySizeMB caps the request body.
func NewService(writer storage.ObservationWriter, networks *network.Registry, maxBodySizeMB int) *Service {
	return &Service{
		writer:           writer,
		networks:         networks,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingest routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/v1/observations", s.IngestHandler)
}

// persistBatch converts wire observations to records and upserts them.
func (s *Service) persistBatch(ctx context.Context, batch *v1.ObservationBatch) (int, error) {
	records := make([]storage.ObservationRecord, 0, len(batch.Observations))
	for i := range batch.Observations {
		obs := &batch.Observations[i]
		if err := obs.Validate(); err != nil {
			return 0, fmt.Errorf("%w: observation %d: %v", ErrInvalidObservation, i, err)
		}
		net, err := s.networks.Get(obs.Network)
		if err != nil {
			return 0, fmt.Errorf("observation %d: %w", i, err)
		}

		value := series.Null
		if obs.Value != nil {
			value = series.NewValue(decimal.NewFromFloat(*obs.Value))
		}

		// Crawlers occasionally post ragged timestamps; snap them onto
		// the network's native bucket grid so upserts land on one row.
		step := interval.Step{Duration: net.NativeStep()}

		records = append(records, storage.ObservationRecord{
			Network:  net.Code,
			Facility: obs.Facility,
			Region:   obs.Region,
			FuelTech: obs.FuelTech,
			Metric:   obs.Metric,
			Interval: step.Truncate(obs.Interval),
			Value:    value,
		})
	}

	if err := s.writer.SaveObservations(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
