package ingestion

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/opennem/opennem-sub002/internal/api/v1"
	httperr "github.com/opennem/opennem-sub002/internal/core/errors"
	"github.com/opennem/opennem-sub002/internal/core/network"
)

// IngestHandler handles HTTP POST requests for observation batches.
func (s *Service) IngestHandler(c *gin.Context) {
	batch, err := s.parseBatch(c)
	if err != nil {
		return // parseBatch wrote the response
	}

	count, err := s.persistBatch(c.Request.Context(), batch)
	if err != nil {
		if errors.Is(err, network.ErrUnknown) {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpUnknownNetworkError,
				Message:   "Batch references an unknown network",
				Details:   err.Error(),
			})
			return
		}
		if errors.Is(err, ErrInvalidObservation) {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidJsonError,
				Message:   "Batch contains an invalid observation",
				Details:   err.Error(),
			})
			return
		}
		slog.Error("[Ingestion] Failed to persist batch", "error", err, "size", len(batch.Observations))
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to persist observations",
			Details:   err.Error(),
		})
		return
	}

	slog.Info("[Ingestion] Stored observation batch", "count", count)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "stored": count})
}

// parseBatch reads and decodes the body, enforcing the size cap. Writes the
// error response itself so the handler stays a straight line.
func (s *Service) parseBatch(c *gin.Context) (*v1.ObservationBatch, error) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1)

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to read request body",
		})
		return nil, err
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		c.JSON(http.StatusRequestEntityTooLarge, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Request body exceeds maximum allowed size",
			Details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		})
		return nil, errors.New("body too large")
	}

	var batch v1.ObservationBatch
	if err := json.Unmarshal(bodyBytes, &batch); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
			Details:   err.Error(),
		})
		return nil, err
	}

	if len(batch.Observations) == 0 {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Batch contains no observations",
		})
		return nil, errors.New("empty batch")
	}

	return &batch, nil
}
