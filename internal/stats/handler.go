package stats

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/opennem/opennem-sub002/internal/api/v1"
	httperr "github.com/opennem/opennem-sub002/internal/core/errors"
	"github.com/opennem/opennem-sub002/internal/core/interval"
	"github.com/opennem/opennem-sub002/internal/core/network"
	"github.com/opennem/opennem-sub002/internal/core/series"
	"github.com/opennem/opennem-sub002/internal/core/window"
)

// RegisterRoutes registers all stats API routes on the given router.
// Each series family is reachable network-wide or per region.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/v1/stats/power/:network", s.handlerFor(s.PowerSeries))
	r.GET("/api/v1/stats/power/:network/:region", s.handlerFor(s.PowerSeries))
	r.GET("/api/v1/stats/energy/:network", s.handlerFor(s.EnergySeries))
	r.GET("/api/v1/stats/energy/:network/:region", s.handlerFor(s.EnergySeries))
	r.GET("/api/v1/stats/price/:network", s.handlerFor(s.PriceSeries))
	r.GET("/api/v1/stats/price/:network/:region", s.handlerFor(s.PriceSeries))
	r.GET("/api/v1/stats/demand/:network", s.handlerFor(s.DemandSeries))
	r.GET("/api/v1/stats/demand/:network/:region", s.handlerFor(s.DemandSeries))
}

type queryFunc func(ctx context.Context, req v1.StatsRequest) (*series.Set, error)

// handlerFor wraps one series query in the shared bind/error/serialize path.
func (s *Service) handlerFor(query queryFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req v1.StatsRequest
		if err := c.ShouldBindUri(&req); err != nil {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidJsonError,
				Message:   "Invalid path parameters",
				Details:   err.Error(),
			})
			return
		}
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidJsonError,
				Message:   "Invalid query parameters",
				Details:   err.Error(),
			})
			return
		}

		set, err := query(c.Request.Context(), req)
		if err != nil {
			writeQueryError(c, err)
			return
		}

		// A nil set is "no data", not a failure: callers distinguish it
		// from a malformed request by status.
		if set == nil {
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpNoDataError,
				Message:   "No data for query",
			})
			return
		}

		c.JSON(http.StatusOK, set)
	}
}

func writeQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, interval.ErrInvalidStep):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidIntervalError,
			Message:   "Invalid interval or period token",
			Details:   err.Error(),
		})
	case errors.Is(err, window.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRangeError,
			Message:   "Invalid query range",
			Details:   err.Error(),
		})
	case errors.Is(err, network.ErrUnknown):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpUnknownNetworkError,
			Message:   "Unknown network code",
			Details:   err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to run series query",
			Details:   err.Error(),
		})
	}
}
