package handler

import (
	"net/http"

	"github.com/ayush-ak-725/ticket-booking-service/internal/dto"
	"github.com/ayush-ak-725/ticket-booking-service/internal/service"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
)

// StatsHandler handles the aggregate metrics endpoint
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetMetrics handles GET /metrics
func (h *StatsHandler) GetMetrics(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.stats.metrics")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	result, err := h.statsService.GetMetrics(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}
