package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
	"github.com/ayush-ak-725/ticket-booking-service/internal/dto"
	"github.com/ayush-ak-725/ticket-booking-service/internal/service"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HoldHandler handles seat hold HTTP requests
type HoldHandler struct {
	holdService service.HoldService
}

// NewHoldHandler creates a new hold handler
func NewHoldHandler(holdService service.HoldService) *HoldHandler {
	return &HoldHandler{
		holdService: holdService,
	}
}

// CreateHold handles POST /holds. The optional ttl_seconds query
// parameter requests a hold lifetime; out-of-range values are clamped.
func (h *HoldHandler) CreateHold(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.hold.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	// Absent or unparsable means "use the default"
	ttlSeconds := 0
	if raw := c.Query("ttl_seconds"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			ttlSeconds = v
		}
	}

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.Int("quantity", req.Qty),
		attribute.Int("ttl_seconds", ttlSeconds),
	)

	result, err := h.holdService.CreateHold(ctx, &req, ttlSeconds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("hold_id", result.HoldID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, result)
}

// GetHold handles GET /holds/:id
func (h *HoldHandler) GetHold(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.hold.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	holdID := c.Param("id")
	span.SetAttributes(attribute.String("hold_id", holdID))

	result, err := h.holdService.GetHold(ctx, holdID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// ExpireHold handles POST /holds/:id/expire. Holds already expired or
// confirmed report success=false instead of an error.
func (h *HoldHandler) ExpireHold(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.hold.expire")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	holdID := c.Param("id")
	span.SetAttributes(attribute.String("hold_id", holdID))

	result, err := h.holdService.ExpireHold(ctx, holdID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Bool("success", result.Success))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// handleError translates domain errors to HTTP responses
func (h *HoldHandler) handleError(c *gin.Context, err error) {
	var insufficientErr *domain.InsufficientSeatsError

	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "EVENT_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrHoldNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "HOLD_NOT_FOUND",
		})
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INSUFFICIENT_SEATS",
			Details: gin.H{
				"requested": insufficientErr.Requested,
				"available": insufficientErr.Available,
			},
		})
	case errors.Is(err, domain.ErrInsufficientSeats):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INSUFFICIENT_SEATS",
		})
	case errors.Is(err, domain.ErrHoldExpired):
		c.JSON(http.StatusGone, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "HOLD_EXPIRED",
		})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
