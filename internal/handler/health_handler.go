package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/pkg/redis"
	"github.com/gin-gonic/gin"
)

// CapacityStoreRedis and CapacityStoreMemory identify which capacity
// store backend the process was wired with at startup.
const (
	CapacityStoreRedis  = "redis"
	CapacityStoreMemory = "memory"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	redis         *redis.Client
	serviceName   string
	capacityStore string
}

// NewHealthHandler creates a new HealthHandler. redis is nil when the
// process runs on the in-memory capacity store.
func NewHealthHandler(redis *redis.Client, serviceName, capacityStore string) *HealthHandler {
	return &HealthHandler{
		redis:         redis,
		serviceName:   serviceName,
		capacityStore: capacityStore,
	}
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Status        string `json:"status"`
	CapacityStore string `json:"capacity_store"`
	Timestamp     string `json:"timestamp"`
}

// Health returns a simple health check (liveness probe)
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   h.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready returns a readiness check (readiness probe). A process on the
// in-memory fallback store is ready; a process wired to Redis is ready
// only while Redis answers.
func (h *HealthHandler) Ready(c *gin.Context) {
	response := ReadyResponse{
		Status:        "ready",
		CapacityStore: h.capacityStore,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	if h.redis == nil {
		c.JSON(http.StatusOK, response)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.redis.HealthCheck(ctx); err != nil {
		response.Status = "not ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
