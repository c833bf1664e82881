package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupHealthTestRouter(handler *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", handler.Health)
	router.GET("/ready", handler.Ready)
	return router
}

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(nil, "ticket-booking-service", CapacityStoreMemory)
	router := setupHealthTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("expected healthy, got %s", response.Status)
	}
	if response.Service != "ticket-booking-service" {
		t.Errorf("expected ticket-booking-service, got %s", response.Service)
	}
	if response.Timestamp == "" {
		t.Error("expected timestamp to be set")
	}
}

func TestHealthHandler_Ready_MemoryStore(t *testing.T) {
	// Without redis the in-memory store is always ready
	handler := NewHealthHandler(nil, "ticket-booking-service", CapacityStoreMemory)
	router := setupHealthTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response ReadyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Status != "ready" {
		t.Errorf("expected ready, got %s", response.Status)
	}
	if response.CapacityStore != CapacityStoreMemory {
		t.Errorf("expected %s, got %s", CapacityStoreMemory, response.CapacityStore)
	}
}
