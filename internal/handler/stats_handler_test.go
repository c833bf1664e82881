package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayush-ak-725/ticket-booking-service/internal/dto"
	"github.com/gin-gonic/gin"
)

// MockStatsService is a mock implementation of StatsService for testing
type MockStatsService struct {
	GetMetricsFunc func(ctx context.Context) (*dto.MetricsResponse, error)
}

func (m *MockStatsService) GetMetrics(ctx context.Context) (*dto.MetricsResponse, error) {
	if m.GetMetricsFunc != nil {
		return m.GetMetricsFunc(ctx)
	}
	return nil, nil
}

func setupStatsTestRouter(handler *StatsHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/v1/metrics", handler.GetMetrics)
	return router
}

func TestStatsHandler_GetMetrics(t *testing.T) {
	t.Run("returns aggregate metrics", func(t *testing.T) {
		mockService := &MockStatsService{
			GetMetricsFunc: func(ctx context.Context) (*dto.MetricsResponse, error) {
				return &dto.MetricsResponse{
					TotalEvents:       3,
					TotalBookings:     42,
					ActiveHolds:       7,
					TotalSeatsBooked:  120,
					ExpiredHoldsTotal: 15,
				}, nil
			},
		}
		router := setupStatsTestRouter(NewStatsHandler(mockService))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response dto.MetricsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if response.TotalBookings != 42 {
			t.Errorf("expected 42 bookings, got %d", response.TotalBookings)
		}
		if response.ExpiredHoldsTotal != 15 {
			t.Errorf("expected 15 expired, got %d", response.ExpiredHoldsTotal)
		}
	})

	t.Run("service failure returns 500", func(t *testing.T) {
		mockService := &MockStatsService{
			GetMetricsFunc: func(ctx context.Context) (*dto.MetricsResponse, error) {
				return nil, context.DeadlineExceeded
			},
		}
		router := setupStatsTestRouter(NewStatsHandler(mockService))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var response dto.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err == nil {
			if response.Code != "INTERNAL_ERROR" {
				t.Errorf("expected code INTERNAL_ERROR, got %s", response.Code)
			}
		}
	})
}
