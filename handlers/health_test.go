package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, StatusResponse{}, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data HealthResponse `json:"data"`
	}
	decodeBody(t, w, &response)
	assert.Equal(t, "healthy", response.Data.Status)
	assert.NotEmpty(t, response.Data.Timestamp)
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		checker    func() HealthChecker
		wantStatus int
		wantState  string
		wantDB     string
	}{
		{
			name: "healthy when database is available",
			checker: func() HealthChecker {
				m := new(MockHealthChecker)
				m.On("HealthCheck", mock.Anything).Return(nil)
				return m
			},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
			wantDB:     "healthy",
		},
		{
			name: "unhealthy when database check fails",
			checker: func() HealthChecker {
				m := new(MockHealthChecker)
				m.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))
				return m
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
			wantDB:     "unhealthy",
		},
		{
			name:       "memory store is always ready",
			checker:    func() HealthChecker { return nil },
			wantStatus: http.StatusOK,
			wantState:  "healthy",
			wantDB:     "in_memory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.checker(), StatusResponse{}, logger)

			w := httptest.NewRecorder()
			handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)

			var response struct {
				Data HealthResponse `json:"data"`
			}
			decodeBody(t, w, &response)
			assert.Equal(t, tt.wantState, response.Data.Status)
			assert.Equal(t, tt.wantDB, response.Data.Checks["database"])
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestHandleStatus(t *testing.T) {
	handler := NewHealthHandler(nil, StatusResponse{
		Environment: "development",
		StoreDriver: "memory",
		Providers:   []string{"google"},
	}, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data StatusResponse `json:"data"`
	}
	decodeBody(t, w, &response)
	assert.Equal(t, Version, response.Data.Version)
	assert.Equal(t, "memory", response.Data.StoreDriver)
	assert.Equal(t, []string{"google"}, response.Data.Providers)
}
