package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"docqa/internal/service"
	"docqa/internal/service/mocks"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		mockSetup  func(*mocks.MockDocumentService)
		wantStatus int
		wantBody   *HealthResponse
	}{
		{
			name:   "online",
			method: http.MethodGet,
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().Summary(gomock.Any()).Return(service.CorpusSummary{Documents: 2, Vectors: 31}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   &HealthResponse{Success: true, Status: "online", Documents: 2, Vectors: 31, Version: "1.2.0"},
		},
		{
			name:   "degraded",
			method: http.MethodGet,
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().Summary(gomock.Any()).Return(service.CorpusSummary{}, errors.New("database is closed"))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   &HealthResponse{Status: "degraded", Version: "1.2.0"},
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			mockSetup:  func(m *mocks.MockDocumentService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockDocumentService(ctrl)
			tt.mockSetup(mockService)
			handler := NewHealthHandler(mockService, "1.2.0")

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/health", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantBody == nil {
				return
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if _, err := time.Parse(time.RFC3339, resp.Timestamp); err != nil {
				t.Errorf("Timestamp %q is not RFC3339: %v", resp.Timestamp, err)
			}
			resp.Timestamp = ""
			if resp != *tt.wantBody {
				t.Errorf("ServeHTTP() = %+v, want %+v", resp, *tt.wantBody)
			}
		})
	}
}
