package cancel

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fitcoachapp/fitcoach/internal/services/user"
	"github.com/fitcoachapp/fitcoach/internal/storage/repository"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Cancel(ctx context.Context, telegramID int64) (*time.Time, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCancelHandler(t *testing.T) {
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		url        string
		setupMocks func(*MockService)
		wantStatus int
	}{
		{
			name: "success",
			url:  "/users/42/cancel",
			setupMocks: func(s *MockService) {
				s.On("Cancel", mock.Anything, int64(42)).Return(&end, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not active",
			url:  "/users/42/cancel",
			setupMocks: func(s *MockService) {
				s.On("Cancel", mock.Anything, int64(42)).Return(nil, user.ErrNotActive).Once()
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "unknown user",
			url:  "/users/42/cancel",
			setupMocks: func(s *MockService) {
				s.On("Cancel", mock.Anything, int64(42)).Return(nil, repository.ErrUserNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "bad telegram id",
			url:        "/users/abc/cancel",
			setupMocks: func(s *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMocks(svc)

			r := chi.NewRouter()
			r.Post("/users/{telegram_id}/cancel", New(newNoopLogger(), svc).ServeHTTP)

			req := httptest.NewRequest(http.MethodPost, tt.url, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
