package paymentwebhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fitcoachapp/fitcoach/internal/models"
	"github.com/fitcoachapp/fitcoach/internal/services/reconcile"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ProcessWebhook(ctx context.Context, provider string, body []byte, signature string) (reconcile.Result, error) {
	args := m.Called(ctx, provider, body, signature)
	return args.Get(0).(reconcile.Result), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func doRequest(svc *MockService, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post("/payments/webhook/{provider}", New(newNoopLogger(), svc).ServeHTTP)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook/yookassa", strings.NewReader(body))
	req.Header.Set("X-Api-Signature", "sig")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWebhookHandler(t *testing.T) {
	tests := []struct {
		name       string
		result     reconcile.Result
		err        error
		wantStatus int
	}{
		{
			name:       "processed",
			result:     reconcile.Result{Status: models.PaymentSucceeded},
			wantStatus: http.StatusOK,
		},
		{
			name:       "duplicate is success",
			result:     reconcile.Result{Duplicate: true, Status: models.PaymentSucceeded},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid signature",
			err:        reconcile.ErrInvalidSignature,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed payload",
			err:        reconcile.ErrMalformedPayload,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown event",
			err:        reconcile.ErrUnknownEvent,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown user",
			err:        reconcile.ErrUnknownUser,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "storage error",
			err:        errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("ProcessWebhook", mock.Anything, "yookassa", []byte(`{"event":"payment.succeeded"}`), "sig").
				Return(tt.result, tt.err).Once()

			rec := doRequest(svc, `{"event":"payment.succeeded"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
