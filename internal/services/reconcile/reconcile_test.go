package reconcile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fitcoachapp/fitcoach/internal/models"
	"github.com/fitcoachapp/fitcoach/internal/paymentprovider"
	"github.com/fitcoachapp/fitcoach/internal/storage/repository"
	"github.com/fitcoachapp/fitcoach/internal/subscription"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	args := m.Called(ctx)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(nil)
}

func (m *MockRepository) FindPaymentByProviderIDTx(ctx context.Context, tx *sql.Tx, providerPaymentID string) (*models.Payment, error) {
	args := m.Called(ctx, tx, providerPaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockRepository) GetUserForUpdateTx(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) InsertPaymentTx(ctx context.Context, tx *sql.Tx, p models.Payment) (bool, error) {
	args := m.Called(ctx, tx, p)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) UpdateSubscriptionStateTx(ctx context.Context, tx *sql.Tx, id int64, st subscription.State) error {
	args := m.Called(ctx, tx, id, st)
	return args.Error(0)
}

func (m *MockRepository) MarkPaymentStatusTx(ctx context.Context, tx *sql.Tx, providerPaymentID string, status models.PaymentStatus, paidAt *time.Time) error {
	args := m.Called(ctx, tx, providerPaymentID, status, paidAt)
	return args.Error(0)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(provider string, body []byte, signature string) error {
	args := m.Called(provider, body, signature)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func makeBody(t *testing.T, event, paymentID, userID, plan string) []byte {
	t.Helper()
	var payload paymentprovider.WebhookPayload
	payload.Event = event
	payload.Object.ID = paymentID
	payload.Object.Status = "succeeded"
	payload.Object.Amount.Value = "1290.00"
	payload.Object.Amount.Currency = "RUB"
	payload.Object.Metadata = map[string]string{"user_id": userID, "plan_type": plan}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func newService(repo *MockRepository, verifier *MockVerifier, notifier *MockNotifier, cacheStore *MockCache, now time.Time) *Service {
	svc := New(repo, verifier, notifier, cacheStore, newNoopLogger())
	svc.now = func() time.Time { return now }
	return svc
}

func TestProcessWebhook_Success(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	body := makeBody(t, paymentprovider.EventPaymentSucceeded, "pay-1", "7", "monthly")

	repo := new(MockRepository)
	verifier := new(MockVerifier)
	notifier := new(MockNotifier)
	cacheStore := new(MockCache)

	user := &models.User{ID: 7, TelegramID: 100500, Status: subscription.StatusTrial}

	verifier.On("Verify", "yookassa", body, "sig").Return(nil).Once()
	repo.On("WithTx", mock.Anything).Return(nil).Once()
	repo.On("FindPaymentByProviderIDTx", mock.Anything, mock.Anything, "pay-1").Return(nil, nil).Once()
	repo.On("GetUserForUpdateTx", mock.Anything, mock.Anything, int64(7)).Return(user, nil).Once()
	repo.On("InsertPaymentTx", mock.Anything, mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
		return p.UserID == 7 && p.ProviderPaymentID == "pay-1" &&
			p.Amount == 129000 && p.Status == models.PaymentPending
	})).Return(true, nil).Once()
	repo.On("UpdateSubscriptionStateTx", mock.Anything, mock.Anything, int64(7), mock.MatchedBy(func(st subscription.State) bool {
		return st.Status == subscription.StatusActive &&
			st.SubscriptionEnd != nil && st.SubscriptionEnd.Equal(now.Add(30*24*time.Hour))
	})).Return(nil).Once()
	repo.On("MarkPaymentStatusTx", mock.Anything, mock.Anything, "pay-1", models.PaymentSucceeded, &now).Return(nil).Once()
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.TelegramID == 100500 && n.Kind == models.NotificationPaymentAccepted
	})).Return(nil).Once()
	cacheStore.On("Invalidate", "user:tg:100500").Return(nil).Once()

	res, err := newService(repo, verifier, notifier, cacheStore, now).ProcessWebhook(context.Background(), "yookassa", body, "sig")
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, models.PaymentSucceeded, res.Status)
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
	cacheStore.AssertExpectations(t)
}

func TestProcessWebhook_DuplicateIsNoop(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	body := makeBody(t, paymentprovider.EventPaymentSucceeded, "pay-1", "7", "monthly")

	repo := new(MockRepository)
	verifier := new(MockVerifier)
	notifier := new(MockNotifier)
	cacheStore := new(MockCache)

	verifier.On("Verify", "yookassa", body, "sig").Return(nil).Once()
	repo.On("WithTx", mock.Anything).Return(nil).Once()
	repo.On("FindPaymentByProviderIDTx", mock.Anything, mock.Anything, "pay-1").
		Return(&models.Payment{ProviderPaymentID: "pay-1", Status: models.PaymentSucceeded}, nil).Once()

	res, err := newService(repo, verifier, notifier, cacheStore, now).ProcessWebhook(context.Background(), "yookassa", body, "sig")
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, models.PaymentSucceeded, res.Status)
	repo.AssertNotCalled(t, "GetUserForUpdateTx", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "InsertPaymentTx", mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	cacheStore.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestProcessWebhook_ConcurrentDeliveryAppliesOnce(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	body := makeBody(t, paymentprovider.EventPaymentSucceeded, "pay-1", "7", "monthly")

	repo := new(MockRepository)
	verifier := new(MockVerifier)
	notifier := new(MockNotifier)
	cacheStore := new(MockCache)

	user := &models.User{ID: 7, TelegramID: 100500, Status: subscription.StatusTrial}

	// Повторная доставка обгоняет первую: на момент поиска строки
	// леджера ещё нет, но к моменту вставки конкурент уже закоммитил её.
	verifier.On("Verify", "yookassa", body, "sig").Return(nil).Once()
	repo.On("WithTx", mock.Anything).Return(nil).Once()
	repo.On("FindPaymentByProviderIDTx", mock.Anything, mock.Anything, "pay-1").Return(nil, nil).Once()
	repo.On("GetUserForUpdateTx", mock.Anything, mock.Anything, int64(7)).Return(user, nil).Once()
	repo.On("InsertPaymentTx", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Once()
	repo.On("FindPaymentByProviderIDTx", mock.Anything, mock.Anything, "pay-1").
		Return(&models.Payment{ProviderPaymentID: "pay-1", Status: models.PaymentSucceeded}, nil).Once()

	res, err := newService(repo, verifier, notifier, cacheStore, now).ProcessWebhook(context.Background(), "yookassa", body, "sig")
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, models.PaymentSucceeded, res.Status)
	repo.AssertNotCalled(t, "UpdateSubscriptionStateTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkPaymentStatusTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	cacheStore.AssertNotCalled(t, "Invalidate", mock.Anything)
	repo.AssertExpectations(t)
}

func TestProcessWebhook_UnknownUser(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	body := makeBody(t, paymentprovider.EventPaymentSucceeded, "pay-2", "99", "monthly")

	repo := new(MockRepository)
	verifier := new(MockVerifier)
	notifier := new(MockNotifier)
	cacheStore := new(MockCache)

	verifier.On("Verify", "yookassa", body, "sig").Return(nil).Once()
	repo.On("WithTx", mock.Anything).Return(nil).Once()
	repo.On("FindPaymentByProviderIDTx", mock.Anything, mock.Anything, "pay-2").Return(nil, nil).Once()
	repo.On("GetUserForUpdateTx", mock.Anything, mock.Anything, int64(99)).
		Return(nil, repository.ErrUserNotFound).Once()

	_, err := newService(repo, verifier, notifier, cacheStore, now).ProcessWebhook(context.Background(), "yookassa", body, "sig")
	assert.ErrorIs(t, err, ErrUnknownUser)
	repo.AssertNotCalled(t, "InsertPaymentTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessWebhook_BadSignature(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	body := makeBody(t, paymentprovider.EventPaymentSucceeded, "pay-3", "7", "monthly")

	repo := new(MockRepository)
	verifier := new(MockVerifier)
	notifier := new(MockNotifier)
	cacheStore := new(MockCache)

	verifier.On("Verify", "yookassa", body, "bad").Return(paymentprovider.ErrBadSignature).Once()

	_, err := newService(repo, verifier, notifier, cacheStore, now).ProcessWebhook(context.Background(), "yookassa", body, "bad")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	repo.AssertNotCalled(t, "WithTx", mock.Anything)
}

func TestProcessWebhook_MalformedPayload(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		body []byte
	}{
		{name: "not json", body: []byte("{broken")},
		{name: "missing event", body: []byte(`{"object":{"id":"pay-4"}}`)},
		{name: "missing payment id", body: []byte(`{"event":"payment.succeeded","object":{}}`)},
		{name: "missing user metadata", body: []byte(`{"event":"payment.succeeded","object":{"id":"pay-4"}}`)},
		{name: "missing amount", body: []byte(`{"event":"payment.succeeded","object":{"id":"pay-4","metadata":{"user_id":"7","plan_type":"monthly"}}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			verifier := new(MockVerifier)
			notifier := new(MockNotifier)
			cacheStore := new(MockCache)
			verifier.On("Verify", "yookassa", tt.body, "sig").Return(nil).Once()

			_, err := newService(repo, verifier, notifier, cacheStore, now).ProcessWebhook(context.Background(), "yookassa", tt.body, "sig")
			assert.ErrorIs(t, err, ErrMalformedPayload)
			repo.AssertNotCalled(t, "WithTx", mock.Anything)
		})
	}
}

func TestProcessWebhook_CanceledDoesNotTouchSubscription(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	body := makeBody(t, paymentprovider.EventPaymentCanceled, "pay-5", "7", "monthly")

	repo := new(MockRepository)
	verifier := new(MockVerifier)
	notifier := new(MockNotifier)
	cacheStore := new(MockCache)

	user := &models.User{ID: 7, TelegramID: 100500, Status: subscription.StatusTrial}

	verifier.On("Verify", "yookassa", body, "sig").Return(nil).Once()
	repo.On("WithTx", mock.Anything).Return(nil).Once()
	repo.On("FindPaymentByProviderIDTx", mock.Anything, mock.Anything, "pay-5").Return(nil, nil).Once()
	repo.On("GetUserForUpdateTx", mock.Anything, mock.Anything, int64(7)).Return(user, nil).Once()
	repo.On("InsertPaymentTx", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Once()
	repo.On("MarkPaymentStatusTx", mock.Anything, mock.Anything, "pay-5", models.PaymentFailed, (*time.Time)(nil)).Return(nil).Once()

	res, err := newService(repo, verifier, notifier, cacheStore, now).ProcessWebhook(context.Background(), "yookassa", body, "sig")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, res.Status)
	repo.AssertNotCalled(t, "UpdateSubscriptionStateTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestProcessWebhook_NotificationFailureIsLoggedOnly(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	body := makeBody(t, paymentprovider.EventPaymentSucceeded, "pay-6", "7", "monthly")

	repo := new(MockRepository)
	verifier := new(MockVerifier)
	notifier := new(MockNotifier)
	cacheStore := new(MockCache)

	user := &models.User{ID: 7, TelegramID: 100500, Status: subscription.StatusTrial}

	verifier.On("Verify", "yookassa", body, "sig").Return(nil).Once()
	repo.On("WithTx", mock.Anything).Return(nil).Once()
	repo.On("FindPaymentByProviderIDTx", mock.Anything, mock.Anything, "pay-6").Return(nil, nil).Once()
	repo.On("GetUserForUpdateTx", mock.Anything, mock.Anything, int64(7)).Return(user, nil).Once()
	repo.On("InsertPaymentTx", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Once()
	repo.On("UpdateSubscriptionStateTx", mock.Anything, mock.Anything, int64(7), mock.Anything).Return(nil).Once()
	repo.On("MarkPaymentStatusTx", mock.Anything, mock.Anything, "pay-6", models.PaymentSucceeded, &now).Return(nil).Once()
	notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	cacheStore.On("Invalidate", "user:tg:100500").Return(errors.New("redis down")).Once()

	res, err := newService(repo, verifier, notifier, cacheStore, now).ProcessWebhook(context.Background(), "yookassa", body, "sig")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSucceeded, res.Status)
	cacheStore.AssertExpectations(t)
}
