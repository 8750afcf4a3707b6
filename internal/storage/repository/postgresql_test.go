package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcoachapp/fitcoach/internal/models"
	"github.com/fitcoachapp/fitcoach/internal/subscription"
)

func TestStorage_CreateUserAndGet(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	trialStart := time.Now().UTC()

	id, err := storage.CreateUser(ctx, models.User{
		TelegramID: 100500,
		Username:   "testuser",
		FirstName:  "Тест",
		Status:     subscription.StatusTrial,
		TrialStart: &trialStart,
	})
	require.NoError(t, err)
	require.Positive(t, id)

	byID, err := storage.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(100500), byID.TelegramID)
	assert.Equal(t, subscription.StatusTrial, byID.Status)
	require.NotNil(t, byID.TrialStart)
	assert.WithinDuration(t, trialStart, *byID.TrialStart, time.Second)

	byTelegramID, err := storage.GetUserByTelegramID(ctx, 100500)
	require.NoError(t, err)
	assert.Equal(t, byID.ID, byTelegramID.ID)

	_, err = storage.GetUserByTelegramID(ctx, 999999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_InsertPaymentTx_DuplicateProviderID(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	userID := factory.CreateUser(t, 1, subscription.StatusTrial, nil, nil)
	providerPaymentID := uuid.New().String()

	payment := models.Payment{
		UserID:            userID,
		Provider:          "yookassa",
		ProviderPaymentID: providerPaymentID,
		Amount:            129000,
		Currency:          "RUB",
		PlanType:          subscription.PlanMonthly,
		Status:            models.PaymentPending,
	}

	err := storage.WithTx(ctx, func(tx *sql.Tx) error {
		wasNew, err := storage.InsertPaymentTx(ctx, tx, payment)
		require.NoError(t, err)
		assert.True(t, wasNew)
		return nil
	})
	require.NoError(t, err)

	err = storage.WithTx(ctx, func(tx *sql.Tx) error {
		wasNew, err := storage.InsertPaymentTx(ctx, tx, payment)
		require.NoError(t, err)
		assert.False(t, wasNew)
		return nil
	})
	require.NoError(t, err)

	verify.VerifyPaymentCount(t, providerPaymentID, 1)
}

func TestStorage_MarkPaymentStatusTx_TerminalIsFrozen(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	userID := factory.CreateUser(t, 1, subscription.StatusTrial, nil, nil)
	providerPaymentID := factory.CreatePayment(t, userID, models.PaymentPending)

	paidAt := time.Now().UTC()
	err := storage.WithTx(ctx, func(tx *sql.Tx) error {
		return storage.MarkPaymentStatusTx(ctx, tx, providerPaymentID, models.PaymentSucceeded, &paidAt)
	})
	require.NoError(t, err)
	verify.VerifyPaymentStatus(t, providerPaymentID, models.PaymentSucceeded)

	// Повторный перевод из конечного статуса должен быть no-op.
	err = storage.WithTx(ctx, func(tx *sql.Tx) error {
		return storage.MarkPaymentStatusTx(ctx, tx, providerPaymentID, models.PaymentFailed, nil)
	})
	require.NoError(t, err)
	verify.VerifyPaymentStatus(t, providerPaymentID, models.PaymentSucceeded)
}

func TestStorage_UpdateSubscriptionStateCAS(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	end := time.Now().UTC().Add(30 * 24 * time.Hour)
	userID := factory.CreateActiveUser(t, 1, end)

	next := subscription.State{
		Status:          subscription.StatusCancelled,
		SubscriptionEnd: &end,
	}

	ok, err := storage.UpdateSubscriptionStateCAS(ctx, userID, 0, next)
	require.NoError(t, err)
	assert.True(t, ok)
	verify.VerifyUserStatus(t, userID, subscription.StatusCancelled, 1)

	// Устаревшая версия: запись уже изменена, обновление не проходит.
	ok, err = storage.UpdateSubscriptionStateCAS(ctx, userID, 0, next)
	require.NoError(t, err)
	assert.False(t, ok)
	verify.VerifyUserStatus(t, userID, subscription.StatusCancelled, 1)
}

// Несколько конкурирующих доставок одного вебхука должны оставить в леджере
// ровно одну запись и применить ровно один переход состояния.
func TestStorage_ConcurrentWebhookDeliveries(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	userID := factory.CreateUser(t, 1, subscription.StatusTrial, nil, nil)
	providerPaymentID := uuid.New().String()

	const deliveries = 8
	applied := make(chan struct{}, deliveries)

	var wg sync.WaitGroup
	for range deliveries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := storage.WithTx(ctx, func(tx *sql.Tx) error {
				user, err := storage.GetUserForUpdateTx(ctx, tx, userID)
				if err != nil {
					return err
				}

				paidAt := time.Now().UTC()
				wasNew, err := storage.InsertPaymentTx(ctx, tx, models.Payment{
					UserID:            user.ID,
					Provider:          "yookassa",
					ProviderPaymentID: providerPaymentID,
					Amount:            129000,
					Currency:          "RUB",
					PlanType:          subscription.PlanMonthly,
					Status:            models.PaymentSucceeded,
					PaidAt:            &paidAt,
				})
				if err != nil {
					return err
				}
				if !wasNew {
					return nil
				}

				next, _ := subscription.Apply(user.SubscriptionState(),
					subscription.PaymentSucceeded{Plan: subscription.PlanMonthly}, paidAt)
				if err := storage.UpdateSubscriptionStateTx(ctx, tx, user.ID, next); err != nil {
					return err
				}
				applied <- struct{}{}
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(applied)

	assert.Len(t, applied, 1, "exactly one delivery should apply the transition")
	verify.VerifyPaymentCount(t, providerPaymentID, 1)
	verify.VerifyUserStatus(t, userID, subscription.StatusActive, 1)
}

func TestStorage_ListUsersByStatus(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	trialStart := time.Now().UTC()
	end := time.Now().UTC().Add(10 * 24 * time.Hour)
	factory.CreateUser(t, 1, subscription.StatusTrial, &trialStart, nil)
	factory.CreateActiveUser(t, 2, end)
	factory.CreateUser(t, 3, subscription.StatusExpired, nil, nil)

	users, err := storage.ListUsersByStatus(ctx, subscription.StatusTrial, subscription.StatusActive)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(1), users[0].TelegramID)
	assert.Equal(t, int64(2), users[1].TelegramID)
}

func TestStorage_ListActiveExpiringWithin(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	now := time.Now().UTC()
	factory.CreateActiveUser(t, 1, now.Add(2*24*time.Hour))
	factory.CreateActiveUser(t, 2, now.Add(10*24*time.Hour))
	factory.CreateUser(t, 3, subscription.StatusExpired, nil, nil)
	expired := now.Add(-time.Hour)
	factory.CreateUser(t, 4, subscription.StatusActive, nil, &expired)

	users, err := storage.ListActiveExpiringWithin(ctx, 3*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].TelegramID)
}

func TestStorage_InsertWeightSampleUpdatesCurrentWeight(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	userID := factory.CreateUser(t, 1, subscription.StatusTrial, nil, nil)

	id, err := storage.InsertWeightSample(ctx, userID, 81.5, time.Now().UTC())
	require.NoError(t, err)
	require.Positive(t, id)

	user, err := storage.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.InDelta(t, 81.5, user.CurrentWeight, 0.001)
}

func TestStorage_RecentWeightSamplesNewestFirst(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	userID := factory.CreateUser(t, 1, subscription.StatusTrial, nil, nil)
	base := time.Now().UTC().Add(-10 * 24 * time.Hour)
	for i, w := range []float64{82.0, 81.4, 81.0, 80.7} {
		factory.CreateWeightSample(t, userID, w, base.Add(time.Duration(i)*24*time.Hour))
	}

	samples, err := storage.RecentWeightSamples(ctx, userID, 3)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.InDelta(t, 80.7, samples[0].Weight, 0.001)
	assert.InDelta(t, 81.0, samples[1].Weight, 0.001)
	assert.InDelta(t, 81.4, samples[2].Weight, 0.001)
}

func TestStorage_UpdateProfile(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	userID := factory.CreateUser(t, 1, subscription.StatusTrial, nil, nil)

	profile := models.DummyProfile{
		Gender:        "male",
		Age:           30,
		Height:        180,
		CurrentWeight: 85,
		TargetWeight:  78,
		Goal:          "weight_loss",
		ActivityLevel: "moderate",
	}
	targets := NutritionTargets{Calories: 2100, Protein: 160, Carbs: 200, Fats: 70}

	require.NoError(t, storage.UpdateProfile(ctx, userID, profile, targets))

	user, err := storage.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.Goal("weight_loss"), user.Goal)
	assert.Equal(t, 2100, user.DailyCalories)
	assert.InDelta(t, 85.0, user.CurrentWeight, 0.001)

	err = storage.UpdateProfile(ctx, userID+100, profile, targets)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_Stats(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	end := time.Now().UTC().Add(20 * 24 * time.Hour)
	trialUser := factory.CreateUser(t, 1, subscription.StatusTrial, nil, nil)
	activeUser := factory.CreateActiveUser(t, 2, end)
	factory.CreateActiveUser(t, 3, end)

	factory.CreatePayment(t, activeUser, models.PaymentSucceeded)
	factory.CreatePayment(t, activeUser, models.PaymentSucceeded)
	factory.CreatePayment(t, trialUser, models.PaymentFailed)

	counts, err := storage.CountUsersByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["trial"])
	assert.Equal(t, 2, counts["active"])

	sum, err := storage.SumSucceededAmount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(258000), sum)

	payments, err := storage.ListPaymentsByUser(ctx, activeUser)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}
