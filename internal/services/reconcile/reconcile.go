// Package reconcile сводит уведомления платёжных провайдеров с леджером
// платежей и состоянием подписки пользователя. Обработка идемпотентна:
// повторная доставка уведомления с тем же идентификатором транзакции
// провайдера не меняет ни леджер, ни подписку.
package reconcile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator"

	"github.com/fitcoachapp/fitcoach/internal/cache"
	"github.com/fitcoachapp/fitcoach/internal/lib/sl"
	"github.com/fitcoachapp/fitcoach/internal/models"
	"github.com/fitcoachapp/fitcoach/internal/paymentprovider"
	"github.com/fitcoachapp/fitcoach/internal/storage/repository"
	"github.com/fitcoachapp/fitcoach/internal/subscription"
)

var (
	// ErrInvalidSignature — подпись уведомления не прошла проверку.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedPayload — тело уведомления не разобрано или неполно.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrUnknownUser — уведомление ссылается на несуществующего пользователя.
	ErrUnknownUser = errors.New("unknown user")
	// ErrUnknownEvent — тип события уведомления не поддерживается.
	ErrUnknownEvent = errors.New("unknown webhook event")
)

// Verifier проверяет подлинность уведомления провайдера.
type Verifier interface {
	Verify(provider string, body []byte, signature string) error
}

// Repository описывает операции хранилища, нужные для сверки платежа.
type Repository interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	FindPaymentByProviderIDTx(ctx context.Context, tx *sql.Tx, providerPaymentID string) (*models.Payment, error)
	GetUserForUpdateTx(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error)
	InsertPaymentTx(ctx context.Context, tx *sql.Tx, p models.Payment) (bool, error)
	UpdateSubscriptionStateTx(ctx context.Context, tx *sql.Tx, id int64, st subscription.State) error
	MarkPaymentStatusTx(ctx context.Context, tx *sql.Tx, providerPaymentID string, status models.PaymentStatus, paidAt *time.Time) error
}

// Notifier публикует уведомление пользователю в очередь доставки.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Cache описывает сброс кешированных записей пользователя.
type Cache interface {
	Invalidate(key string) error
}

// Service выполняет сверку вебхуков платёжных провайдеров.
type Service struct {
	repo     Repository
	verifier Verifier
	notifier Notifier
	cache    Cache
	log      *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// New создаёт сервис сверки платежей.
func New(repo Repository, verifier Verifier, notifier Notifier, cacheStore Cache, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		verifier: verifier,
		notifier: notifier,
		cache:    cacheStore,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Result — итог обработки уведомления.
type Result struct {
	Duplicate bool
	Status    models.PaymentStatus
}

// ProcessWebhook проверяет подпись, разбирает тело уведомления и сводит его
// с леджером в одной транзакции. Повторное уведомление по транзакции в
// конечном статусе завершается успешно без изменений.
func (s *Service) ProcessWebhook(ctx context.Context, provider string, body []byte, signature string) (Result, error) {
	const op = "reconcile.ProcessWebhook"

	if err := s.verifier.Verify(provider, body, signature); err != nil {
		return Result{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}

	var payload paymentprovider.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, fmt.Errorf("%s: %w: %w", op, ErrMalformedPayload, err)
	}
	if err := s.validate.Struct(payload); err != nil {
		return Result{}, fmt.Errorf("%s: %w: %w", op, ErrMalformedPayload, err)
	}

	userID, err := payload.UserID()
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w: %w", op, ErrMalformedPayload, err)
	}

	status, ok := eventStatus(payload.Event)
	if !ok {
		return Result{}, fmt.Errorf("%s: %w: %s", op, ErrUnknownEvent, payload.Event)
	}

	now := s.now()
	var res Result
	var notification *models.Notification

	err = s.repo.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.repo.FindPaymentByProviderIDTx(ctx, tx, payload.Object.ID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if existing != nil && existing.Status.Terminal() {
			res = Result{Duplicate: true, Status: existing.Status}
			return nil
		}

		user, err := s.repo.GetUserForUpdateTx(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return fmt.Errorf("%s: %w: id %d", op, ErrUnknownUser, userID)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		amount, err := payload.AmountMinor()
		if err != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrMalformedPayload, err)
		}
		plan := subscription.PlanType(payload.PlanType())

		wasNew, err := s.repo.InsertPaymentTx(ctx, tx, models.Payment{
			UserID:            user.ID,
			Provider:          provider,
			ProviderPaymentID: payload.Object.ID,
			Amount:            amount,
			Currency:          payload.Object.Amount.Currency,
			PlanType:          plan,
			Status:            models.PaymentPending,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !wasNew {
			// Конкурирующая доставка того же уведомления успела вставить
			// строку леджера, пока эта ждала блокировку строки пользователя.
			// Её переход уже применён: повторять его нельзя.
			existing, err := s.repo.FindPaymentByProviderIDTx(ctx, tx, payload.Object.ID)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if existing != nil && existing.Status.Terminal() {
				res = Result{Duplicate: true, Status: existing.Status}
				return nil
			}
		}

		var paidAt *time.Time
		if status == models.PaymentSucceeded {
			next, changed := subscription.Apply(user.SubscriptionState(), subscription.PaymentSucceeded{Plan: plan}, now)
			if !changed {
				return fmt.Errorf("%s: %w: plan %q", op, ErrMalformedPayload, plan)
			}
			if err := s.repo.UpdateSubscriptionStateTx(ctx, tx, user.ID, next); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			paidAt = &now
			notification = &models.Notification{
				TelegramID: user.TelegramID,
				Kind:       models.NotificationPaymentAccepted,
				Text: fmt.Sprintf("🎉 Спасибо за оплату!\n\nТвоя подписка активирована до %s.",
					next.SubscriptionEnd.Format("02.01.2006")),
			}
		}

		if err := s.repo.MarkPaymentStatusTx(ctx, tx, payload.Object.ID, status, paidAt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		res = Result{Status: status}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if notification != nil {
		if err := s.cache.Invalidate(cache.UserKey(notification.TelegramID)); err != nil {
			s.log.Warn("failed to remove user from cache",
				slog.Int64("user_id", userID), sl.Err(err))
		}
		if err := s.notifier.Notify(ctx, *notification); err != nil {
			s.log.Error("failed to publish payment notification",
				slog.Int64("user_id", userID), sl.Err(err))
		}
	}

	s.log.Info("webhook reconciled",
		slog.String("provider", provider),
		slog.String("payment_id", payload.Object.ID),
		slog.String("status", string(res.Status)),
		slog.Bool("duplicate", res.Duplicate))
	return res, nil
}

// eventStatus сопоставляет тип события провайдера конечному статусу леджера.
func eventStatus(event string) (models.PaymentStatus, bool) {
	switch event {
	case paymentprovider.EventPaymentSucceeded:
		return models.PaymentSucceeded, true
	case paymentprovider.EventPaymentCanceled:
		return models.PaymentFailed, true
	case paymentprovider.EventRefundSucceeded:
		return models.PaymentRefunded, true
	}
	return "", false
}
