package adaptation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fitcoachapp/fitcoach/internal/lib/sl"
	"github.com/fitcoachapp/fitcoach/internal/lib/trend"
	"github.com/fitcoachapp/fitcoach/internal/models"
	"github.com/fitcoachapp/fitcoach/internal/subscription"
)

// Repository описывает операции хранилища, нужные периодическим задачам.
type Repository interface {
	ListUsersByStatus(ctx context.Context, statuses ...subscription.Status) ([]*models.User, error)
	ListActiveExpiringWithin(ctx context.Context, within time.Duration) ([]*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateSubscriptionStateCAS(ctx context.Context, id, expectedVersion int64, st subscription.State) (bool, error)
	AddDailyCalories(ctx context.Context, id int64, delta int) error
	RecentWeightSamples(ctx context.Context, userID int64, limit int) ([]models.WeightSample, error)
}

// Notifier публикует уведомление пользователю в очередь доставки.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// PlanRequester ставит в очередь запрос на перегенерацию плана питания.
type PlanRequester interface {
	RequestRegeneration(ctx context.Context, req models.PlanRequest) error
}

// Service реализует тела периодических задач.
type Service struct {
	repo        Repository
	notifier    Notifier
	plans       PlanRequester
	log         *slog.Logger
	trialPeriod time.Duration
	now         func() time.Time
}

// New создаёт сервис периодических задач.
func New(repo Repository, notifier Notifier, plans PlanRequester, log *slog.Logger, trialPeriod time.Duration) *Service {
	return &Service{
		repo:        repo,
		notifier:    notifier,
		plans:       plans,
		log:         log,
		trialPeriod: trialPeriod,
		now:         time.Now,
	}
}

// RunExpirySweep переводит в expired пользователей с истёкшим пробным
// периодом или подпиской. Переход защищён compare-and-swap по версии:
// при конкурентном изменении строка перечитывается и переход повторяется
// один раз.
func (s *Service) RunExpirySweep(ctx context.Context) error {
	const op = "adaptation.RunExpirySweep"

	users, err := s.repo.ListUsersByStatus(ctx, subscription.StatusTrial, subscription.StatusActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	for _, user := range users {
		event, text := s.expiryEvent(user, now)
		if event == nil {
			continue
		}
		if err := s.expireUser(ctx, user, event, now); err != nil {
			if errors.Is(err, errConcurrentSkip) {
				s.log.Info("user changed concurrently, skipped", slog.Int64("user_id", user.ID))
			} else {
				s.log.Error("failed to expire user", slog.Int64("user_id", user.ID), sl.Err(err))
			}
			continue
		}
		subscriptionsExpired.WithLabelValues(string(user.Status)).Inc()
		s.notify(ctx, models.Notification{
			TelegramID: user.TelegramID,
			Kind:       models.NotificationExpired,
			Text:       text,
		})
	}
	return nil
}

func (s *Service) expiryEvent(user *models.User, now time.Time) (subscription.Event, string) {
	switch {
	case user.Status == subscription.StatusTrial && subscription.TrialExpired(user.SubscriptionState(), s.trialPeriod, now):
		return subscription.TrialElapsed{},
			"⏳ Пробный период закончился.\n\nОформи подписку, чтобы не потерять персональные планы и анализ прогресса: /subscribe"
	case user.Status == subscription.StatusActive && subscription.Expired(user.SubscriptionState(), now):
		return subscription.SubscriptionElapsed{},
			"⚠️ Твоя подписка закончилась.\n\nПродли её командой /subscribe"
	}
	return nil, ""
}

func (s *Service) expireUser(ctx context.Context, user *models.User, event subscription.Event, now time.Time) error {
	next, changed := subscription.Apply(user.SubscriptionState(), event, now)
	if !changed {
		return nil
	}
	ok, err := s.repo.UpdateSubscriptionStateCAS(ctx, user.ID, user.Version, next)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	// Версия изменилась: за время обхода пользователь мог оплатить
	// подписку. Перечитываем строку, заново проверяем условие истечения
	// и повторяем переход один раз.
	fresh, err := s.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		return err
	}
	event, _ = s.expiryEvent(fresh, now)
	if event == nil {
		return errConcurrentSkip
	}
	next, changed = subscription.Apply(fresh.SubscriptionState(), event, now)
	if !changed {
		return errConcurrentSkip
	}
	ok, err = s.repo.UpdateSubscriptionStateCAS(ctx, fresh.ID, fresh.Version, next)
	if err != nil {
		return err
	}
	if !ok {
		return errConcurrentSkip
	}
	return nil
}

var errConcurrentSkip = errors.New("concurrent update, user skipped")

// RunTrendAnalysis анализирует тренд веса активных пользователей и
// корректирует дневную калорийность по рекомендации.
func (s *Service) RunTrendAnalysis(ctx context.Context) error {
	const op = "adaptation.RunTrendAnalysis"

	users, err := s.repo.ListUsersByStatus(ctx, subscription.StatusTrial, subscription.StatusActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, user := range users {
		samples, err := s.repo.RecentWeightSamples(ctx, user.ID, trend.WindowSize)
		if err != nil {
			s.log.Error("failed to load weight samples", slog.Int64("user_id", user.ID), sl.Err(err))
			continue
		}
		rec, err := trend.Analyze(samples, user.Goal)
		if err != nil {
			if !errors.Is(err, trend.ErrInsufficientData) {
				s.log.Error("trend analysis failed", slog.Int64("user_id", user.ID), sl.Err(err))
			}
			continue
		}
		if rec.Classification == trend.ClassNone {
			continue
		}

		if rec.CalorieDelta != 0 {
			if err := s.repo.AddDailyCalories(ctx, user.ID, rec.CalorieDelta); err != nil {
				s.log.Error("failed to adjust calories", slog.Int64("user_id", user.ID), sl.Err(err))
				continue
			}
			calorieAdjustments.WithLabelValues(string(rec.Classification)).Inc()
		}
		s.notify(ctx, models.Notification{
			TelegramID: user.TelegramID,
			Kind:       models.NotificationProgress,
			Text:       progressMessage(rec.Classification),
		})
	}
	return nil
}

func progressMessage(c trend.Classification) string {
	switch c {
	case trend.ClassTooFast:
		return "⚠️ Ты теряешь вес слишком быстро. Я увеличу калории на 100 ккал."
	case trend.ClassStalled:
		return "📊 Вес не снижается. Уменьшу калории на 100 ккал и добавлю кардио."
	case trend.ClassOnTrack:
		return "✅ Отличный прогресс! Продолжай в том же духе!"
	case trend.ClassUnderGaining:
		return "📈 Нужно больше калорий для роста мышц. Добавлю 150 ккал."
	case trend.ClassTooFastGain:
		return "⚠️ Набор веса слишком быстрый. Уменьшу калории на 100 ккал."
	}
	return ""
}

// RunRenewalReminders напоминает о скором окончании подписки тем, у кого
// она истекает в ближайшие три дня.
func (s *Service) RunRenewalReminders(ctx context.Context) error {
	const op = "adaptation.RunRenewalReminders"

	users, err := s.repo.ListActiveExpiringWithin(ctx, 3*24*time.Hour)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	for _, user := range users {
		if user.SubscriptionEnd == nil {
			continue
		}
		daysLeft := int(user.SubscriptionEnd.Sub(now).Hours() / 24)
		s.notify(ctx, models.Notification{
			TelegramID: user.TelegramID,
			Kind:       models.NotificationRenewal,
			Text: fmt.Sprintf("⚠️ Твоя подписка заканчивается через %d дн.\n\n"+
				"Продли подписку сейчас, чтобы не потерять:\n"+
				"• Персональные планы питания\n"+
				"• Адаптивные тренировки\n"+
				"• Анализ прогресса\n\n"+
				"Нажми /subscribe для продления", daysLeft),
		})
	}
	return nil
}

// RunCheckinReminders отправляет утреннее напоминание о чек-ине всем
// пользователям с действующим доступом.
func (s *Service) RunCheckinReminders(ctx context.Context) error {
	const op = "adaptation.RunCheckinReminders"

	users, err := s.repo.ListUsersByStatus(ctx, subscription.StatusTrial, subscription.StatusActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, user := range users {
		s.notify(ctx, models.Notification{
			TelegramID: user.TelegramID,
			Kind:       models.NotificationCheckin,
			Text: "☀️ Доброе утро!\n\n" +
				"Не забудь:\n" +
				"• Взвеситься и записать вес\n" +
				"• Выпить стакан воды\n" +
				"• Проверить план на сегодня\n\n" +
				"Нажми /checkin для утреннего чек-ина!",
		})
	}
	return nil
}

// RunPlanRegeneration ставит в очередь запросы на генерацию недельного
// плана питания для всех пользователей с действующим доступом.
func (s *Service) RunPlanRegeneration(ctx context.Context) error {
	const op = "adaptation.RunPlanRegeneration"

	users, err := s.repo.ListUsersByStatus(ctx, subscription.StatusTrial, subscription.StatusActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, user := range users {
		req := models.PlanRequest{UserID: user.ID, TelegramID: user.TelegramID}
		if err := s.plans.RequestRegeneration(ctx, req); err != nil {
			s.log.Error("failed to request plan regeneration", slog.Int64("user_id", user.ID), sl.Err(err))
		}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, n models.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Error("failed to publish notification",
			slog.Int64("telegram_id", n.TelegramID), sl.Err(err))
	}
}
