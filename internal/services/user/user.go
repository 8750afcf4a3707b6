// Package user содержит бизнес-логику работы с пользователем: регистрация
// при первом контакте, анкета онбординга с пересчётом КБЖУ, журнал веса,
// отмена подписки и история платежей. Чтение профиля кешируется в Redis.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fitcoachapp/fitcoach/internal/cache"
	"github.com/fitcoachapp/fitcoach/internal/lib/nutrition"
	"github.com/fitcoachapp/fitcoach/internal/lib/sl"
	"github.com/fitcoachapp/fitcoach/internal/models"
	"github.com/fitcoachapp/fitcoach/internal/storage/repository"
	"github.com/fitcoachapp/fitcoach/internal/subscription"
)

// ErrNotActive возвращается при попытке отменить подписку, которая не активна.
var ErrNotActive = errors.New("subscription is not active")

// ErrConcurrentUpdate возвращается, когда переход не применился из-за
// конкурентного изменения записи пользователя.
var ErrConcurrentUpdate = errors.New("user changed concurrently")

// Repository определяет методы хранилища для работы с пользователями.
type Repository interface {
	CreateUser(ctx context.Context, user models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	UpdateSubscriptionStateCAS(ctx context.Context, id, expectedVersion int64, st subscription.State) (bool, error)
	UpdateProfile(ctx context.Context, id int64, p models.DummyProfile, t repository.NutritionTargets) error
	InsertWeightSample(ctx context.Context, userID int64, weight float64, takenAt time.Time) (int64, error)
	ListPaymentsByUser(ctx context.Context, userID int64) ([]*models.Payment, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует бизнес-логику работы с пользователем.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
	now   func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

const cacheTTL = 10 * time.Minute

// Register возвращает пользователя по Telegram ID, создавая его при первом
// контакте. Новый пользователь получает статус trial с отсчётом от текущего
// момента. Повторный вызов возвращает существующую запись без изменений.
func (s *Service) Register(ctx context.Context, req models.DummyUser) (*models.User, error) {
	const op = "user.Register"

	existing, err := s.repo.GetUserByTelegramID(ctx, req.TelegramID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	id, err := s.repo.CreateUser(ctx, models.User{
		TelegramID: req.TelegramID,
		Username:   req.Username,
		FirstName:  req.FirstName,
		Status:     subscription.StatusTrial,
		TrialStart: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("registered new user",
		slog.Int64("id", id), slog.Int64("telegram_id", req.TelegramID))

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheSet(user)
	return user, nil
}

// GetByTelegramID возвращает профиль пользователя, используя кеш.
func (s *Service) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	const op = "user.GetByTelegramID"

	var cached models.User
	found, err := s.cache.Get(cache.UserKey(telegramID), &cached)
	if err != nil {
		s.log.Warn("failed to read user from cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheSet(user)
	return user, nil
}

// SetupProfile сохраняет анкету онбординга и пересчитывает дневные нормы
// КБЖУ по формуле Миффлина-Сан Жеора.
func (s *Service) SetupProfile(ctx context.Context, telegramID int64, req models.DummyProfile) (nutrition.Targets, error) {
	const op = "user.SetupProfile"

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nutrition.Targets{}, repository.ErrUserNotFound
		}
		return nutrition.Targets{}, fmt.Errorf("%s: %w", op, err)
	}

	targets := nutrition.Calculate(req.Gender, req.Age, req.Height, req.CurrentWeight, req.ActivityLevel, req.Goal)
	err = s.repo.UpdateProfile(ctx, user.ID, req, repository.NutritionTargets{
		Calories: targets.Calories,
		Protein:  targets.Protein,
		Carbs:    targets.Carbs,
		Fats:     targets.Fats,
	})
	if err != nil {
		return nutrition.Targets{}, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheInvalidate(telegramID)
	return targets, nil
}

// LogWeight добавляет замер веса в журнал и обновляет текущий вес профиля.
func (s *Service) LogWeight(ctx context.Context, telegramID int64, weight float64) (int64, error) {
	const op = "user.LogWeight"

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, repository.ErrUserNotFound
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.InsertWeightSample(ctx, user.ID, weight, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheInvalidate(telegramID)
	return id, nil
}

// Cancel отменяет активную подписку. Доступ сохраняется до конца
// оплаченного периода, возвращается дата его окончания.
func (s *Service) Cancel(ctx context.Context, telegramID int64) (*time.Time, error) {
	const op = "user.Cancel"

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next, changed := subscription.Apply(user.SubscriptionState(), subscription.CancelRequested{}, s.now())
	if !changed {
		return nil, ErrNotActive
	}

	ok, err := s.repo.UpdateSubscriptionStateCAS(ctx, user.ID, user.Version, next)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		// Запись изменилась между чтением и записью, повторяем один раз.
		fresh, err := s.repo.GetUserByID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		next, changed = subscription.Apply(fresh.SubscriptionState(), subscription.CancelRequested{}, s.now())
		if !changed {
			return nil, ErrNotActive
		}
		ok, err = s.repo.UpdateSubscriptionStateCAS(ctx, fresh.ID, fresh.Version, next)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, ErrConcurrentUpdate
		}
	}

	s.cacheInvalidate(telegramID)
	s.log.Info("subscription cancelled", slog.Int64("user_id", user.ID))
	return next.SubscriptionEnd, nil
}

// ListPayments возвращает историю платежей пользователя, новые первыми.
func (s *Service) ListPayments(ctx context.Context, telegramID int64) ([]*models.Payment, error) {
	const op = "user.ListPayments"

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.repo.ListPaymentsByUser(ctx, user.ID)
}

func (s *Service) cacheSet(user *models.User) {
	key := cache.UserKey(user.TelegramID)
	if err := s.cache.Set(key, user, cacheTTL); err != nil {
		s.log.Warn("failed to cache user", slog.String("key", key), sl.Err(err))
	}
}

func (s *Service) cacheInvalidate(telegramID int64) {
	key := cache.UserKey(telegramID)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to remove user from cache", slog.String("key", key), sl.Err(err))
	}
}
