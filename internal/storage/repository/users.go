package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fitcoachapp/fitcoach/internal/models"
	"github.com/fitcoachapp/fitcoach/internal/subscription"
)

const userColumns = `id, telegram_id, username, first_name, gender, age, height,
	current_weight, target_weight, goal, activity_level,
	daily_calories, daily_protein, daily_carbs, daily_fats,
	status, plan_type, trial_start, subscription_start, subscription_end,
	version, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var trialStart, subStart, subEnd sql.NullTime
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.Gender,
		&u.Age, &u.Height, &u.CurrentWeight, &u.TargetWeight, &u.Goal, &u.ActivityLevel,
		&u.DailyCalories, &u.DailyProtein, &u.DailyCarbs, &u.DailyFats,
		&u.Status, &u.PlanType, &trialStart, &subStart, &subEnd,
		&u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if trialStart.Valid {
		u.TrialStart = &trialStart.Time
	}
	if subStart.Valid {
		u.SubscriptionStart = &subStart.Time
	}
	if subEnd.Valid {
		u.SubscriptionEnd = &subEnd.Time
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int64
	query := `INSERT INTO users (telegram_id, username, first_name, status, trial_start)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.TelegramID, user.Username, user.FirstName, user.Status,
		user.TrialStart).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByID возвращает пользователя по внутреннему ID.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByTelegramID возвращает пользователя по идентификатору Telegram.
func (s *Storage) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	const op = "storage.GetUserByTelegramID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserForUpdateTx читает пользователя в транзакции с блокировкой строки
// (SELECT ... FOR UPDATE): конкурирующий переход по той же строке будет ждать
// завершения транзакции.
func (s *Storage) GetUserForUpdateTx(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error) {
	const op = "storage.GetUserForUpdateTx"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	u, err := scanUser(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateSubscriptionStateTx записывает новое подписочное состояние в рамках
// транзакции, в которой строка уже заблокирована GetUserForUpdateTx.
func (s *Storage) UpdateSubscriptionStateTx(ctx context.Context, tx *sql.Tx, id int64, st subscription.State) error {
	const op = "storage.UpdateSubscriptionStateTx"

	query := `UPDATE users
			  SET status = $2, plan_type = $3, trial_start = $4,
			      subscription_start = $5, subscription_end = $6,
			      version = version + 1, updated_at = NOW()
			  WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id,
		st.Status, st.PlanType, st.TrialStart, st.SubscriptionStart, st.SubscriptionEnd); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateSubscriptionStateCAS записывает новое подписочное состояние при
// условии совпадения версии строки (optimistic lock). Возвращает false,
// если строку успел изменить конкурирующий переход.
func (s *Storage) UpdateSubscriptionStateCAS(ctx context.Context, id, expectedVersion int64, st subscription.State) (bool, error) {
	const op = "storage.UpdateSubscriptionStateCAS"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET status = $3, plan_type = $4, trial_start = $5,
			      subscription_start = $6, subscription_end = $7,
			      version = version + 1, updated_at = NOW()
			  WHERE id = $1 AND version = $2`
	res, err := s.DB.ExecContext(ctx, query, id, expectedVersion,
		st.Status, st.PlanType, st.TrialStart, st.SubscriptionStart, st.SubscriptionEnd)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// AddDailyCalories атомарно сдвигает дневную норму калорий на delta.
func (s *Storage) AddDailyCalories(ctx context.Context, id int64, delta int) error {
	const op = "storage.AddDailyCalories"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET daily_calories = daily_calories + $2, updated_at = NOW()
			  WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, query, id, delta); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NutritionTargets — дневные нормы для записи в профиль.
type NutritionTargets struct {
	Calories int
	Protein  int
	Carbs    int
	Fats     int
}

// UpdateNutritionTargets записывает пересчитанные нормы КБЖУ.
func (s *Storage) UpdateNutritionTargets(ctx context.Context, id int64, t NutritionTargets) error {
	const op = "storage.UpdateNutritionTargets"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET daily_calories = $2, daily_protein = $3, daily_carbs = $4,
			      daily_fats = $5, updated_at = NOW()
			  WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, query, id, t.Calories, t.Protein, t.Carbs, t.Fats); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateProfile записывает анкету онбординга вместе с пересчитанными
// нормами КБЖУ одним запросом.
func (s *Storage) UpdateProfile(ctx context.Context, id int64, p models.DummyProfile, t NutritionTargets) error {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET gender = $2, age = $3, height = $4, current_weight = $5,
			      target_weight = $6, goal = $7, activity_level = $8,
			      daily_calories = $9, daily_protein = $10, daily_carbs = $11,
			      daily_fats = $12, updated_at = NOW()
			  WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id,
		p.Gender, p.Age, p.Height, p.CurrentWeight, p.TargetWeight,
		p.Goal, p.ActivityLevel,
		t.Calories, t.Protein, t.Carbs, t.Fats)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsersByStatus возвращает пользователей в любом из перечисленных статусов.
func (s *Storage) ListUsersByStatus(ctx context.Context, statuses ...subscription.Status) ([]*models.User, error) {
	const op = "storage.ListUsersByStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE status = ANY($1) ORDER BY id`
	list := make([]string, 0, len(statuses))
	for _, st := range statuses {
		list = append(list, string(st))
	}
	rows, err := s.DB.QueryContext(ctx, query, list)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// ListActiveExpiringWithin возвращает активных пользователей, подписка которых
// заканчивается в интервале (now, now+within].
func (s *Storage) ListActiveExpiringWithin(ctx context.Context, within time.Duration) ([]*models.User, error) {
	const op = "storage.ListActiveExpiringWithin"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users
			  WHERE status = 'active'
			    AND subscription_end > NOW()
			    AND subscription_end <= NOW() + make_interval(secs => $1)
			  ORDER BY subscription_end`
	rows, err := s.DB.QueryContext(ctx, query, within.Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// CountUsersByStatus возвращает количество пользователей в разрезе статусов.
func (s *Storage) CountUsersByStatus(ctx context.Context) (map[string]int, error) {
	const op = "storage.CountUsersByStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM users GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[status] = count
	}
	return result, rows.Err()
}
