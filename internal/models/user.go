// Package models содержит доменные структуры фитнес-бота: пользователя,
// платёж (запись леджера) и замер веса. Структуры используются в бизнес-логике
// и при работе с хранилищем.
package models

import (
	"time"

	"github.com/fitcoachapp/fitcoach/internal/subscription"
)

// Goal — цель пользователя, выбранная при онбординге.
type Goal string

const (
	GoalWeightLoss Goal = "weight_loss"
	GoalMuscleGain Goal = "muscle_gain"
	GoalMaintain   Goal = "maintain"
	GoalTone       Goal = "tone"
)

// ActivityLevel — уровень физической активности пользователя.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// User представляет пользователя бота.
//
// Подписочные поля (Status, PlanType, даты) мутируются только через машину
// состояний подписки; Version — счётчик версий строки для compare-and-swap
// при конкурирующих переходах. DailyCalories мутируется только анализатором
// тренда и пересчётом КБЖУ.
type User struct {
	ID         int64  `json:"id"`
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name"`

	Gender        string        `json:"gender,omitempty"`
	Age           int           `json:"age,omitempty"`
	Height        float64       `json:"height,omitempty"`
	CurrentWeight float64       `json:"current_weight,omitempty"`
	TargetWeight  float64       `json:"target_weight,omitempty"`
	Goal          Goal          `json:"goal,omitempty"`
	ActivityLevel ActivityLevel `json:"activity_level,omitempty"`

	DailyCalories int `json:"daily_calories"`
	DailyProtein  int `json:"daily_protein"`
	DailyCarbs    int `json:"daily_carbs"`
	DailyFats     int `json:"daily_fats"`

	Status            subscription.Status   `json:"status"`
	PlanType          subscription.PlanType `json:"plan_type,omitempty"`
	TrialStart        *time.Time            `json:"trial_start,omitempty"`
	SubscriptionStart *time.Time            `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time            `json:"subscription_end,omitempty"`
	Version           int64                 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscriptionState возвращает снимок подписочной части записи для машины состояний.
func (u *User) SubscriptionState() subscription.State {
	return subscription.State{
		Status:            u.Status,
		PlanType:          u.PlanType,
		TrialStart:        u.TrialStart,
		SubscriptionStart: u.SubscriptionStart,
		SubscriptionEnd:   u.SubscriptionEnd,
	}
}

// DummyUser используется для приёма данных регистрации из JSON-запроса,
// прежде чем конвертировать их в User.
type DummyUser struct {
	TelegramID int64  `json:"telegram_id" validate:"required,gt=0"` // Идентификатор Telegram
	Username   string `json:"username" validate:"omitempty"`        // @username (опционально)
	FirstName  string `json:"first_name" validate:"omitempty"`      // Имя
}

// DummyProfile используется для приёма анкеты онбординга из JSON-запроса.
// По этим данным пересчитываются дневные нормы КБЖУ.
type DummyProfile struct {
	Gender        string        `json:"gender" validate:"required,oneof=male female"`
	Age           int           `json:"age" validate:"required,gte=14,lte=100"`
	Height        float64       `json:"height" validate:"required,gt=100,lt=250"`
	CurrentWeight float64       `json:"current_weight" validate:"required,gt=20,lt=400"`
	TargetWeight  float64       `json:"target_weight" validate:"required,gt=20,lt=400"`
	Goal          Goal          `json:"goal" validate:"required,oneof=weight_loss muscle_gain maintain tone"`
	ActivityLevel ActivityLevel `json:"activity_level" validate:"required,oneof=sedentary light moderate active very_active"`
}
