// Package subscription реализует машину состояний подписки пользователя.
// Пакет не содержит ни часов, ни ввода-вывода: текущий момент времени
// передаётся вызывающей стороной, а результат перехода — новое значение
// состояния. Все мутации статуса пользователя в системе обязаны проходить
// через функцию Apply.
package subscription

import "time"

// Status описывает статус доступа пользователя к платным функциям.
type Status string

const (
	// StatusTrial — пробный период после первого контакта.
	StatusTrial Status = "trial"
	// StatusActive — оплаченная подписка.
	StatusActive Status = "active"
	// StatusExpired — пробный период или подписка истекли.
	StatusExpired Status = "expired"
	// StatusCancelled — автопродление отключено, доступ сохраняется до конца
	// оплаченного периода.
	StatusCancelled Status = "cancelled"
)

// PlanType описывает тариф подписки.
type PlanType string

const (
	PlanMonthly   PlanType = "monthly"
	PlanQuarterly PlanType = "quarterly"
	PlanYearly    PlanType = "yearly"
)

// PlanDuration возвращает длительность тарифа. Второе значение false,
// если тариф неизвестен.
func PlanDuration(p PlanType) (time.Duration, bool) {
	switch p {
	case PlanMonthly:
		return 30 * 24 * time.Hour, true
	case PlanQuarterly:
		return 90 * 24 * time.Hour, true
	case PlanYearly:
		return 365 * 24 * time.Hour, true
	}
	return 0, false
}

// State — неизменяемый снимок подписочной части записи пользователя.
type State struct {
	Status            Status
	PlanType          PlanType
	TrialStart        *time.Time
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time
}

// Event — событие, переводящее подписку из одного состояния в другое.
// Размеченное объединение вместо строковых сравнений: каждый тип события
// несёт ровно те данные, которые нужны переходу.
type Event interface {
	eventName() string
}

// PaymentSucceeded — провайдер подтвердил успешный платёж за тариф Plan.
type PaymentSucceeded struct {
	Plan PlanType
}

// TrialElapsed — пробный период закончился (вычисляется планировщиком).
type TrialElapsed struct{}

// SubscriptionElapsed — оплаченный период закончился (вычисляется планировщиком).
type SubscriptionElapsed struct{}

// CancelRequested — пользователь отключил автопродление.
type CancelRequested struct{}

func (PaymentSucceeded) eventName() string    { return "payment_succeeded" }
func (TrialElapsed) eventName() string        { return "trial_elapsed" }
func (SubscriptionElapsed) eventName() string { return "subscription_elapsed" }
func (CancelRequested) eventName() string     { return "cancel_requested" }

// Apply применяет событие к состоянию и возвращает новое состояние.
// Второе значение false означает, что пара (состояние, событие) не входит
// в таблицу переходов и применение является no-op.
//
// Продление активной подписки складывает оставшееся время: новый период
// начинается с max(now, конец текущего периода), а не с момента оплаты.
func Apply(s State, e Event, now time.Time) (State, bool) {
	switch ev := e.(type) {
	case PaymentSucceeded:
		return applyPayment(s, ev.Plan, now)
	case TrialElapsed:
		if s.Status != StatusTrial {
			return s, false
		}
		s.Status = StatusExpired
		return s, true
	case SubscriptionElapsed:
		if s.Status != StatusActive {
			return s, false
		}
		s.Status = StatusExpired
		return s, true
	case CancelRequested:
		if s.Status != StatusActive {
			return s, false
		}
		// SubscriptionEnd не трогаем: доступ сохраняется до конца периода.
		s.Status = StatusCancelled
		return s, true
	}
	return s, false
}

func applyPayment(s State, plan PlanType, now time.Time) (State, bool) {
	duration, ok := PlanDuration(plan)
	if !ok {
		return s, false
	}

	start := now
	if s.Status == StatusActive && s.SubscriptionEnd != nil && s.SubscriptionEnd.After(now) {
		start = *s.SubscriptionEnd
	}
	end := start.Add(duration)

	s.Status = StatusActive
	s.PlanType = plan
	s.SubscriptionStart = &start
	s.SubscriptionEnd = &end
	return s, true
}

// TrialExpired сообщает, истёк ли пробный период к моменту now.
// Для состояния без даты начала пробного периода возвращает false.
func TrialExpired(s State, trialPeriod time.Duration, now time.Time) bool {
	if s.Status != StatusTrial || s.TrialStart == nil {
		return false
	}
	return now.After(s.TrialStart.Add(trialPeriod))
}

// Expired сообщает, истёк ли оплаченный период активной подписки к моменту now.
func Expired(s State, now time.Time) bool {
	if s.Status != StatusActive || s.SubscriptionEnd == nil {
		return false
	}
	return s.SubscriptionEnd.Before(now)
}
