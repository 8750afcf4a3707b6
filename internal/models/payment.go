package models

import (
	"time"

	"github.com/fitcoachapp/fitcoach/internal/subscription"
)

// PaymentStatus — статус записи леджера платежей.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Terminal сообщает, является ли статус конечным. Из конечного статуса
// запись леджера не переходит обратно: повторная доставка вебхука с тем же
// идентификатором транзакции провайдера обрабатывается как no-op.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentSucceeded, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Payment — одна строка леджера: попытка списания и её исход.
// ProviderPaymentID — собственный идентификатор события у платёжного
// провайдера, глобально уникален и служит ключом идемпотентности.
type Payment struct {
	ID                int64                 `json:"id"`
	UserID            int64                 `json:"user_id"`
	Provider          string                `json:"provider"`
	ProviderPaymentID string                `json:"provider_payment_id"`
	Amount            int64                 `json:"amount"` // в минорных единицах валюты
	Currency          string                `json:"currency"`
	PlanType          subscription.PlanType `json:"plan_type"`
	Status            PaymentStatus         `json:"status"`
	CreatedAt         time.Time             `json:"created_at"`
	PaidAt            *time.Time            `json:"paid_at,omitempty"`
}
