// Package paymentprovider описывает формат уведомлений платёжных провайдеров
// и проверку их подлинности. Сетевые детали протоколов провайдеров остаются
// за пределами ядра: сюда попадает уже прочитанное тело вебхука.
package paymentprovider

import (
	"fmt"
	"math"
	"strconv"
)

// Известные провайдеры.
const (
	ProviderYookassa = "yookassa"
	ProviderStripe   = "stripe"
)

// Типы событий уведомления.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentCanceled  = "payment.canceled"
	EventRefundSucceeded  = "refund.succeeded"
)

// WebhookPayload — общая форма уведомления провайдера о платеже.
type WebhookPayload struct {
	Event  string `json:"event" validate:"required"`
	Object struct {
		ID     string `json:"id" validate:"required"` // идентификатор транзакции провайдера
		Status string `json:"status"`
		Amount struct {
			Value    string `json:"value" validate:"required"` // сумма строкой, например "1290.00"
			Currency string `json:"currency"`
		} `json:"amount"`
		Metadata map[string]string `json:"metadata"` // user_id, plan_type
	} `json:"object"`
}

// UserID извлекает идентификатор пользователя из метаданных платежа.
func (p *WebhookPayload) UserID() (int64, error) {
	raw, ok := p.Object.Metadata["user_id"]
	if !ok {
		return 0, fmt.Errorf("metadata has no user_id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id %q: %w", raw, err)
	}
	return id, nil
}

// PlanType извлекает тариф из метаданных платежа.
func (p *WebhookPayload) PlanType() string {
	return p.Object.Metadata["plan_type"]
}

// AmountMinor конвертирует сумму из строки в минорные единицы валюты.
// Сумма обязательна и должна быть положительной.
func (p *WebhookPayload) AmountMinor() (int64, error) {
	value, err := strconv.ParseFloat(p.Object.Amount.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", p.Object.Amount.Value, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %q", p.Object.Amount.Value)
	}
	return int64(math.Round(value * 100)), nil
}
