package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/fitcoachapp/fitcoach/internal/models"
)

// PublishMessage публикует сообщение в RabbitMQ в формате JSON.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует доменные сообщения ядра: запросы на доставку
// уведомлений и на перегенерацию планов. Публикация fire-and-forget:
// ядро не ждёт ни доставки, ни генерации.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создает новый экземпляр Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Notify ставит уведомление в очередь доставки.
func (p *Publisher) Notify(_ context.Context, n models.Notification) error {
	return PublishMessage(p.ch, NotificationsExchange, OutboundKey, n)
}

// RequestRegeneration ставит в очередь запрос на перегенерацию плана питания.
func (p *Publisher) RequestRegeneration(_ context.Context, req models.PlanRequest) error {
	return PublishMessage(p.ch, PlansExchange, GenerateKey, req)
}
