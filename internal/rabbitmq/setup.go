package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Имена обменников ядра.
const (
	NotificationsExchange = "notifications"
	PlansExchange         = "plans"
)

// Ключи маршрутизации.
const (
	OutboundKey = "outbound"
	GenerateKey = "generate"
)

// QueueConfig описывает очередь и её привязку к обменнику.
type QueueConfig struct {
	Exchange   string
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очередь исходящих уведомлений
// (потребляется сервисом-отправителем).
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{Exchange: NotificationsExchange, QueueName: "notifications.outbound", RoutingKey: OutboundKey},
	}
}

// GetPlanQueues возвращает очередь запросов на перегенерацию планов
// (потребляется AI-воркером вне ядра).
func GetPlanQueues() []QueueConfig {
	return []QueueConfig{
		{Exchange: PlansExchange, QueueName: "plans.generate", RoutingKey: GenerateKey},
	}
}

// SetupChannel открывает канал, объявляет обменники и очереди с привязками.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	declared := make(map[string]bool)
	for _, q := range queues {
		if !declared[q.Exchange] {
			err = ch.ExchangeDeclare(
				q.Exchange,
				"direct",
				true,
				false,
				false,
				false,
				nil,
			)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			declared[q.Exchange] = true
		}

		queue, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := ch.QueueBind(queue.Name, q.RoutingKey, q.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return ch, nil
}
