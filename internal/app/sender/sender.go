// Package sender собирает сервис доставки уведомлений: потребитель очереди
// notifications.outbound и клиент Telegram Bot API.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/fitcoachapp/fitcoach/internal/config"
	"github.com/fitcoachapp/fitcoach/internal/rabbitmq"
	senderservice "github.com/fitcoachapp/fitcoach/internal/services/sender"
	"github.com/fitcoachapp/fitcoach/internal/telegram"
)

// App представляет приложение-отправитель.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New создает новый экземпляр приложения-отправителя.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	client := telegram.NewClient(cfg.BotToken, cfg.SendTimeout)
	senderService := senderservice.New(client, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителя очереди и работает до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	queue := rabbitmq.GetNotificationQueues()[0].QueueName
	err := rabbitmq.ConsumerMessage(ctx, a.ch, queue, func(body []byte) error {
		return a.senderService.HandleMessage(ctx, body)
	})
	if err != nil {
		a.logger.Error("failed to start notifications consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
