// Package sender доставляет уведомления из очереди пользователям в Telegram.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fitcoachapp/fitcoach/internal/lib/sl"
	"github.com/fitcoachapp/fitcoach/internal/models"
)

// Transport отправляет текстовое сообщение пользователю Telegram.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Service обрабатывает сообщения очереди notifications.outbound.
type Service struct {
	transport Transport
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport Transport, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// HandleMessage разбирает уведомление из очереди и доставляет его.
// Ошибка возврата приводит к повторной постановке сообщения в очередь.
func (s *Service) HandleMessage(ctx context.Context, body []byte) error {
	const op = "sender.HandleMessage"

	// Нечитаемое сообщение не возвращаем в очередь: повторная доставка
	// не сделает его валидным.
	var notification models.Notification
	if err := json.Unmarshal(body, &notification); err != nil {
		s.log.Error("dropping unreadable notification", sl.Err(err))
		return nil
	}
	if notification.TelegramID == 0 || notification.Text == "" {
		s.log.Warn("dropping incomplete notification",
			slog.Int64("telegram_id", notification.TelegramID),
			slog.String("kind", notification.Kind))
		return nil
	}

	if err := s.transport.SendMessage(ctx, notification.TelegramID, notification.Text); err != nil {
		s.log.Error("failed to deliver notification",
			slog.Int64("telegram_id", notification.TelegramID),
			slog.String("kind", notification.Kind),
			sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("notification delivered",
		slog.Int64("telegram_id", notification.TelegramID),
		slog.String("kind", notification.Kind))
	return nil
}
