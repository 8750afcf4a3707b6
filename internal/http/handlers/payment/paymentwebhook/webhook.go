// Package paymentwebhook реализует HTTP-обработчик уведомлений платёжных
// провайдеров.
//
// Handler читает тело уведомления, передаёт его сервису сверки вместе с
// подписью из заголовка X-Api-Signature и отображает ошибки сверки на
// HTTP-статусы. Повторная доставка уведомления обрабатывается как успех.
package paymentwebhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/fitcoachapp/fitcoach/internal/http/response"
	"github.com/fitcoachapp/fitcoach/internal/lib/sl"
	"github.com/fitcoachapp/fitcoach/internal/services/reconcile"
)

// Handler обрабатывает уведомления платёжных провайдеров.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис сверки платежей
}

// Service описывает интерфейс сервиса сверки уведомлений.
type Service interface {
	ProcessWebhook(ctx context.Context, provider string, body []byte, signature string) (reconcile.Result, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Уведомление платёжного провайдера
// @Description Принимает webhook о платеже, проверяет подпись и сводит его с леджером. Повторная доставка того же уведомления — успешный no-op.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param provider path string true "Платёжный провайдер (yookassa, stripe)"
// @Param X-Api-Signature header string true "HMAC-SHA256 подпись тела"
// @Success 200 {object} map[string]any "Уведомление обработано"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело уведомления"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments/webhook/{provider} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	provider := chi.URLParam(r, "provider")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request body"))
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()

	signature := r.Header.Get("X-Api-Signature")
	res, err := h.service.ProcessWebhook(r.Context(), provider, body, signature)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrInvalidSignature):
			log.Error("invalid webhook signature", slog.String("provider", provider))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid signature"))
		case errors.Is(err, reconcile.ErrMalformedPayload), errors.Is(err, reconcile.ErrUnknownEvent):
			log.Error("malformed webhook payload", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("malformed payload"))
		case errors.Is(err, reconcile.ErrUnknownUser):
			log.Error("webhook for unknown user", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("unknown user"))
		default:
			log.Error("failed to process webhook", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to process webhook"))
		}
		return
	}

	log.Info("webhook processed",
		slog.String("provider", provider),
		slog.String("payment_status", string(res.Status)),
		slog.Bool("duplicate", res.Duplicate))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment_status": res.Status,
		"duplicate":      res.Duplicate,
	}))
}
