// Package cancel реализует HTTP-обработчик отмены подписки.
//
// Отмена не прерывает доступ немедленно: он сохраняется до конца оплаченного
// периода, дата окончания возвращается в ответе.
package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/fitcoachapp/fitcoach/internal/http/response"
	"github.com/fitcoachapp/fitcoach/internal/lib/sl"
	"github.com/fitcoachapp/fitcoach/internal/services/user"
	"github.com/fitcoachapp/fitcoach/internal/storage/repository"
)

// Handler обрабатывает запросы на отмену подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики отмены подписки.
type Service interface {
	Cancel(ctx context.Context, telegramID int64) (*time.Time, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить подписку
// @Description Отменяет активную подписку. Доступ сохраняется до конца оплаченного периода.
// @Tags Users
// @Produce  json
// @Param telegram_id path int true "Telegram ID пользователя"
// @Success 200 {object} map[string]any "Дата окончания доступа"
// @Failure 400 {object} response.ErrorResponse "Некорректный Telegram ID"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Подписка не активна"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/{telegram_id}/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	telegramID, err := strconv.ParseInt(chi.URLParam(r, "telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to decode telegram_id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid telegram id"))
		return
	}

	end, err := h.service.Cancel(r.Context(), telegramID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, user.ErrNotActive):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("subscription is not active"))
		case errors.Is(err, user.ErrConcurrentUpdate):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("try again later"))
		default:
			log.Error("failed to cancel subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not cancel subscription"))
		}
		return
	}

	log.Info("subscription cancelled", slog.Int64("telegram_id", telegramID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"active_until": end,
	}))
}
