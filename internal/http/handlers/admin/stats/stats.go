// Package stats реализует HTTP-обработчик сводной статистики для
// администратора: число пользователей по статусам подписки и суммарная
// выручка по успешным платежам.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/fitcoachapp/fitcoach/internal/http/response"
	"github.com/fitcoachapp/fitcoach/internal/lib/sl"
)

// Handler обрабатывает запросы сводной статистики.
type Handler struct {
	log  *slog.Logger
	repo Repository
}

// Repository описывает методы хранилища для сбора статистики.
type Repository interface {
	CountUsersByStatus(ctx context.Context) (map[string]int, error)
	SumSucceededAmount(ctx context.Context) (int64, error)
}

// New создает новый Handler с переданными логгером и хранилищем.
func New(log *slog.Logger, repo Repository) *Handler {
	return &Handler{
		log:  log,
		repo: repo,
	}
}

// ServeHTTP godoc
// @Summary Сводная статистика
// @Description Возвращает число пользователей по статусам подписки и выручку по успешным платежам в минорных единицах.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Статистика"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.stats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	counts, err := h.repo.CountUsersByStatus(r.Context())
	if err != nil {
		log.Error("failed to count users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not collect stats"))
		return
	}

	revenue, err := h.repo.SumSucceededAmount(r.Context())
	if err != nil {
		log.Error("failed to sum revenue", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not collect stats"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"users_by_status": counts,
		"revenue_minor":   revenue,
	}))
}
