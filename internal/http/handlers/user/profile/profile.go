// Package profile реализует HTTP-обработчик сохранения анкеты онбординга.
//
// По данным анкеты пересчитываются дневные нормы калорий и макронутриентов,
// результат возвращается в ответе.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/fitcoachapp/fitcoach/internal/http/response"
	"github.com/fitcoachapp/fitcoach/internal/lib/nutrition"
	"github.com/fitcoachapp/fitcoach/internal/lib/sl"
	"github.com/fitcoachapp/fitcoach/internal/models"
	"github.com/fitcoachapp/fitcoach/internal/storage/repository"
)

// Handler обрабатывает запросы на сохранение анкеты пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики анкеты.
type Service interface {
	SetupProfile(ctx context.Context, telegramID int64, req models.DummyProfile) (nutrition.Targets, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сохранить анкету онбординга
// @Description Сохраняет анкету пользователя и пересчитывает дневные нормы КБЖУ.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param telegram_id path int true "Telegram ID пользователя"
// @Param request body models.DummyProfile true "Анкета онбординга"
// @Success 200 {object} map[string]any "Пересчитанные нормы КБЖУ"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/{telegram_id}/profile [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.profile"
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

	var req models.DummyProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	targets, err := h.service.SetupProfile(r.Context(), telegramID, req)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to setup profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not setup profile"))
		return
	}

	log.Info("profile updated", slog.Int64("telegram_id", telegramID), slog.Int("calories", targets.Calories))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"targets": targets,
	}))
}
