// Package login реализует HTTP-обработчик аутентификации администратора.
//
// Учетные данные сверяются с конфигурацией сервиса (пароль хранится как
// bcrypt-хэш), при успехе возвращается JWT для доступа к админским маршрутам.
package login

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/fitcoachapp/fitcoach/internal/http/response"
	"github.com/fitcoachapp/fitcoach/internal/lib/jwt"
	"github.com/fitcoachapp/fitcoach/internal/lib/password"
	"github.com/fitcoachapp/fitcoach/internal/lib/sl"
)

// Request — структура входных данных для авторизации администратора.
type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// Handler обрабатывает HTTP-запросы авторизации администратора.
type Handler struct {
	log          *slog.Logger
	maker        jwt.Maker
	validate     *validator.Validate
	username     string
	passwordHash string
}

// New создает новый экземпляр Handler с учетными данными из конфигурации.
func New(log *slog.Logger, maker jwt.Maker, username, passwordHash string) *Handler {
	return &Handler{
		log:          log,
		maker:        maker,
		validate:     validator.New(),
		username:     username,
		passwordHash: passwordHash,
	}
}

// ServeHTTP godoc
// @Summary Авторизация администратора
// @Description Аутентифицирует администратора по имени и паролю. Возвращает JWT.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные администратора"
// @Success 200 {object} map[string]any "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
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

	if req.Username != h.username || password.CompareHash(h.passwordHash, req.Password) != nil {
		log.Error("invalid credentials", slog.String("username", req.Username))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid credentials"))
		return
	}

	token, err := h.maker.GenerateToken(req.Username, "admin")
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not generate token"))
		return
	}

	log.Info("admin login success", slog.String("username", req.Username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token":    token,
		"username": req.Username,
		"role":     "admin",
	}))
}
