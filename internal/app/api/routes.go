// Package api предоставляет маршруты HTTP-сервиса ядра.
package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fitcoachapp/fitcoach/internal/config"
	adminlogin "github.com/fitcoachapp/fitcoach/internal/http/handlers/admin/login"
	adminstats "github.com/fitcoachapp/fitcoach/internal/http/handlers/admin/stats"
	"github.com/fitcoachapp/fitcoach/internal/http/handlers/health"
	"github.com/fitcoachapp/fitcoach/internal/http/handlers/payment/paymentlist"
	"github.com/fitcoachapp/fitcoach/internal/http/handlers/payment/paymentwebhook"
	"github.com/fitcoachapp/fitcoach/internal/http/handlers/user/cancel"
	"github.com/fitcoachapp/fitcoach/internal/http/handlers/user/profile"
	"github.com/fitcoachapp/fitcoach/internal/http/handlers/user/read"
	"github.com/fitcoachapp/fitcoach/internal/http/handlers/user/register"
	"github.com/fitcoachapp/fitcoach/internal/http/handlers/user/weight"
	"github.com/fitcoachapp/fitcoach/internal/http/middlewarectx"
	"github.com/fitcoachapp/fitcoach/internal/lib/jwt"
	reconcileservice "github.com/fitcoachapp/fitcoach/internal/services/reconcile"
	userservice "github.com/fitcoachapp/fitcoach/internal/services/user"
	"github.com/fitcoachapp/fitcoach/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	userService *userservice.Service, reconcileService *reconcileservice.Service,
	db *repository.Storage, jwtMaker jwt.Maker) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Webhook endpoint (аутентификация подписью тела)
		r.Post("/payments/webhook/{provider}", paymentwebhook.New(logger, reconcileService).ServeHTTP)

		// Публичная группа для шлюза бота
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/users", register.New(logger, userService).ServeHTTP)
			r.Get("/users/{telegram_id}", read.New(logger, userService).ServeHTTP)
			r.Put("/users/{telegram_id}/profile", profile.New(logger, userService).ServeHTTP)
			r.Post("/users/{telegram_id}/weight", weight.New(logger, userService).ServeHTTP)
			r.Post("/users/{telegram_id}/cancel", cancel.New(logger, userService).ServeHTTP)
			r.Get("/users/{telegram_id}/payments", paymentlist.New(logger, userService).ServeHTTP)
		})

		// Админский API
		r.Post("/admin/login", adminlogin.New(logger, jwtMaker, cfg.AdminUsername, cfg.AdminPasswordHash).ServeHTTP)
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Get("/admin/stats", adminstats.New(logger, db).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
