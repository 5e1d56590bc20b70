package http

import (
	"log/slog"

	"github.com/cmlabs-hris/leave-backend-go/internal/config"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type Handlers struct {
	Config       ConfigHandler
	User         UserHandler
	Leave        LeaveHandler
	Notification NotificationHandler
}

func NewRouter(cfg *config.Config, logger *slog.Logger, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel(),
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/config/env", h.Config.Env)

		// EventSource authenticates with a short-lived token in the query
		r.Get("/notifications/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/users", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionUserRead)).Get("/", h.User.List)
				r.With(middleware.RequireAdmin).Post("/", h.User.Create)
				r.Get("/me", h.User.GetMe)
				r.Get("/me/balance", h.User.GetBalance)
			})

			r.Route("/leaves", func(r chi.Router) {
				r.Get("/constants", h.Leave.Constants)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionLeaveRead))
					r.Get("/", h.Leave.ListRequests)
					r.Get("/{id}", h.Leave.GetRequest)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionLeaveCreate))
					r.Post("/", h.Leave.CreateRequest)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionLeaveUpdate))
					r.Put("/{id}", h.Leave.UpdateRequest)
					r.Post("/{id}/cancel", h.Leave.CancelRequest)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionLeaveReview))
					r.Get("/review", h.Leave.ListReviewQueue)
					r.Post("/{id}/review", h.Leave.ReviewRequest)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Post("/read", h.Notification.MarkAsRead)
				r.Post("/read-all", h.Notification.MarkAllAsRead)
				r.Get("/sse-token", h.Notification.GetSSEToken)
				r.Delete("/{id}", h.Notification.Delete)
			})
		})
	})

	return r
}
