package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/weight-tracker-be/internal/api/handlers"
	"github.com/isdelr/weight-tracker-be/internal/auth"
	"github.com/isdelr/weight-tracker-be/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Service names reported by /health.
const (
	UserServiceName   = "user-management-api"
	WeightServiceName = "weight-tracking-api"
)

// NewUserRouter creates the router of the identity service.
func NewUserRouter(allowedOrigins []string, codec *auth.Codec, userService services.UserServiceProvider) *chi.Mux {
	r := newBaseRouter(UserServiceName, allowedOrigins)
	userHandler := handlers.NewUserHandler(userService)

	r.Get("/health", handlers.Health(UserServiceName))
	r.Post("/users", userHandler.Register)
	r.Post("/login", userHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(codec))
		r.Get("/users", userHandler.GetAll)
		r.Get("/users/{id}", userHandler.Get)
	})

	return r
}

// NewWeightRouter creates the router of the weight record service. Every
// /weights route requires a bearer token.
func NewWeightRouter(allowedOrigins []string, codec *auth.Codec, weightService services.WeightServiceProvider) *chi.Mux {
	r := newBaseRouter(WeightServiceName, allowedOrigins)
	weightHandler := handlers.NewWeightHandler(weightService)

	r.Get("/health", handlers.Health(WeightServiceName))

	r.Route("/weights", func(r chi.Router) {
		r.Use(auth.Middleware(codec))
		r.Get("/", weightHandler.List)
		r.Post("/", weightHandler.Create)
		r.Put("/", weightHandler.Update)
		r.Delete("/", weightHandler.Delete)
	})

	return r
}

// newBaseRouter wires the middleware shared by both services.
func newBaseRouter(service string, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger.With().Str("service", service).Logger()))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		var event *zerolog.Event
		if status >= http.StatusInternalServerError {
			event = hlog.FromRequest(r).Error()
		} else {
			event = hlog.FromRequest(r).Info()
		}
		event.
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Not Found"}` + "\n"))
	})

	return r
}
