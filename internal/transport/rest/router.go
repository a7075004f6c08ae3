package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/admin-console/internal/transport"
	"github.com/frahmantamala/admin-console/internal/transport/middleware"
	"github.com/frahmantamala/admin-console/internal/transport/swagger"
	"github.com/go-chi/chi"
	"github.com/go-chi/cors"
)

// Platform holds what every server exposes besides its API.
type Platform struct {
	Health         *HealthHandler
	OpenAPI        []byte
	Metrics        http.Handler
	HTTPMetrics    *middleware.HTTPMetrics
	Observers      []middleware.RouteObserver
	AllowedOrigins []string
}

// RegisterAllRoutes installs the global middleware and platform routes on
// router, then mounts api under prefix.
func RegisterAllRoutes(router *chi.Mux, p Platform, prefix string, api func(r chi.Router), base *transport.BaseHandler, logger *slog.Logger) {
	origins := p.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger, base))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if p.HTTPMetrics != nil {
		router.Use(middleware.Instrument(p.HTTPMetrics, p.Observers...))
	}
	router.Use(middleware.LoggingMiddleware(logger))

	if p.OpenAPI != nil {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(p.OpenAPI)
		})
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}
	if p.Metrics != nil {
		router.Handle("/metrics", p.Metrics)
	}
	if p.Health != nil {
		router.Get("/health", p.Health.healthCheckHandler)
		router.Get("/ping", p.Health.pingHandler)
	}

	router.Route(prefix, api)
}
