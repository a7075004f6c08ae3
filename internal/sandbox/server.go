// Package sandbox is a self-contained admin backend that speaks the same REST
// contract the console consumes. It is meant for local use and end-to-end
// tests, and keeps all data in memory.
package sandbox

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/syslog"
	"github.com/frahmantamala/admin-console/internal/transport"
	"github.com/frahmantamala/admin-console/internal/transport/middleware"
	"github.com/frahmantamala/admin-console/internal/transport/rest"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const APIPrefix = "/api"

type Server struct {
	*transport.BaseHandler
	cfg      internal.SandboxConfig
	store    *Store
	tokens   *JWTTokenGenerator
	stats    *APIStats
	registry *prometheus.Registry
	metrics  *middleware.HTTPMetrics
	openapi  []byte
	started  time.Time
	now      func() time.Time
}

type Option func(*options)

type options struct {
	bcryptCost int
	now        func() time.Time
}

// WithBcryptCost lowers hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(o *options) {
		o.bcryptCost = cost
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New builds a seeded sandbox. The embedded OpenAPI document is validated
// first.
func New(ctx context.Context, cfg internal.SandboxConfig, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	doc, err := LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}

	store := NewStore(o.now, o.bcryptCost)
	if err := store.Seed(); err != nil {
		return nil, err
	}

	tokens := NewJWTTokenGenerator(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokens.now = o.now

	registry := prometheus.NewRegistry()
	s := &Server{
		BaseHandler: transport.NewBaseHandler(logger, cfg.WrapResponses),
		cfg:         cfg,
		store:       store,
		tokens:      tokens,
		stats:       NewAPIStats(),
		registry:    registry,
		metrics:     middleware.NewHTTPMetrics(registry),
		openapi:     doc,
		started:     o.now(),
		now:         o.now,
	}
	return s, nil
}

func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Router assembles platform routes and the API under APIPrefix.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	platform := rest.Platform{
		Health:         rest.NewHealthHandler(map[string]rest.Check{"store": s.store.Ping}),
		OpenAPI:        s.openapi,
		Metrics:        promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}),
		HTTPMetrics:    s.metrics,
		Observers:      []middleware.RouteObserver{s.stats},
		AllowedOrigins: s.cfg.Origins(),
	}
	rest.RegisterAllRoutes(router, platform, APIPrefix, s.routes, s.BaseHandler, s.Logger)
	return router
}

func (s *Server) routes(r chi.Router) {
	r.Use(s.stats.Track)

	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/login", s.login)
		ar.Post("/refresh", s.refresh)
		ar.Post("/register", s.register)
		ar.Group(func(pr chi.Router) {
			pr.Use(middleware.Authenticate(s, s.BaseHandler))
			pr.Post("/logout", s.logout)
			pr.Get("/me", s.me)
			pr.Put("/profile", s.updateProfile)
			pr.Put("/password", s.changePassword)
			pr.Put("/force-change-password", s.forceChangePassword)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.Authenticate(s, s.BaseHandler))

		pr.Route("/users", s.userRoutes)
		pr.Route("/roles", s.roleRoutes)
		pr.Route("/menus", s.menuRoutes)
		pr.Route("/permissions", s.permissionRoutes)
		pr.Route("/logs", s.logRoutes)
		pr.Route("/dashboard", s.dashboardRoutes)
		pr.Route("/monitoring", s.monitoringRoutes)
	})
}

func (s *Server) guard(code string) func(http.Handler) http.Handler {
	return middleware.RequireMenuPermission(s.store, code, s.BaseHandler)
}

// VerifyAccessToken implements middleware.TokenVerifier.
func (s *Server) VerifyAccessToken(_ context.Context, token string) (middleware.Principal, error) {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return middleware.Principal{}, err
	}
	if s.store.Revoked(claims.ID) {
		return middleware.Principal{}, ErrInvalidToken
	}
	u, err := s.store.User(claims.UserID)
	if err != nil || !u.IsActiveUser() {
		return middleware.Principal{}, ErrInvalidToken
	}
	return middleware.Principal{UserID: claims.UserID, Username: claims.Username, TokenID: claims.ID}, nil
}

// audit records an action in the system log.
func (s *Server) audit(r *http.Request, level syslog.Level, action, message string) {
	username := ""
	if p, ok := middleware.PrincipalFromContext(r.Context()); ok {
		username = p.Username
	}
	s.store.AddLog(syslog.Entry{
		Level:     level,
		Username:  username,
		Action:    action,
		Message:   message,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
}

func principal(r *http.Request) middleware.Principal {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return p
}
