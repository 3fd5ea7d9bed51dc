package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongminglow/coursenese-be/internal/account"
	"github.com/hongminglow/coursenese-be/internal/avatar"
	"github.com/hongminglow/coursenese-be/internal/config"
	"github.com/hongminglow/coursenese-be/internal/http/handlers"
	"github.com/hongminglow/coursenese-be/internal/http/respond"
	"github.com/hongminglow/coursenese-be/internal/middleware"
	"github.com/hongminglow/coursenese-be/internal/storage"
)

// Store is everything the HTTP layer reads from the database.
type Store interface {
	storage.ProfileStore
	storage.CourseStore
	storage.RatingStore
	storage.CartStore
	storage.PortfolioStore
	storage.Pinger
}

// Deps are the collaborators built by main.
type Deps struct {
	Store    Store
	Accounts *account.Manager
	Avatars  avatar.Store
	Logger   *slog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// NewRouter builds the full route tree.
func NewRouter(cfg config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	guards := handlers.NewGuards(deps.Accounts)

	handlers.NewHealthHandler(time.Now(), deps.Store).Register(r)
	r.Handle("/metrics", promhttp.Handler())

	handlers.NewAuthHandler(deps.Accounts, guards).Register(r)
	handlers.NewUserHandler(deps.Store, deps.Avatars, guards).Register(r)
	handlers.NewCourseHandler(deps.Store, deps.Store, guards).Register(r)
	handlers.NewCartHandler(deps.Store, deps.Store, guards).Register(r)
	handlers.NewRatingHandler(deps.Store, deps.Store, guards).Register(r)
	handlers.NewPortfolioHandler(deps.Store).Register(r)

	if cfg.Avatar.Backend == config.AvatarBackendDisk {
		prefix := cfg.Avatar.URLPrefix
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Avatar.Dir))))
	}
	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
