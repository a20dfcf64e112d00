// internal/api/router.go
package api

import (
	"context"
	"net/http"
	"time"

	"provider-enrollment/internal/common/auth"
	apperrors "provider-enrollment/internal/common/errors"
	"provider-enrollment/internal/common/logger"
	"provider-enrollment/internal/models"
	createapplicationrecord "provider-enrollment/internal/workers/application/create-application-record"
	updateapplicationstatus "provider-enrollment/internal/workers/application/update-application-status"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, input *updateapplicationstatus.Input) (*models.Application, error)
}

type ApplicationCreator interface {
	Execute(ctx context.Context, userID string, input *createapplicationrecord.Input) (*models.Application, error)
}

// ApplicationReader serves the read-only application routes.
type ApplicationReader interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*models.Application, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Application, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, int, error)
	CountSubmittedSince(ctx context.Context, since time.Time) (int, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies wires the router. Checks maps a dependency name to its health check.
type Dependencies struct {
	Tokens       auth.Validator
	Status       StatusUpdater
	Intake       ApplicationCreator
	Applications ApplicationReader
	Users        UserCounter
	Checks       map[string]Pinger
	// MetricsHandler defaults to promhttp.Handler().
	MetricsHandler http.Handler
}

type Server struct {
	deps   Dependencies
	errs   *apperrors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewServer(deps Dependencies, log logger.Logger) *Server {
	log = log.WithFields(map[string]interface{}{"component": "api"})
	return &Server{
		deps:   deps,
		errs:   apperrors.NewErrorHandler(log),
		logger: log,
		now:    time.Now,
	}
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.accessLog)
	r.Use(s.recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	metricsHandler := s.deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Protect(s.deps.Tokens, s.logger))

		r.Route("/applications", func(r chi.Router) {
			r.Post("/", s.handleCreateApplication)
			r.Get("/", s.handleListApplications)
			r.Get("/{id}", s.handleGetApplication)
			r.With(auth.Authorize(auth.RoleAdmin)).Put("/{id}/status", s.handleUpdateStatus)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.Authorize(auth.RoleAdmin))
			r.Get("/applications/{id}", s.handleAdminGetApplication)
			r.Get("/stats", s.handleStats)
		})
	})

	return r
}
