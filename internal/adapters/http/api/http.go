// Package api exposes the donor pipeline over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/okian/donorflow/internal/app"
	"github.com/okian/donorflow/pkg/logger"
)

// Service is what the handlers need from the pipeline service.
type Service interface {
	Run(ctx context.Context, req app.Request) (*app.Result, error)
	Submit(ctx context.Context, req app.Request) (string, error)
	Get(ctx context.Context, id string) (app.Run, error)
	Recent(ctx context.Context, n int) ([]app.Run, error)
	GetStats(ctx context.Context) app.Stats
}

// Server wires HTTP routes for the pipeline API.
type Server struct {
	svc          Service
	maxBodyBytes int64
	maxRunLimit  int
	logger       logger.Logger
}

// NewServer creates a server backed by svc.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:          svc,
		maxBodyBytes: defaultMaxBodyBytes,
		maxRunLimit:  defaultMaxRunLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Register attaches all routes to r.
func (s *Server) Register(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)

	r.Get("/healthz", HandleHealth)
	r.Get("/stats", s.handleStats)

	r.Route("/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Post("/pipeline", s.handleRunPipeline)
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", s.handleSubmitRun)
			r.Get("/", s.handleListRuns)
			r.Get("/{id}", s.handleGetRun)
			r.Get("/{id}/summaries.csv", s.handleExportCSV)
			r.Get("/{id}/summaries.xlsx", s.handleExportXLSX)
		})
	})
}

// Handler returns a router with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := statusOf(err); status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	writeError(w, r, err)
}
