// Package http exposes the pipeline over a JSON API: upload ingestion,
// window summaries and classifications, the assignment triage surface,
// and the override mutations.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cwhub/internal/config"
	"cwhub/internal/middleware"
	"cwhub/internal/services"
	"cwhub/internal/store"
)

// Deps carries everything the router mounts.
type Deps struct {
	Uploads     *services.UploadService
	Reports     *services.ReportService
	Assignments *services.AssignmentService
	Store       *store.Store
	Logger      *slog.Logger
	Server      config.ServerConfig
}

// NewRouter assembles the middleware chain and the full route table.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compress(5))
	if d.Server.RateLimitRPS > 0 {
		r.Use(middleware.NewRateLimiter(d.Server.RateLimitRPS, d.Server.RateLimitBurst, logger).Handler)
	}

	upload := newUploadHandler(d.Uploads, logger)
	report := newReportHandler(d.Reports, logger)
	assign := newAssignmentHandler(d.Assignments, d.Store, logger)
	health := newHealthHandler(d.Store)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Post("/uploads", upload.Create)

		r.Get("/summaries", report.Summaries)
		r.Get("/summaries/export", report.Export)
		r.Get("/classifications", report.Classifications)

		r.Get("/assignments", assign.List)
		r.Get("/overrides", assign.Overrides)
		r.Put("/overrides/{entityKey}", assign.Put)
		r.Delete("/overrides/{entityKey}", assign.Delete)

		r.Delete("/history", assign.ClearHistory)
	})

	r.Get("/healthz", health.Check)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
