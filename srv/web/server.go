package web

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/opd-ai/repairdoc/srv/config"
	"github.com/opd-ai/repairdoc/srv/exporter"
)

// Server is the HTTP front end over the project store and the
// export job manager.
type Server struct {
	router     chi.Router
	store      *ProjectStore
	jobs       *exporter.Manager
	uploadsDir string
	logger     *zap.Logger
}

// NewServer wires the store, job manager and routes from the given
// configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, dir := range []string{cfg.Dirs.Uploads, cfg.Dirs.Outputs, tempDir(cfg)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	store, err := NewProjectStore(cfg.Dirs.Data, logger.Named("store"))
	if err != nil {
		return nil, err
	}

	jobs := exporter.NewManager(exporter.ManagerConfig{
		OutputRoot:   cfg.Dirs.Outputs,
		Options:      cfg.Export.Options(tempDir(cfg)),
		JobTimeout:   cfg.Export.JobTimeout,
		DisposeDelay: cfg.Export.DisposeDelay,
		JobTTL:       cfg.Export.JobTTL,
	}, logger.Named("exporter"))

	s := &Server{
		router:     chi.NewRouter(),
		store:      store,
		jobs:       jobs,
		uploadsDir: cfg.Dirs.Uploads,
		logger:     logger,
	}
	s.setupRoutes(cfg)
	return s, nil
}

func tempDir(cfg *config.Config) string {
	if cfg.Dirs.Temp != "" {
		return cfg.Dirs.Temp
	}
	return os.TempDir()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes(cfg *config.Config) {
	s.router.Use(requestLogger(s.logger.Named("http")))
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsMiddleware)
	if cfg.Rate.Requests > 0 {
		s.router.Use(httprate.LimitByIP(cfg.Rate.Requests, cfg.Rate.Window))
	}

	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Get("/", s.handleListProjects)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Delete("/", s.handleDeleteProject)
				r.Put("/title", s.handleSetTitle)
				r.Post("/items", s.handleAddItem)
				r.Route("/items/{itemID}", func(r chi.Router) {
					r.Delete("/", s.handleRemoveItem)
					r.Put("/description", s.handleSetDescription)
					r.Post("/move", s.handleMoveItem)
				})
				r.Post("/images", s.handleUploadImages)
				r.Post("/assign", s.handleAssignImages)
				r.Post("/export", s.handleExport)
				r.Get("/preview", s.handlePreview)
			})
		})
		r.Route("/jobs/{jobID}", func(r chi.Router) {
			r.Get("/", s.handleGetJob)
			r.Get("/download", s.handleDownload)
		})
	})
}
