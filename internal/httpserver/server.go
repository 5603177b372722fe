package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"

	"github.com/flameborn/validator/internal/auth"
	"github.com/flameborn/validator/internal/catalog"
	"github.com/flameborn/validator/internal/config"
	"github.com/flameborn/validator/internal/directory"
	"github.com/flameborn/validator/internal/review"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	cfg       config.Config
	engine    *review.Engine
	directory *directory.Directory
	catalog   *catalog.Catalog
	db        Pinger
	verifier  *auth.Verifier
}

func New(cfg config.Config, engine *review.Engine, dir *directory.Directory, cat *catalog.Catalog, db Pinger, verifier *auth.Verifier) *Server {
	return &Server{cfg: cfg, engine: engine, directory: dir, catalog: cat, db: db, verifier: verifier}
}

func (s *Server) Router() http.Handler {
	logger := httplog.NewLogger("validator-service", httplog.Options{
		LogLevel:         s.cfg.LogLevel,
		JSON:             s.cfg.Production(),
		Concise:          true,
		RequestHeaders:   true,
		MessageFieldName: "message",
		Tags: map[string]string{
			"env": s.cfg.Environment,
		},
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", auth.DevWalletHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           3000,
	}).Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.verifier.Middleware)

		r.Route("/validator", func(r chi.Router) {
			r.Post("/submissions", s.handleCreateSubmission)
			r.Get("/submissions", s.handleListSubmissions)
			r.Get("/submissions/counts", s.handleSubmissionCounts)
			r.Get("/submissions/priority", s.handleSubmissionsByPriority)
			r.Post("/review", s.handleReview)
			r.Get("/profile", s.handleGetProfile)
			r.Post("/profile", s.handleCreateProfile)
			r.Put("/profile/{wallet}/active", s.handleSetActive)
			r.Get("/analytics", s.handleAnalytics)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", s.handleListCourses)
			r.Post("/", s.handleCreateCourse)
			r.Get("/{id}", s.handleGetCourse)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status := map[string]interface{}{
		"ok":   true,
		"time": time.Now().UTC(),
	}
	if err := s.db.Ping(ctx); err != nil {
		status["ok"] = false
		status["db"] = err.Error()
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}
