package api

import (
	"net/http"
	"time"

	"excelytics/app"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig wires the router to its services.
type RouterConfig struct {
	Auth     *app.AuthService
	Files    *app.FileService
	Insights *app.InsightService
	// Admin serves everything under /api/admin once the caller is an
	// authenticated admin.
	Admin          http.Handler
	DB             Pinger
	MaxUploadBytes int64
	AllowedOrigins []string
	// Per-IP limits per minute; zero disables the limiter.
	AuthRateLimit    int
	InsightRateLimit int
}

// DefaultRateLimits sets the per-minute limits used in production.
func (c *RouterConfig) DefaultRateLimits() {
	c.AuthRateLimit = 10
	c.InsightRateLimit = 20
}

// NewRouter builds the HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	h := &Handler{
		auth:     cfg.Auth,
		files:    cfg.Files,
		insights: cfg.Insights,
		db:       cfg.DB,
		maxBytes: cfg.MaxUploadBytes,
	}

	r := chi.NewRouter()
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(cfg.AllowedOrigins))

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	authLimit := RateLimitByIP(cfg.AuthRateLimit, time.Minute)
	r.Route("/api/auth", func(r chi.Router) {
		r.With(authLimit).Post("/register", h.Register)
		r.With(authLimit).Post("/login", h.Login)
		r.With(Authenticate(cfg.Auth)).Get("/me", h.Me)
	})

	r.Route("/api/files", func(r chi.Router) {
		r.Use(Authenticate(cfg.Auth))
		r.Post("/", h.UploadFile)
		r.Get("/", h.ListFiles)
		r.Post("/preview", h.PreviewFile)
		r.Get("/{id}", h.GetFile)
		r.Delete("/{id}", h.DeleteFile)
		r.Get("/{id}/chart", h.FileChart)
		r.With(RateLimitByIP(cfg.InsightRateLimit, time.Minute)).Post("/{id}/insights", h.FileInsights)
	})

	if cfg.Admin != nil {
		r.With(Authenticate(cfg.Auth), RequireAdmin).Mount("/api/admin", cfg.Admin)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, &APIResponse{Error: &APIError{Code: "NOT_FOUND", Message: "route not found"}})
	})
	return r
}
