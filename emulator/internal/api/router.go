package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/swaggo/swag"
	"golang.org/x/time/rate"

	"github.com/pigeonworks-llc/billed/emulator/internal/oauth"
	"github.com/pigeonworks-llc/billed/emulator/internal/store"
)

// RouterConfig wires the emulator handlers.
type RouterConfig struct {
	Store     *store.Store
	Tokens    *oauth.TokenManager
	Clients   []oauth.Client // empty accepts any client
	UploadDir string
	PublicURL string        // prefix of returned file URLs, optional
	Limiter   *rate.Limiter // upload limiter, optional
	Metrics   *Metrics      // optional
	Quiet     bool          // disables request logging
}

// NewRouter builds the emulator HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	oauthHandler := oauth.NewHandler(cfg.Tokens, cfg.Clients...)
	billsHandler := NewBillsHandler(cfg.Store)
	filesHandler := NewFilesHandler(cfg.Store, cfg.UploadDir, cfg.PublicURL, cfg.Metrics)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if !cfg.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	// OAuth2 endpoints (no authentication required).
	r.Post("/oauth/token", oauthHandler.HandleToken)

	r.Route("/api/v1", func(r chi.Router) {
		// Receipt URLs end up in <img> tags, so downloads are public.
		r.Get("/files/{key}", filesHandler.Download)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Tokens))

			r.Route("/bills", func(r chi.Router) {
				r.Get("/", billsHandler.List)
				r.Post("/", billsHandler.Create)
				r.Get("/{id}", billsHandler.Get)
				r.Put("/{id}", billsHandler.Put)
				r.Delete("/{id}", billsHandler.Delete)
			})

			r.With(RateLimitMiddleware(cfg.Limiter)).Post("/files", filesHandler.Upload)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			writeJSONError(w, http.StatusNotFound, "not_found", "API documentation not registered")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})

	return r
}
