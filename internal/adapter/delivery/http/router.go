// Package http provides the HTTP delivery layer for the short-link service.
// It contains the API handlers for creating and managing short links, the
// redirect endpoint that resolves them, and the request and response types.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
)

type routerOptions struct {
	ignoredPaths []string
	debugErrors  bool
}

type Option func(*routerOptions)

// WithIgnoredPaths lists root paths that answer 200 without resolving a short code.
func WithIgnoredPaths(paths ...string) Option {
	return func(o *routerOptions) {
		o.ignoredPaths = paths
	}
}

// WithDebugErrors exposes error messages and stack traces in server error responses.
func WithDebugErrors(enabled bool) Option {
	return func(o *routerOptions) {
		o.debugErrors = enabled
	}
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the short-link API.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, opts ...Option) *chi.Mux {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	h := newURLHandler(urlUseCase, validator.New(), o)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Route("/shorten", func(r chi.Router) {
			r.Get("/", h.shortenURLFromQuery)
			r.Post("/", h.shortenURL)

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Put("/", h.modifyURL)
				r.Get("/visits", h.listVisits)
			})
		})

		r.Get("/owners/{owner}/urls", h.listURLs)
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}
