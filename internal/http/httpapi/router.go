package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"clipcast/internal/http/handlers"
	"clipcast/internal/infra"
	"clipcast/internal/middleware"
)

// Options carries router wiring that is not a handler dependency.
type Options struct {
	AuthSecret string
	Logger     infra.Logger
	// StaticDir, when set, serves materialized assets under /static for the
	// filesystem storage backend. Empty for object-storage deployments.
	StaticDir string
}

// NewRouter assembles the service's HTTP surface.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestLogger(opts.Logger),
	)

	r.Get("/v1/healthz", app.Health)

	// Webhook deliveries authenticate by signature, not bearer token.
	r.Post("/webhook", app.Webhook)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(opts.AuthSecret))
		r.Get("/me", app.Me)
		r.Post("/generate", app.Generate)
		r.Post("/check", app.Check)
		r.Post("/list", app.List)
		r.Post("/create-checkout-session", app.CreateCheckoutSession)
	})

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
