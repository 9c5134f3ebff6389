package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/infra/counter"
	"server/internal/middleware"
)

// RouterOptions carries the cross-cutting pieces the router wires in front of
// the handlers. Store and Lookup may be nil; the matching middleware then
// degrades to a no-op or header-only behavior.
type RouterOptions struct {
	Store  counter.Store
	Lookup middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.CORSOrigins),
		middleware.I18N(app.Config.DefaultLocale, opts.Lookup),
	)
	if opts.Store != nil && app.Config.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.Store, app.Config.RateLimitPerMin, time.Minute, app.Logger))
	}

	r.Get("/v1/healthz", app.Health)

	r.Post("/v1/auth/google", app.GoogleAuth)

	// Synchronous conversion keeps no state; it only needs rate limiting.
	r.Post("/v1/sketch/batch", app.BatchConvert)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(app.Config.JWTSecret))

		r.Route("/v1/sketch/jobs", func(r chi.Router) {
			r.Post("/", app.JobsEnqueue)
			r.Get("/{jobID}", app.JobStatus)
			r.Get("/{jobID}/assets", app.JobAssets)
			r.Get("/{jobID}/download", app.JobDownload)
		})

		r.Get("/v1/stats/summary", app.StatsSummary)
	})

	return r
}
