package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// RouterOptions carries the cross-cutting HTTP settings.
type RouterOptions struct {
	// RateLimit is the per-IP request budget per minute. Zero disables limiting.
	RateLimit   int
	CORSOrigins []string
}

// NewRouter builds the chi router for the catalog API.
// redis may be nil when idempotent creation is disabled.
func NewRouter(handlers *Handlers, db, redis pinger, opts RouterOptions, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(CORS(opts.CORSOrigins))
	}
	if opts.RateLimit > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
	}

	r.Get("/api/v1/health", HealthHandlerFunc(db, redis, log))

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/travel", handlers.ListTravels)
		r.Post("/travel", handlers.CreateTravel)
		r.Get("/travel/{id:[0-9]+}", handlers.GetTravel)
		r.Delete("/travel/{id:[0-9]+}", handlers.DeleteTravel)
		r.Get("/travel/{search}", handlers.FindFirstTravelByCountry)
		r.Get("/trip/{search}", handlers.FindTravelsByCountry)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
