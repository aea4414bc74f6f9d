package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	analyticshttp "linktrack/internal/analytics/delivery/http"
	"linktrack/internal/analytics/enrichment"
	linkhttp "linktrack/internal/linkservice/delivery/http"
	"linktrack/internal/metrics"
	"linktrack/internal/ratelimit"
)

// RouterDeps carries everything the router wires together.
type RouterDeps struct {
	Links     *linkhttp.Handler
	Stats     *analyticshttp.Handler
	Limiter   ratelimit.Limiter
	RateLimit int
	Pipeline  *enrichment.Pipeline
	Proxies   *enrichment.TrustedProxies
	Publisher RequestLogPublisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// NewRouter creates a new Chi router with all middleware and routes
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Probes and metrics sit outside the limiter and enrichment chain.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recoverer)
		r.Get("/healthz", deps.Links.Healthz)
		r.Get("/readyz", deps.Links.Readyz)
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(LoggerMiddleware(deps.Logger))
		r.Use(middleware.Recoverer)
		r.Use(RateLimitMiddleware(deps.Limiter, deps.RateLimit, deps.Proxies, deps.Metrics, deps.Logger))
		r.Use(EnrichMiddleware(deps.Pipeline, deps.Publisher, deps.Metrics, deps.Logger))

		// Root-level redirect route
		r.Get("/{slug}", deps.Links.Redirect)

		r.Route("/api", func(r chi.Router) {
			r.Route("/links", func(r chi.Router) {
				r.Post("/", deps.Links.CreateLink)
				r.Get("/", deps.Links.ListLinks)
				r.Post("/bulk", deps.Links.BulkCreateLinks)
				r.Put("/bulk", deps.Links.BulkUpdateLinks)
				r.Delete("/bulk", deps.Links.BulkDeleteLinks)

				r.Route("/{slug}", func(r chi.Router) {
					r.Get("/", deps.Links.GetLink)
					r.Put("/", deps.Links.UpdateLink)
					r.Delete("/", deps.Links.DeleteLink)
					r.Get("/stats", deps.Links.GetLinkStats)
				})
			})

			r.Route("/stats", func(r chi.Router) {
				r.Get("/", deps.Stats.GetTrafficStats)
				r.Get("/daily", deps.Stats.GetDailyClicks)
				r.Get("/hourly", deps.Stats.GetHourlyClicks)
				r.Get("/devices", deps.Stats.GetDeviceBreakdown)
				r.Get("/browsers", deps.Stats.GetBrowserBreakdown)
				r.Get("/os", deps.Stats.GetOSBreakdown)
				r.Get("/referrers", deps.Stats.GetReferrerBreakdown)
				r.Get("/top-links", deps.Stats.GetTopLinks)
			})

			r.Get("/logs", deps.Stats.GetRequestLogs)
		})
	})

	return r
}
