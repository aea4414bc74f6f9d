package http

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"linktrack/internal/analytics/enrichment"
	"linktrack/internal/metrics"
	"linktrack/internal/ratelimit"
	"linktrack/internal/shared/events"
	"linktrack/pkg/problemdetails"
)

// LoggerMiddleware returns a middleware that logs HTTP requests using Zap
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// RateLimitMiddleware admits or rejects requests per client IP before any
// other work happens. On a limiter backend error the request is let through.
func RateLimitMiddleware(limiter ratelimit.Limiter, limit int, proxies *enrichment.TrustedProxies, m *metrics.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := proxies.ClientIP(r)

			decision, err := limiter.Admit(r.Context(), ip)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))

			// An unavailable counter store admits the request. No Remaining
			// header: the zero-valued decision would report an empty bucket.
			if err != nil {
				logger.Warn("rate limiter backend error, admitting request",
					zap.String("client_ip", ip),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))

			if !decision.Allowed {
				m.RateLimitRejections.Inc()

				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(decision.RetryAfter).Unix()))

				problem := problemdetails.New(
					http.StatusTooManyRequests,
					problemdetails.TypeRateLimitExceeded,
					"Rate Limit Exceeded",
					"Too many requests. Please try again later.",
				)
				writeProblem(w, problem)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogPublisher hands request-log events to the dispatch bus.
type RequestLogPublisher interface {
	PublishRequestLog(event events.RequestLoggedEvent) error
}

// EnrichMiddleware derives the request context (client IP, geo, user agent)
// once per request, stashes it for downstream handlers, and publishes a
// request-log event. Probe, metrics and admin API endpoints are not logged.
func EnrichMiddleware(pipeline *enrichment.Pipeline, publisher RequestLogPublisher, m *metrics.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := pipeline.Enrich(r.Context(), r)
			r = r.WithContext(enrichment.NewContext(r.Context(), rc))

			if !isInternalPath(r.URL.Path) {
				event := events.RequestLoggedEvent{
					Time:     time.Now().UTC(),
					Method:   r.Method,
					Path:     r.URL.Path,
					ClientIP: rc.ClientIP,
					Country:  rc.Location.Country,
					Region:   rc.Location.Region,
					City:     rc.Location.City,
				}
				if err := publisher.PublishRequestLog(event); err != nil {
					m.PublishFailures.Inc()
					logger.Error("failed to publish request log event",
						zap.String("path", r.URL.Path),
						zap.Error(err),
					)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isInternalPath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics" ||
		strings.HasPrefix(path, "/api/")
}
