package enrichment

import (
	"context"
	"net/http"
	"time"
)

// RequestContext is the enrichment result for one inbound request. It is
// computed once per request and reused by the request logger and the click
// recorder.
type RequestContext struct {
	ClientIP  string
	Location  Location
	UserAgent string
	UA        UAClassification
	Referrer  string
	// Headers is the small set of raw headers retained for audit.
	Headers map[string]string
}

// auditHeaders are retained verbatim on click events.
var auditHeaders = []string{"Accept-Language", "X-Forwarded-For"}

// Pipeline derives the RequestContext from raw request data. The geo resolver
// may be nil or unavailable; enrichment then degrades to empty geo fields.
type Pipeline struct {
	proxies    *TrustedProxies
	geo        GeoResolver
	detector   *DeviceDetector
	geoTimeout time.Duration
}

// NewPipeline creates an enrichment pipeline.
func NewPipeline(proxies *TrustedProxies, geo GeoResolver, detector *DeviceDetector, geoTimeout time.Duration) *Pipeline {
	return &Pipeline{
		proxies:    proxies,
		geo:        geo,
		detector:   detector,
		geoTimeout: geoTimeout,
	}
}

// Enrich builds the RequestContext for a request: resolved client IP, geo
// fields under a bounded lookup, UA classification and referrer.
func (p *Pipeline) Enrich(ctx context.Context, r *http.Request) RequestContext {
	rc := RequestContext{
		ClientIP:  p.proxies.ClientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}

	rc.Location = p.lookupGeo(ctx, rc.ClientIP)
	rc.UA = p.detector.Classify(rc.UserAgent)

	for _, name := range auditHeaders {
		if v := r.Header.Get(name); v != "" {
			if rc.Headers == nil {
				rc.Headers = make(map[string]string)
			}
			rc.Headers[name] = v
		}
	}

	return rc
}

// lookupGeo runs the geo lookup with a bounded timeout. Failures and
// timeouts degrade to an empty Location; they never fail the request.
func (p *Pipeline) lookupGeo(ctx context.Context, ip string) Location {
	if p.geo == nil {
		return Location{}
	}

	ctx, cancel := context.WithTimeout(ctx, p.geoTimeout)
	defer cancel()

	type result struct {
		loc Location
		err error
	}
	ch := make(chan result, 1)
	go func() {
		loc, err := p.geo.Lookup(ctx, ip)
		ch <- result{loc, err}
	}()

	select {
	case <-ctx.Done():
		return Location{}
	case res := <-ch:
		if res.err != nil {
			return Location{}
		}
		return res.loc
	}
}

type ctxKey struct{}

// NewContext stashes the RequestContext on a context.
func NewContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext retrieves the RequestContext stored by the enrichment
// middleware. The second return is false when enrichment did not run.
func FromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(RequestContext)
	return rc, ok
}
