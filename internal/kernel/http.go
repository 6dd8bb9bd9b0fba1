// Package kernel assembles the HTTP handler: the global middleware stack,
// the operational endpoints and the /api routes.
package kernel

import (
	"net/http"

	"github.com/Rasmogul/greatsoko/app/routes"
	"github.com/Rasmogul/greatsoko/pkg/metrics"
	"github.com/Rasmogul/greatsoko/pkg/middleware"
	"github.com/Rasmogul/greatsoko/pkg/router"
)

// StoragePrefix is where the local blob disk is served.
const StoragePrefix = "/storage"

// Options carries everything the kernel mounts.
type Options struct {
	Handlers routes.Handlers

	// Limiter throttles per client IP; nil disables rate limiting.
	Limiter middleware.Limiter

	// Files serves StoragePrefix; nil when blobs live on S3.
	Files http.Handler
}

// New builds the router. Middleware order, outermost first: metrics,
// recovery, request id, access log, CORS, rate limit.
func New(o Options) *router.Router {
	r := router.New()

	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.CORSOptionsFromConfig()))
	if o.Limiter != nil {
		r.Use(middleware.RateLimit(o.Limiter))
	}

	r.Handle("/metrics", metrics.Handler())
	if o.Files != nil {
		r.Handle(StoragePrefix+"/*", o.Files)
	}

	routes.RegisterAPI(r, o.Handlers)
	return r
}
