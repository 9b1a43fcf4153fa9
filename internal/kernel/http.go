// Package kernel assembles the HTTP handler: global middleware, the
// Prometheus endpoint, the API routes and JSON fallbacks.
package kernel

import (
	"net/http"

	"github.com/bistroboss/bistro/app/routes"
	"github.com/bistroboss/bistro/pkg/metrics"
	"github.com/bistroboss/bistro/pkg/middleware"
	"github.com/bistroboss/bistro/pkg/reqid"
	"github.com/bistroboss/bistro/pkg/response"
	"github.com/bistroboss/bistro/pkg/router"
)

// Options tunes the global middleware.
type Options struct {
	CORSOrigins []string
	// Limiter is optional; nil disables per-IP rate limiting.
	Limiter *middleware.RateLimiter
}

type HTTPKernel struct {
	router *router.Router
}

// NewHTTPKernel builds the router. Global middleware, outermost first:
//  1. Prometheus metrics, for accurate total latency
//  2. Recovery, before anything can panic
//  3. Request ID, before anything logs
//  4. Logger
//  5. CORS
//  6. Rate limiter
func NewHTTPKernel(api routes.API, opts Options) *HTTPKernel {
	r := router.New()

	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(opts.CORSOrigins...)))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware)
	}

	r.HandleFunc("/metrics", metrics.Handler())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	routes.RegisterAPI(r, api)

	return &HTTPKernel{router: r}
}

func (k *HTTPKernel) Router() *router.Router { return k.router }

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }
