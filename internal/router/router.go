package router

import (
	_ "embed"
	"net/http"

	"product-catalog/internal/handler"
	"product-catalog/internal/metrics"
	"product-catalog/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// openAPIDocument describes the request and response schema of every entry
// in productRoutes. Keep both in step.
//
//go:embed openapi.json
var openAPIDocument []byte

// route binds one method and pattern to a handler.
type route struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

// productRoutes lists every product endpoint.
func productRoutes(h *handler.ProductHandler) []route {
	return []route{
		{method: http.MethodGet, pattern: "/products", handler: h.FindAll},
		{method: http.MethodGet, pattern: "/products/{id}", handler: h.FindOne},
		{method: http.MethodPost, pattern: "/products", handler: h.Create},
		{method: http.MethodPatch, pattern: "/products/{id}", handler: h.Update},
		{method: http.MethodDelete, pattern: "/products/{id}", handler: h.Remove},
	}
}

// New creates a new HTTP router with all routes and middleware configured.
// Metrics are registered on reg and served from the same registry on /metrics.
func New(
	productHandler *handler.ProductHandler,
	reg *prometheus.Registry,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: Recovery -> RequestID -> Logging -> Metrics -> CORS -> TraceRoute
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(metrics.NewHTTPMetrics(reg)))
	r.Use(middleware.CORS)
	r.Use(middleware.TraceRoute)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(openAPIDocument)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	for _, rt := range productRoutes(productHandler) {
		r.Method(rt.method, rt.pattern, rt.handler)
	}

	// Spans start under the method alone; TraceRoute appends the route pattern.
	return otelhttp.NewHandler(r, "http-server",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return r.Method
		}),
	)
}
