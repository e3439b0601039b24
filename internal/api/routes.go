package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	mws := []Middleware{
		Recovery(h.logger),
		Tracing(h.tracer),
		Logging(h.logger),
	}
	if h.httpMetrics != nil {
		mws = append(mws, Metrics(h.httpMetrics))
	}
	chain := Chain(mws...)

	mux.Handle("GET /api", chain(http.HandlerFunc(h.APIInfo)))

	// Demo
	mux.Handle("GET /api/demo/health", chain(http.HandlerFunc(h.Health)))
	mux.Handle("GET /api/demo/users/{userId}", chain(http.HandlerFunc(h.GetUser)))
	mux.Handle("POST /api/demo/users", chain(http.HandlerFunc(h.CreateUser)))
	mux.Handle("GET /api/demo/slow", chain(http.HandlerFunc(h.Slow)))
	mux.Handle("GET /api/demo/error", chain(http.HandlerFunc(h.Error)))
	mux.Handle("GET /api/demo/metrics", chain(http.HandlerFunc(h.CustomMetrics)))
}
