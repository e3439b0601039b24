package api

import (
	"net/http"
)

// APIInfo возвращает описание API и список endpoints.
// GET /api
func (h *Handler) APIInfo(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, APIInfoResponse{
		Message:   "Welcome to Observability Demo API!",
		Status:    "UP",
		Timestamp: h.now().UnixMilli(),
		AvailableEndpoints: map[string]string{
			"health":             "/api/demo/health",
			"users":              "/api/demo/users",
			"slow":               "/api/demo/slow",
			"error":              "/api/demo/error",
			"metrics":            "/api/demo/metrics",
			"healthz":            "/healthz",
			"prometheus-metrics": "/metrics",
		},
	})
}
