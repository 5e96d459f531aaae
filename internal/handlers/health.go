package handlers

import "net/http"

// HealthHandler responds with service health information.
type HealthHandler struct{}

// Handle implements GET /healthz.
func (HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	respondSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"}, "health check passed")
}
