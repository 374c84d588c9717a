package rest

import (
	"net/http"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/user"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/auth"
)

// NewRouter mounts every endpoint with its role policy applied. All
// /api/v1 routes sit behind token authentication except the auth pair,
// whose exact patterns take precedence over the guarded prefix route.
func NewRouter(h *Handler, authSvc auth.Service) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", MetricsHandler())
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)

	api := http.NewServeMux()
	reviewer := requireRoles(user.RoleEmployee, user.RoleAdmin)
	admin := requireRoles(user.RoleAdmin)

	api.HandleFunc("POST /api/v1/claims", h.SubmitClaim)
	api.HandleFunc("GET /api/v1/claims/{id}", h.GetClaim)
	api.HandleFunc("PATCH /api/v1/claims/{id}/status", reviewer(h.UpdateStatus))
	api.HandleFunc("GET /api/v1/claims/{id}/assessment", h.GetAssessment)
	api.HandleFunc("POST /api/v1/claims/{id}/decide", h.Decide)
	api.HandleFunc("POST /api/v1/claims/{id}/feedback", reviewer(h.Feedback))
	api.HandleFunc("POST /api/v1/documents/analyze", reviewer(h.AnalyzeDocument))
	api.HandleFunc("GET /api/v1/graph", reviewer(h.GetGraph))
	api.HandleFunc("POST /api/v1/policy/train", admin(h.TrainPolicy))

	mux.Handle("/api/v1/", authMiddleware(authSvc)(api))

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
