package rest

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/errors"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/user"
	"github.com/claimguard/insurance-fraud-backend/internal/service/decisionpolicy"
)

// RegisterRequest creates a policyholder account.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest exchanges credentials for a bearer token.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a signed token and the authenticated user.
type TokenResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// SubmitClaimRequest creates a claim with already-uploaded document paths.
type SubmitClaimRequest struct {
	ClaimNumber string   `json:"claim_number" validate:"required"`
	ClaimType   string   `json:"claim_type" validate:"required"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount" validate:"required,gt=0"`
	Currency    string   `json:"currency" validate:"omitempty,len=3"`
	PolicyID    string   `json:"policy_id" validate:"required,uuid"`
	Documents   []string `json:"documents" validate:"dive,required"`
}

// UpdateStatusRequest moves a claim through its review lifecycle.
type UpdateStatusRequest struct {
	Status      string `json:"status" validate:"required,oneof=approved rejected investigating"`
	ReviewNotes string `json:"review_notes"`
}

// AnalyzeDocumentRequest points at one uploaded document.
type AnalyzeDocumentRequest struct {
	Path string `json:"path" validate:"required"`
}

// DecideRequest optionally overrides derived observation features.
type DecideRequest struct {
	Features map[string]float64 `json:"features" validate:"omitempty,dive,gte=0,lte=1"`
}

// FeedbackRequest records a reviewer correction.
type FeedbackRequest struct {
	WasCorrect *bool `json:"was_correct" validate:"required"`
}

// DecisionResponse is the blended decision for a claim.
type DecisionResponse struct {
	ClaimID    string  `json:"claim_id"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
	Source     string  `json:"source"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		writeJSON(w, appErr.StatusCode, errorResponse{Error: errorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
		}})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorBody{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	}})
}

// parseFeatures maps request feature names onto observation indexes.
// Unknown names are rejected by the caller's validation pass.
func parseFeatures(m map[string]float64) map[decisionpolicy.Feature]float64 {
	out := make(map[decisionpolicy.Feature]float64, len(m))
	for name, v := range m {
		for f := decisionpolicy.Feature(0); f < decisionpolicy.FeatureCount; f++ {
			if f.String() == name {
				out[f] = v
			}
		}
	}
	return out
}
