package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/errors"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/user"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/values"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/auth"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/telemetry"
	"github.com/claimguard/insurance-fraud-backend/internal/service/claimanalysis"
	"github.com/claimguard/insurance-fraud-backend/internal/service/decisionpolicy"
	"github.com/claimguard/insurance-fraud-backend/internal/service/riskscoring"
)

// ClaimStore is the persistence surface the handlers need for claims.
type ClaimStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*claim.Claim, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*claim.Claim, error)
	Create(ctx context.Context, c *claim.Claim) error
	Update(ctx context.Context, c *claim.Claim) error
}

// Handler serves the assessment pipeline over HTTP.
type Handler struct {
	analysis claimanalysis.Service
	policy   decisionpolicy.Service
	claims   ClaimStore
	users    UserStore
	auth     auth.Service
	validate *validator.Validate
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewHandler(analysis claimanalysis.Service, policy decisionpolicy.Service, claims ClaimStore, users UserStore, authSvc auth.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		analysis: analysis,
		policy:   policy,
		claims:   claims,
		users:    users,
		auth:     authSvc,
		validate: validator.New(),
		logger:   logger,
		tracer:   telemetry.Tracer("api.rest"),
	}
}

func (h *Handler) decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewInputError("INVALID_BODY", "malformed request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return errors.NewInputError("VALIDATION_FAILED", err.Error())
	}
	return nil
}

// SubmitClaim creates a claim, runs forensic analysis over every attached
// document, and returns the claim with its initial risk assessment.
func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitClaim")
	defer span.End()

	claims, ok := authClaims(ctx)
	if !ok {
		writeError(w, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req SubmitClaimRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	policyID, err := uuid.Parse(req.PolicyID)
	if err != nil {
		writeError(w, errors.NewInputError("INVALID_POLICY_ID", "policy_id must be a UUID"))
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	amount, err := values.NewMoneyFromFloat(req.Amount, currency)
	if err != nil {
		writeError(w, errors.NewInputError("INVALID_AMOUNT", err.Error()))
		return
	}

	c, err := claim.NewClaim(req.ClaimNumber, req.ClaimType, req.Description,
		amount, claims.UserID, policyID)
	if err != nil {
		writeError(w, errors.NewInputError("INVALID_CLAIM", err.Error()))
		return
	}

	for _, path := range req.Documents {
		report, err := h.analysis.AnalyzeDocument(ctx, path)
		if err != nil {
			telemetry.WithSpanError(span, err)
			writeError(w, err)
			return
		}
		recordDocumentAnalyzed(report.Valid)
		if err := c.AttachDocument(path); err != nil {
			writeError(w, errors.NewInputError("INVALID_DOCUMENT", err.Error()))
			return
		}
		c.AttachReport(*report)
	}

	if err := h.claims.Create(ctx, c); err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}

	assessment, err := h.analysis.ScoreClaim(ctx, c.ID, riskscoring.ClaimAttributes{
		Amount:        c.Amount,
		DocumentCount: c.DocumentCount(),
		SubmittedAt:   c.SubmittedAt,
	}, c.Reports)
	if err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}

	recordClaimSubmitted(c.ClaimType)
	recordRiskScore(assessment.Score)
	h.logger.InfoContext(ctx, "claim submitted",
		slog.String("claim_id", c.ID.String()),
		slog.Int("documents", c.DocumentCount()),
		slog.Float64("risk_score", assessment.Score))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"claim":      c,
		"assessment": assessment,
	})
}

// GetClaim returns one claim. Policyholders may only read their own.
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := h.loadClaimForCaller(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateStatus moves a claim through its review lifecycle.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateStatus")
	defer span.End()

	claims, _ := authClaims(ctx)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.NewInputError("INVALID_CLAIM_ID", "claim id must be a UUID"))
		return
	}

	var req UpdateStatusRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := h.claims.GetByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}

	switch req.Status {
	case "approved":
		err = c.Approve(claims.UserID, req.ReviewNotes)
	case "rejected":
		err = c.Reject(claims.UserID, req.ReviewNotes)
	case "investigating":
		err = c.StartInvestigation(claims.UserID, req.ReviewNotes)
	}
	if err != nil {
		writeError(w, errors.NewConflictError(err.Error()))
		return
	}

	if err := h.claims.Update(ctx, c); err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}

	recordStatusChange(c.Status.String())
	h.logger.InfoContext(ctx, "claim status updated",
		slog.String("claim_id", c.ID.String()),
		slog.String("status", c.Status.String()),
		slog.String("reviewer", claims.UserID.String()))

	writeJSON(w, http.StatusOK, c)
}

// AnalyzeDocument runs the forensic pipeline over one uploaded document.
func (h *Handler) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AnalyzeDocument")
	defer span.End()

	var req AnalyzeDocumentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	report, err := h.analysis.AnalyzeDocument(ctx, req.Path)
	if err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}
	recordDocumentAnalyzed(report.Valid)
	writeJSON(w, http.StatusOK, report)
}

// GetAssessment scores a claim from its stored state.
func (h *Handler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetAssessment")
	defer span.End()

	c, err := h.loadClaimForCaller(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}

	assessment, err := h.analysis.ScoreClaim(ctx, c.ID, riskscoring.ClaimAttributes{
		Amount:        c.Amount,
		DocumentCount: c.DocumentCount(),
		SubmittedAt:   c.SubmittedAt,
	}, c.Reports)
	if err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

// GetGraph builds the relationship graph and runs pattern detection.
func (h *Handler) GetGraph(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetGraph")
	defer span.End()

	result, err := h.analysis.BuildGraphAndDetectPatterns(ctx)
	if err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Decide returns the blended decision for a claim. Without explicit
// features the observation is derived from stored claim data.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Decide")
	defer span.End()

	c, err := h.loadClaimForCaller(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req DecideRequest
	if r.ContentLength > 0 {
		if err := h.decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	var decision *claimanalysis.Decision
	if len(req.Features) > 0 {
		obs := decisionpolicy.NewObservation(parseFeatures(req.Features))
		decision, err = h.analysis.Decide(ctx, c.ID, obs)
	} else {
		decision, err = h.analysis.AnalyzeClaim(ctx, c.ID)
	}
	if err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}

	recordDecision(decision.Action.String(), decision.Source)
	writeJSON(w, http.StatusOK, DecisionResponse{
		ClaimID:    c.ID.String(),
		Action:     decision.Action.String(),
		Confidence: decision.Confidence,
		Rationale:  decision.Rationale,
		Source:     decision.Source,
	})
}

// Feedback records a reviewer correction against the claim's last decision.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Feedback")
	defer span.End()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.NewInputError("INVALID_CLAIM_ID", "claim id must be a UUID"))
		return
	}

	var req FeedbackRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.analysis.RecordFeedback(ctx, id, *req.WasCorrect); err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}
	recordFeedback(*req.WasCorrect)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// TrainPolicy triggers a full training pass on demand.
func (h *Handler) TrainPolicy(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TrainPolicy")
	defer span.End()

	err := h.policy.Train(ctx)
	recordTrainingRun(err)
	if err != nil {
		telemetry.WithSpanError(span, err)
		writeError(w, err)
		return
	}
	setPolicyVersion(h.policy.Version())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "trained",
		"version": h.policy.Version(),
	})
}

// loadClaimForCaller loads the claim in the path and enforces ownership
// for policyholders.
func (h *Handler) loadClaimForCaller(ctx context.Context, r *http.Request) (*claim.Claim, error) {
	claims, ok := authClaims(ctx)
	if !ok {
		return nil, errors.NewUnauthorizedError("authentication required")
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return nil, errors.NewInputError("INVALID_CLAIM_ID", "claim id must be a UUID")
	}

	c, err := h.claims.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if claims.Role == user.RolePolicyholder && c.UserID != claims.UserID {
		return nil, errors.NewForbiddenError("not the claim owner")
	}
	return c, nil
}
