package claimanalysis

import (
	"context"

	"github.com/google/uuid"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/policy"
	"github.com/claimguard/insurance-fraud-backend/internal/service/riskscoring"
)

// ClaimRepository provides read access to stored claims.
type ClaimRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*claim.Claim, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*claim.Claim, error)
}

// PolicyRepository provides read access to stored policies.
type PolicyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*policy.Policy, error)
}

// AssessmentCache stores computed risk assessments keyed by claim.
// Implementations may be absent; the orchestrator treats a nil cache and a
// cache miss identically.
type AssessmentCache interface {
	Get(ctx context.Context, claimID uuid.UUID) (*riskscoring.Assessment, error)
	Set(ctx context.Context, claimID uuid.UUID, a *riskscoring.Assessment) error
}
