package database

import (
	"context"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/policy"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/user"
)

// Repositories bundles the per-entity repositories over one pool. The
// bundle itself satisfies the graph analyzer's repository contract.
type Repositories struct {
	Users    *UserRepository
	Policies *PolicyRepository
	Claims   *ClaimRepository
}

func NewRepositories(pool *Pool) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(pool),
		Policies: NewPolicyRepository(pool),
		Claims:   NewClaimRepository(pool),
	}
}

func (r *Repositories) ListUsers(ctx context.Context) ([]*user.User, error) {
	return r.Users.ListUsers(ctx)
}

func (r *Repositories) ListPolicies(ctx context.Context) ([]*policy.Policy, error) {
	return r.Policies.ListPolicies(ctx)
}

func (r *Repositories) ListClaims(ctx context.Context) ([]*claim.Claim, error) {
	return r.Claims.ListClaims(ctx)
}
