package graphanalysis

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/policy"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/user"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/values"
)

type fakeRepo struct {
	users    []*user.User
	policies []*policy.Policy
	claims   []*claim.Claim
}

func (f *fakeRepo) ListUsers(ctx context.Context) ([]*user.User, error) {
	return f.users, nil
}

func (f *fakeRepo) ListPolicies(ctx context.Context) ([]*policy.Policy, error) {
	return f.policies, nil
}

func (f *fakeRepo) ListClaims(ctx context.Context) ([]*claim.Claim, error) {
	return f.claims, nil
}

func newUser(t *testing.T, role user.Role) *user.User {
	t.Helper()
	u, err := user.NewUser(fmt.Sprintf("user-%s", uuid.NewString()[:8]), "u@example.com", role)
	require.NoError(t, err)
	return u
}

func newPolicy(t *testing.T, owner uuid.UUID) *policy.Policy {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := policy.NewPolicy("POL-"+uuid.NewString()[:8], "auto", start, start.AddDate(1, 0, 0),
		values.MustNewMoneyFromFloat(1000, "USD"), owner)
	require.NoError(t, err)
	return p
}

func newClaim(t *testing.T, owner, policyID uuid.UUID, amount float64) *claim.Claim {
	t.Helper()
	c, err := claim.NewClaim("CLM-"+uuid.NewString()[:8], "auto", "test",
		values.MustNewMoneyFromFloat(amount, "USD"), owner, policyID)
	require.NoError(t, err)
	return c
}

func TestService_BuildRoundTrip(t *testing.T) {
	holder := newUser(t, user.RolePolicyholder)
	reviewer := newUser(t, user.RoleEmployee)
	pol := newPolicy(t, holder.ID)
	c := newClaim(t, holder.ID, pol.ID, 2500)
	c.ReviewedBy = &reviewer.ID

	repo := &fakeRepo{
		users:    []*user.User{holder, reviewer},
		policies: []*policy.Policy{pol},
		claims:   []*claim.Claim{c},
	}

	svc := NewService(repo, nil)
	g, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, g.NodeCount())

	byType := map[EdgeType]int{}
	for _, e := range g.Edges() {
		byType[e.Type]++

		// every edge endpoint must exist in the node set
		assert.NotNil(t, g.Node(e.Source))
		assert.NotNil(t, g.Node(e.Target))

		// every policy_claim edge joins the claim to its own policy
		if e.Type == EdgePolicyClaim {
			assert.Equal(t, pol.ID, e.Source)
			assert.Equal(t, c.ID, e.Target)
		}
	}

	assert.Equal(t, 1, byType[EdgePolicyClaim])
	assert.Equal(t, 1, byType[EdgeClaimUser])
	assert.Equal(t, 1, byType[EdgeClaimReviewer])
	assert.Equal(t, 1, byType[EdgePolicyUser])
	assert.Zero(t, byType[EdgeSharedHolder])
}

func TestService_SharedHolderEdges(t *testing.T) {
	holder := newUser(t, user.RolePolicyholder)
	repo := &fakeRepo{users: []*user.User{holder}}
	for i := 0; i < 4; i++ {
		repo.policies = append(repo.policies, newPolicy(t, holder.ID))
	}

	svc := NewService(repo, nil)
	g, err := svc.Build(context.Background())
	require.NoError(t, err)

	shared := 0
	for _, e := range g.Edges() {
		if e.Type == EdgeSharedHolder {
			shared++
		}
	}

	// full pairwise connection: C(4,2)
	assert.Equal(t, 6, shared)
}

func TestService_HolderPattern(t *testing.T) {
	holder := newUser(t, user.RolePolicyholder)
	repo := &fakeRepo{users: []*user.User{holder}}

	for i := 0; i < 4; i++ {
		p := newPolicy(t, holder.ID)
		repo.policies = append(repo.policies, p)
		repo.claims = append(repo.claims, newClaim(t, holder.ID, p.ID, 1500))
	}

	svc := NewService(repo, nil)
	g, err := svc.Build(context.Background())
	require.NoError(t, err)

	report := svc.DetectPatterns(g)

	require.Len(t, report.HolderPatterns, 1)
	got := report.HolderPatterns[0]
	assert.Equal(t, holder.ID, got.Holder)
	assert.Equal(t, 4, got.PolicyCount)
	assert.Equal(t, 6000.0, got.TotalClaimed)
}

func TestService_HolderPatternBelowThreshold(t *testing.T) {
	holder := newUser(t, user.RolePolicyholder)
	repo := &fakeRepo{users: []*user.User{holder}}
	for i := 0; i < 3; i++ {
		repo.policies = append(repo.policies, newPolicy(t, holder.ID))
	}

	svc := NewService(repo, nil)
	g, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.Empty(t, svc.DetectPatterns(g).HolderPatterns)
}

func TestService_ReviewerPattern(t *testing.T) {
	holder := newUser(t, user.RolePolicyholder)
	reviewer := newUser(t, user.RoleEmployee)
	pol := newPolicy(t, holder.ID)

	repo := &fakeRepo{
		users:    []*user.User{holder, reviewer},
		policies: []*policy.Policy{pol},
	}

	for i := 0; i < 11; i++ {
		c := newClaim(t, holder.ID, pol.ID, 1000)
		c.ReviewedBy = &reviewer.ID
		repo.claims = append(repo.claims, c)
	}

	svc := NewService(repo, nil)
	g, err := svc.Build(context.Background())
	require.NoError(t, err)

	report := svc.DetectPatterns(g)

	require.Len(t, report.ReviewerPatterns, 1)
	got := report.ReviewerPatterns[0]
	assert.Equal(t, reviewer.ID, got.Reviewer)
	assert.Equal(t, 11, got.ClaimCount)
	assert.Equal(t, 1000.0, got.AvgClaimAmount)

	// the holder also exceeds the degree threshold via claim_user edges
	assert.Contains(t, report.ManyClaimsUsers, holder.ID)
}

func TestService_PatternsDeterministic(t *testing.T) {
	holder := newUser(t, user.RolePolicyholder)
	repo := &fakeRepo{users: []*user.User{holder}}
	for i := 0; i < 5; i++ {
		p := newPolicy(t, holder.ID)
		repo.policies = append(repo.policies, p)
		repo.claims = append(repo.claims, newClaim(t, holder.ID, p.ID, float64(100*(i+1))))
	}

	svc := NewService(repo, nil)

	g1, err := svc.Build(context.Background())
	require.NoError(t, err)
	g2, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, svc.DetectPatterns(g1), svc.DetectPatterns(g2))
}

func TestEmptyGraph_SerializesEmptyEdgeList(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)
	g, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, g.Edges())

	payload, err := json.Marshal(svc.GraphData(g, 42))
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"edges":[]`)
	assert.NotContains(t, string(payload), `"edges":null`)
}

func TestSpringLayout_Seeded(t *testing.T) {
	holder := newUser(t, user.RolePolicyholder)
	pol := newPolicy(t, holder.ID)
	repo := &fakeRepo{
		users:    []*user.User{holder},
		policies: []*policy.Policy{pol},
		claims:   []*claim.Claim{newClaim(t, holder.ID, pol.ID, 500)},
	}

	svc := NewService(repo, nil)
	g, err := svc.Build(context.Background())
	require.NoError(t, err)

	same1 := svc.GraphData(g, 42)
	same2 := svc.GraphData(g, 42)
	assert.Equal(t, same1.Nodes, same2.Nodes)

	different := svc.GraphData(g, 7)
	assert.NotEqual(t, same1.Nodes, different.Nodes)

	// coordinates stay inside the unit square
	for _, n := range same1.Nodes {
		assert.GreaterOrEqual(t, n.X, 0.0)
		assert.LessOrEqual(t, n.X, 1.0)
		assert.GreaterOrEqual(t, n.Y, 0.0)
		assert.LessOrEqual(t, n.Y, 1.0)
	}
}
