package claimanalysis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/errors"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/policy"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/values"
	"github.com/claimguard/insurance-fraud-backend/internal/service/decisionpolicy"
	"github.com/claimguard/insurance-fraud-backend/internal/service/riskscoring"
)

type stubPolicy struct {
	decision *decisionpolicy.Decision
	err      error
	fed      []decisionpolicy.Experience
}

func (s *stubPolicy) Predict(ctx context.Context, obs decisionpolicy.Observation) (*decisionpolicy.Decision, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.decision, nil
}

func (s *stubPolicy) Feed(ctx context.Context, exp decisionpolicy.Experience) error {
	s.fed = append(s.fed, exp)
	return nil
}

func (s *stubPolicy) Train(ctx context.Context) error { return nil }
func (s *stubPolicy) Run(ctx context.Context) error   { return nil }
func (s *stubPolicy) Version() int                    { return 1 }

type stubClaimRepo struct {
	claims  map[uuid.UUID]*claim.Claim
	history []*claim.Claim
}

func (s *stubClaimRepo) GetByID(ctx context.Context, id uuid.UUID) (*claim.Claim, error) {
	c, ok := s.claims[id]
	if !ok {
		return nil, errors.ErrClaimNotFound
	}
	return c, nil
}

func (s *stubClaimRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*claim.Claim, error) {
	return s.history, nil
}

type stubPolicyRepo struct {
	policies map[uuid.UUID]*policy.Policy
}

func (s *stubPolicyRepo) GetByID(ctx context.Context, id uuid.UUID) (*policy.Policy, error) {
	p, ok := s.policies[id]
	if !ok {
		return nil, errors.NewNotFoundError("policy")
	}
	return p, nil
}

type memoryCache struct {
	entries map[uuid.UUID]*riskscoring.Assessment
	sets    int
}

func (m *memoryCache) Get(ctx context.Context, claimID uuid.UUID) (*riskscoring.Assessment, error) {
	return m.entries[claimID], nil
}

func (m *memoryCache) Set(ctx context.Context, claimID uuid.UUID, a *riskscoring.Assessment) error {
	if m.entries == nil {
		m.entries = make(map[uuid.UUID]*riskscoring.Assessment)
	}
	m.entries[claimID] = a
	m.sets++
	return nil
}

func testClaim(t *testing.T, amount float64, documents int) *claim.Claim {
	t.Helper()
	c, err := claim.NewClaim("CLM-1001", "auto", "rear-end collision",
		values.MustNewMoneyFromFloat(amount, "USD"), uuid.New(), uuid.New())
	require.NoError(t, err)
	for i := 0; i < documents; i++ {
		c.AttachDocument("doc.png")
		c.AttachReport(claim.ForensicReport{Valid: true, Filename: "doc.png"})
	}
	return c
}

// tamperedClaim scores High Risk: two manipulated low-content documents and
// a large amount.
func tamperedClaim(t *testing.T) *claim.Claim {
	t.Helper()
	c, err := claim.NewClaim("CLM-1002", "auto", "total loss",
		values.MustNewMoneyFromFloat(6000, "USD"), uuid.New(), uuid.New())
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		c.AttachDocument("doc.jpg")
		c.AttachReport(claim.ForensicReport{
			Valid:     true,
			Filename:  "doc.jpg",
			Tampering: claim.TamperingSignal{Mean: 80},
		})
	}
	return c
}

func newTestService(t *testing.T, c *claim.Claim, pol *stubPolicy) (Service, *stubClaimRepo) {
	t.Helper()
	repo := &stubClaimRepo{claims: map[uuid.UUID]*claim.Claim{c.ID: c}}
	return NewService(Config{
		Engine: riskscoring.NewEngine(nil),
		Policy: pol,
		Claims: repo,
	}), repo
}

func TestService_Decide_PolicyWins(t *testing.T) {
	c := testClaim(t, 500, 3)
	pol := &stubPolicy{decision: &decisionpolicy.Decision{
		Action:     decisionpolicy.ActionApprove,
		Confidence: 0.9,
		Rationale:  "Low risk - Recommend approval",
	}}
	svc, _ := newTestService(t, c, pol)

	got, err := svc.Decide(context.Background(), c.ID, decisionpolicy.NeutralObservation())
	require.NoError(t, err)

	assert.Equal(t, decisionpolicy.ActionApprove, got.Action)
	assert.Equal(t, 0.9, got.Confidence)
	assert.Equal(t, "policy", got.Source)
	require.NotNil(t, got.Assessment)
}

func TestService_Decide_LowConfidenceUsesRiskVerdict(t *testing.T) {
	// small claim with documents scores Low Risk; policy says reject but
	// at threshold confidence, so the verdict must be the engine's
	c := testClaim(t, 500, 3)
	pol := &stubPolicy{decision: &decisionpolicy.Decision{
		Action:     decisionpolicy.ActionReject,
		Confidence: 0.7,
		Rationale:  "High risk - Recommend rejection",
	}}
	svc, _ := newTestService(t, c, pol)

	got, err := svc.Decide(context.Background(), c.ID, decisionpolicy.NeutralObservation())
	require.NoError(t, err)

	assert.Equal(t, decisionpolicy.ActionApprove, got.Action)
	assert.Equal(t, "risk_engine", got.Source)
	assert.Equal(t, riskscoring.LevelLow, got.Assessment.Level)
}

func TestService_Decide_VerdictMapping(t *testing.T) {
	tests := []struct {
		name  string
		claim func(t *testing.T) *claim.Claim
		want  decisionpolicy.Action
		level riskscoring.RiskLevel
	}{
		{"low risk approves",
			func(t *testing.T) *claim.Claim { return testClaim(t, 500, 3) },
			decisionpolicy.ActionApprove, riskscoring.LevelLow},
		{"medium risk investigates",
			func(t *testing.T) *claim.Claim { return testClaim(t, 3000, 3) },
			decisionpolicy.ActionInvestigate, riskscoring.LevelMedium},
		{"high risk rejects",
			tamperedClaim,
			decisionpolicy.ActionReject, riskscoring.LevelHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.claim(t)
			pol := &stubPolicy{decision: &decisionpolicy.Decision{
				Action:     decisionpolicy.ActionInvestigate,
				Confidence: 0.6,
			}}
			svc, _ := newTestService(t, c, pol)

			got, err := svc.Decide(context.Background(), c.ID, decisionpolicy.NeutralObservation())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Action)
			assert.Equal(t, tt.level, got.Assessment.Level)
		})
	}
}

func TestService_Decide_ModelUnavailable(t *testing.T) {
	c := tamperedClaim(t)
	pol := &stubPolicy{err: errors.NewModelUnavailableError("not initialized")}
	svc, _ := newTestService(t, c, pol)

	got, err := svc.Decide(context.Background(), c.ID, decisionpolicy.NeutralObservation())
	require.NoError(t, err, "model unavailability must not fail the decision path")

	assert.Equal(t, decisionpolicy.ActionReject, got.Action)
	assert.Equal(t, "risk_engine", got.Source)
}

func TestService_Decide_UnknownClaim(t *testing.T) {
	c := testClaim(t, 500, 1)
	svc, _ := newTestService(t, c, &stubPolicy{})

	_, err := svc.Decide(context.Background(), uuid.New(), decisionpolicy.NeutralObservation())
	assert.ErrorIs(t, err, errors.ErrClaimNotFound)
}

func TestService_RecordFeedback(t *testing.T) {
	c := testClaim(t, 500, 3)
	pol := &stubPolicy{decision: &decisionpolicy.Decision{
		Action:     decisionpolicy.ActionApprove,
		Confidence: 0.9,
	}}
	svc, _ := newTestService(t, c, pol)

	obs := decisionpolicy.NewObservation(map[decisionpolicy.Feature]float64{
		decisionpolicy.FeatureClaimAmountRatio: 0.05,
	})
	_, err := svc.Decide(context.Background(), c.ID, obs)
	require.NoError(t, err)

	require.NoError(t, svc.RecordFeedback(context.Background(), c.ID, false))

	require.Len(t, pol.fed, 1)
	exp := pol.fed[0]
	assert.Equal(t, -1.0, exp.Reward)
	assert.Equal(t, decisionpolicy.ActionApprove, exp.Action)
	assert.Equal(t, obs, exp.Observation)

	require.NoError(t, svc.RecordFeedback(context.Background(), c.ID, true))
	assert.Equal(t, 1.0, pol.fed[1].Reward)
}

func TestService_RecordFeedback_NoPrediction(t *testing.T) {
	c := testClaim(t, 500, 1)
	svc, _ := newTestService(t, c, &stubPolicy{})

	err := svc.RecordFeedback(context.Background(), c.ID, true)
	assert.ErrorIs(t, err, errors.ErrNoObservation)
}

func TestService_ScoreClaim_Cache(t *testing.T) {
	cache := &memoryCache{}
	svc := NewService(Config{
		Engine: riskscoring.NewEngine(nil),
		Cache:  cache,
	})

	claimID := uuid.New()
	attrs := riskscoring.ClaimAttributes{
		Amount:        values.MustNewMoneyFromFloat(500, "USD"),
		DocumentCount: 3,
		SubmittedAt:   time.Now(),
	}

	first, err := svc.ScoreClaim(context.Background(), claimID, attrs, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.ScoreClaim(context.Background(), claimID, attrs, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "second call must be served from cache")
	assert.Equal(t, first, second)
}

func TestService_AnalyzeClaim(t *testing.T) {
	c := testClaim(t, 2500, 2)
	start := time.Now().AddDate(-2, 0, 0)
	p, err := policy.NewPolicy("POL-55", "auto", start, start.AddDate(5, 0, 0),
		values.MustNewMoneyFromFloat(1200, "USD"), c.UserID)
	require.NoError(t, err)
	c.PolicyID = p.ID

	captured := &capturingPolicy{stubPolicy: stubPolicy{decision: &decisionpolicy.Decision{
		Action:     decisionpolicy.ActionApprove,
		Confidence: 0.9,
	}}}

	repo := &stubClaimRepo{
		claims:  map[uuid.UUID]*claim.Claim{c.ID: c},
		history: []*claim.Claim{c},
	}
	svc := NewService(Config{
		Engine:   riskscoring.NewEngine(nil),
		Policy:   captured,
		Claims:   repo,
		Policies: &stubPolicyRepo{policies: map[uuid.UUID]*policy.Policy{p.ID: p}},
	})

	got, err := svc.AnalyzeClaim(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, decisionpolicy.ActionApprove, got.Action)

	obs := captured.observed
	assert.InDelta(t, 0.25, obs[decisionpolicy.FeatureClaimAmountRatio], 1e-9)
	assert.InDelta(t, 0.2, obs[decisionpolicy.FeaturePolicyAgeRatio], 0.01)
	assert.InDelta(t, 0.1, obs[decisionpolicy.FeatureClaimFrequencyRatio], 1e-9)
	// features with no stored counterpart stay at the neutral prior
	assert.Equal(t, 0.5, obs[decisionpolicy.FeatureLocationRisk])
	assert.Equal(t, 0.5, obs[decisionpolicy.FeatureAgentRisk])
}

type capturingPolicy struct {
	stubPolicy
	observed decisionpolicy.Observation
}

func (c *capturingPolicy) Predict(ctx context.Context, obs decisionpolicy.Observation) (*decisionpolicy.Decision, error) {
	c.observed = obs
	return c.stubPolicy.Predict(ctx, obs)
}

func TestDocumentAnomaly(t *testing.T) {
	tests := []struct {
		name    string
		reports []claim.ForensicReport
		want    float64
	}{
		{"no reports", nil, 0},
		{"invalid report saturates", []claim.ForensicReport{{Valid: false}}, 1},
		{"worst tampering wins", []claim.ForensicReport{
			{Valid: true, Tampering: claim.TamperingSignal{Mean: 15}},
			{Valid: true, Tampering: claim.TamperingSignal{Mean: 30}},
		}, 0.4},
		{"above threshold clamps", []claim.ForensicReport{
			{Valid: true, Tampering: claim.TamperingSignal{Mean: 90}},
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, documentAnomaly(tt.reports), 1e-9)
		})
	}
}
