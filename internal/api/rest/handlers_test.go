package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/errors"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/user"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/values"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/auth"
	"github.com/claimguard/insurance-fraud-backend/internal/service/claimanalysis"
	"github.com/claimguard/insurance-fraud-backend/internal/service/decisionpolicy"
	"github.com/claimguard/insurance-fraud-backend/internal/service/riskscoring"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubAnalysis struct {
	report     *claim.ForensicReport
	assessment *riskscoring.Assessment
	decision   *claimanalysis.Decision
	graph      *claimanalysis.GraphResult

	analyzeErr  error
	feedbackErr error

	analyzed []string
	decided  int
	fullRuns int
	feedback []bool
}

func (s *stubAnalysis) AnalyzeDocument(ctx context.Context, path string) (*claim.ForensicReport, error) {
	s.analyzed = append(s.analyzed, path)
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	return s.report, nil
}

func (s *stubAnalysis) ScoreClaim(ctx context.Context, claimID uuid.UUID, attrs riskscoring.ClaimAttributes, reports []claim.ForensicReport) (*riskscoring.Assessment, error) {
	return s.assessment, nil
}

func (s *stubAnalysis) BuildGraphAndDetectPatterns(ctx context.Context) (*claimanalysis.GraphResult, error) {
	return s.graph, nil
}

func (s *stubAnalysis) Decide(ctx context.Context, claimID uuid.UUID, obs decisionpolicy.Observation) (*claimanalysis.Decision, error) {
	s.decided++
	return s.decision, nil
}

func (s *stubAnalysis) RecordFeedback(ctx context.Context, claimID uuid.UUID, wasCorrect bool) error {
	if s.feedbackErr != nil {
		return s.feedbackErr
	}
	s.feedback = append(s.feedback, wasCorrect)
	return nil
}

func (s *stubAnalysis) AnalyzeClaim(ctx context.Context, claimID uuid.UUID) (*claimanalysis.Decision, error) {
	s.fullRuns++
	return s.decision, nil
}

type stubPolicy struct {
	trainErr error
	version  int
	trained  int
}

func (s *stubPolicy) Predict(ctx context.Context, obs decisionpolicy.Observation) (*decisionpolicy.Decision, error) {
	return nil, errors.NewModelUnavailableError("no model")
}

func (s *stubPolicy) Feed(ctx context.Context, exp decisionpolicy.Experience) error { return nil }

func (s *stubPolicy) Train(ctx context.Context) error {
	if s.trainErr != nil {
		return s.trainErr
	}
	s.trained++
	s.version++
	return nil
}

func (s *stubPolicy) Run(ctx context.Context) error { return nil }
func (s *stubPolicy) Version() int                  { return s.version }

type stubStore struct {
	claims map[uuid.UUID]*claim.Claim
}

func newStubStore() *stubStore {
	return &stubStore{claims: make(map[uuid.UUID]*claim.Claim)}
}

func (s *stubStore) GetByID(ctx context.Context, id uuid.UUID) (*claim.Claim, error) {
	c, ok := s.claims[id]
	if !ok {
		return nil, errors.ErrClaimNotFound
	}
	return c, nil
}

func (s *stubStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*claim.Claim, error) {
	var out []*claim.Claim
	for _, c := range s.claims {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubStore) Create(ctx context.Context, c *claim.Claim) error {
	s.claims[c.ID] = c
	return nil
}

func (s *stubStore) Update(ctx context.Context, c *claim.Claim) error {
	if _, ok := s.claims[c.ID]; !ok {
		return errors.ErrClaimNotFound
	}
	s.claims[c.ID] = c
	return nil
}

type stubUserStore struct {
	users map[string]*user.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[string]*user.User)}
}

func (s *stubUserStore) Create(ctx context.Context, u *user.User) error {
	s.users[u.Username] = u
	return nil
}

func (s *stubUserStore) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, errors.NewNotFoundError("user")
	}
	return u, nil
}

type testEnv struct {
	router   http.Handler
	analysis *stubAnalysis
	policy   *stubPolicy
	store    *stubStore
	users    *stubUserStore
	auth     auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	authSvc, err := auth.NewService("test-secret", time.Hour)
	require.NoError(t, err)

	analysis := &stubAnalysis{
		report:     &claim.ForensicReport{Valid: true},
		assessment: &riskscoring.Assessment{Score: 50, Level: riskscoring.LevelMedium},
		decision: &claimanalysis.Decision{
			Action:     decisionpolicy.ActionInvestigate,
			Confidence: 0.6,
			Rationale:  "Moderate risk - Requires investigation",
			Source:     "policy",
		},
		graph: &claimanalysis.GraphResult{},
	}
	policy := &stubPolicy{version: 1}
	store := newStubStore()
	users := newStubUserStore()

	h := NewHandler(analysis, policy, store, users, authSvc, testLogger())
	return &testEnv{
		router:   NewRouter(h, authSvc),
		analysis: analysis,
		policy:   policy,
		store:    store,
		users:    users,
		auth:     authSvc,
	}
}

func (e *testEnv) token(t *testing.T, role user.Role) (string, uuid.UUID) {
	t.Helper()
	u, err := user.NewUser(fmt.Sprintf("user-%s", uuid.NewString()[:8]),
		"person@example.com", role)
	require.NoError(t, err)
	token, err := e.auth.GenerateToken(u)
	require.NoError(t, err)
	return token, u.ID
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.ContentLength = int64(buf.Len())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedClaim(t *testing.T, owner uuid.UUID) *claim.Claim {
	t.Helper()
	amount, err := values.NewMoneyFromFloat(1200, "USD")
	require.NoError(t, err)
	c, err := claim.NewClaim("CLM-1001", "auto", "rear-end collision",
		amount, owner, uuid.New())
	require.NoError(t, err)
	e.store.claims[c.ID] = c
	return c
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet,
		"/api/v1/claims/"+uuid.NewString(), "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet,
		"/api/v1/claims/"+uuid.NewString(), "not-a-token", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Username:  "jdoe",
		Email:     "jdoe@example.com",
		Password:  "correct horse",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, user.RolePolicyholder, created.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	stored := env.users.users["jdoe"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct horse", stored.PasswordHash)

	rec = env.request(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Username: "jdoe",
		Password: "correct horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	// The minted token must pass the middleware guarding /api/v1.
	rec = env.request(t, http.MethodPost, "/api/v1/claims", resp.Token, SubmitClaimRequest{
		ClaimNumber: "CLM-3001",
		ClaimType:   "auto",
		Amount:      1200,
		PolicyID:    uuid.NewString(),
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)

	hash, err := env.auth.HashPassword("correct horse")
	require.NoError(t, err)
	u, err := user.NewUser("jdoe", "jdoe@example.com", user.RolePolicyholder)
	require.NoError(t, err)
	u.PasswordHash = hash
	require.NoError(t, env.users.Create(context.Background(), u))

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Username: "jdoe", Password: "battery staple"}},
		{"unknown user", LoginRequest{Username: "nobody", Password: "correct horse"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.request(t, http.MethodPost, "/api/v1/auth/login", "", tt.req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid credentials")
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	req := RegisterRequest{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "correct horse",
	}

	rec := env.request(t, http.MethodPost, "/api/v1/auth/register", "", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.request(t, http.MethodPost, "/api/v1/auth/register", "", req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Username: "jdoe",
		Email:    "not-an-email",
		Password: "short",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitClaim(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, user.RolePolicyholder)

	rec := env.request(t, http.MethodPost, "/api/v1/claims", token, SubmitClaimRequest{
		ClaimNumber: "CLM-2001",
		ClaimType:   "property",
		Description: "water damage",
		Amount:      3500,
		PolicyID:    uuid.NewString(),
		Documents:   []string{"uploads/a.jpg", "uploads/b.jpg"},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, env.analysis.analyzed, 2)
	assert.Len(t, env.store.claims, 1)

	var resp struct {
		Claim      claim.Claim            `json:"claim"`
		Assessment riskscoring.Assessment `json:"assessment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CLM-2001", resp.Claim.ClaimNumber)
	assert.Len(t, resp.Claim.Reports, 2)
	assert.Equal(t, 50.0, resp.Assessment.Score)
}

func TestSubmitClaim_Validation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, user.RolePolicyholder)

	rec := env.request(t, http.MethodPost, "/api/v1/claims", token, SubmitClaimRequest{
		ClaimType: "property",
		Amount:    3500,
		PolicyID:  uuid.NewString(),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.store.claims)
}

func TestGetClaim_OwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	ownerToken, ownerID := env.token(t, user.RolePolicyholder)
	otherToken, _ := env.token(t, user.RolePolicyholder)
	employeeToken, _ := env.token(t, user.RoleEmployee)

	c := env.seedClaim(t, ownerID)
	path := "/api/v1/claims/" + c.ID.String()

	assert.Equal(t, http.StatusOK, env.request(t, http.MethodGet, path, ownerToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodGet, path, otherToken, nil).Code)
	assert.Equal(t, http.StatusOK, env.request(t, http.MethodGet, path, employeeToken, nil).Code)
}

func TestGetClaim_NotFound(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, user.RoleEmployee)

	rec := env.request(t, http.MethodGet,
		"/api/v1/claims/"+uuid.NewString(), token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, user.RoleEmployee)
	c := env.seedClaim(t, uuid.New())

	rec := env.request(t, http.MethodPatch,
		"/api/v1/claims/"+c.ID.String()+"/status", token,
		UpdateStatusRequest{Status: "approved", ReviewNotes: "all documents verified"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, claim.StatusApproved, env.store.claims[c.ID].Status)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, user.RoleEmployee)
	c := env.seedClaim(t, uuid.New())
	require.NoError(t, c.Reject(uuid.New(), "fraudulent"))

	rec := env.request(t, http.MethodPatch,
		"/api/v1/claims/"+c.ID.String()+"/status", token,
		UpdateStatusRequest{Status: "approved"})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateStatus_RoleEnforced(t *testing.T) {
	env := newTestEnv(t)
	token, ownerID := env.token(t, user.RolePolicyholder)
	c := env.seedClaim(t, ownerID)

	rec := env.request(t, http.MethodPatch,
		"/api/v1/claims/"+c.ID.String()+"/status", token,
		UpdateStatusRequest{Status: "approved"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDecide_WithFeatures(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, user.RoleEmployee)
	c := env.seedClaim(t, uuid.New())

	rec := env.request(t, http.MethodPost,
		"/api/v1/claims/"+c.ID.String()+"/decide", token,
		DecideRequest{Features: map[string]float64{"claim_amount_ratio": 0.8}})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, env.analysis.decided)
	assert.Zero(t, env.analysis.fullRuns)

	var resp DecisionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, c.ID.String(), resp.ClaimID)
	assert.Equal(t, "investigate", resp.Action)
	assert.Equal(t, "policy", resp.Source)
}

func TestDecide_DerivesObservationWithoutBody(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, user.RoleEmployee)
	c := env.seedClaim(t, uuid.New())

	rec := env.request(t, http.MethodPost,
		"/api/v1/claims/"+c.ID.String()+"/decide", token, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, env.analysis.fullRuns)
	assert.Zero(t, env.analysis.decided)
}

func TestFeedback(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, user.RoleEmployee)
	c := env.seedClaim(t, uuid.New())
	correct := false

	rec := env.request(t, http.MethodPost,
		"/api/v1/claims/"+c.ID.String()+"/feedback", token,
		FeedbackRequest{WasCorrect: &correct})

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, env.analysis.feedback, 1)
	assert.False(t, env.analysis.feedback[0])
}

func TestFeedback_RequiresWasCorrect(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, user.RoleEmployee)
	c := env.seedClaim(t, uuid.New())

	rec := env.request(t, http.MethodPost,
		"/api/v1/claims/"+c.ID.String()+"/feedback", token,
		map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedback_NoPriorDecision(t *testing.T) {
	env := newTestEnv(t)
	env.analysis.feedbackErr = errors.ErrNoObservation
	token, _ := env.token(t, user.RoleEmployee)
	c := env.seedClaim(t, uuid.New())
	correct := true

	rec := env.request(t, http.MethodPost,
		"/api/v1/claims/"+c.ID.String()+"/feedback", token,
		FeedbackRequest{WasCorrect: &correct})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTrainPolicy_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.token(t, user.RoleAdmin)
	employeeToken, _ := env.token(t, user.RoleEmployee)

	rec := env.request(t, http.MethodPost, "/api/v1/policy/train", employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, env.policy.trained)

	rec = env.request(t, http.MethodPost, "/api/v1/policy/train", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, env.policy.trained)
	assert.Contains(t, rec.Body.String(), `"version":2`)
}

func TestTrainPolicy_EmptyBuffer(t *testing.T) {
	env := newTestEnv(t)
	env.policy.trainErr = errors.NewTrainingError("experience buffer is empty")
	token, _ := env.token(t, user.RoleAdmin)

	rec := env.request(t, http.MethodPost, "/api/v1/policy/train", token, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "TRAINING_FAILED")
}

func TestAnalyzeDocument_RoleEnforced(t *testing.T) {
	env := newTestEnv(t)
	holderToken, _ := env.token(t, user.RolePolicyholder)
	employeeToken, _ := env.token(t, user.RoleEmployee)
	body := AnalyzeDocumentRequest{Path: "uploads/receipt.jpg"}

	rec := env.request(t, http.MethodPost, "/api/v1/documents/analyze", holderToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/v1/documents/analyze", employeeToken, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"valid":true`)
}
