package claimanalysis

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/errors"
	"github.com/claimguard/insurance-fraud-backend/internal/service/decisionpolicy"
	"github.com/claimguard/insurance-fraud-backend/internal/service/forensics"
	"github.com/claimguard/insurance-fraud-backend/internal/service/graphanalysis"
	"github.com/claimguard/insurance-fraud-backend/internal/service/riskscoring"
)

// policyConfidenceThreshold bounds the influence of an undertrained policy:
// the learned action is adopted only above it, otherwise the risk engine's
// verdict stands.
const policyConfidenceThreshold = 0.7

// Decision is the blended outcome for one claim.
type Decision struct {
	Action     decisionpolicy.Action   `json:"action"`
	Confidence float64                 `json:"confidence"`
	Rationale  string                  `json:"rationale"`
	Source     string                  `json:"source"`
	Assessment *riskscoring.Assessment `json:"assessment,omitempty"`
}

// GraphResult bundles the built graph with the detected patterns.
type GraphResult struct {
	Graph    *graphanalysis.GraphData     `json:"graph"`
	Patterns *graphanalysis.PatternReport `json:"patterns"`
}

// Service orchestrates the full assessment pipeline.
type Service interface {
	AnalyzeDocument(ctx context.Context, path string) (*claim.ForensicReport, error)
	ScoreClaim(ctx context.Context, claimID uuid.UUID, attrs riskscoring.ClaimAttributes, reports []claim.ForensicReport) (*riskscoring.Assessment, error)
	BuildGraphAndDetectPatterns(ctx context.Context) (*GraphResult, error)
	Decide(ctx context.Context, claimID uuid.UUID, obs decisionpolicy.Observation) (*Decision, error)
	RecordFeedback(ctx context.Context, claimID uuid.UUID, wasCorrect bool) error
	AnalyzeClaim(ctx context.Context, claimID uuid.UUID) (*Decision, error)
}

// lastPrediction ties feedback rewards back to the observation and action
// that produced the claim's decision.
type lastPrediction struct {
	observation decisionpolicy.Observation
	action      decisionpolicy.Action
}

type service struct {
	analyzer   forensics.Analyzer
	engine     riskscoring.Engine
	graphs     graphanalysis.Service
	policy     decisionpolicy.Service
	claims     ClaimRepository
	policies   PolicyRepository
	cache      AssessmentCache
	layoutSeed int64
	logger     *slog.Logger

	mu          sync.Mutex
	predictions map[uuid.UUID]lastPrediction
}

type Config struct {
	Analyzer   forensics.Analyzer
	Engine     riskscoring.Engine
	Graphs     graphanalysis.Service
	Policy     decisionpolicy.Service
	Claims     ClaimRepository
	Policies   PolicyRepository
	Cache      AssessmentCache
	LayoutSeed int64
	Logger     *slog.Logger
}

func NewService(cfg Config) Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &service{
		analyzer:    cfg.Analyzer,
		engine:      cfg.Engine,
		graphs:      cfg.Graphs,
		policy:      cfg.Policy,
		claims:      cfg.Claims,
		policies:    cfg.Policies,
		cache:       cfg.Cache,
		layoutSeed:  cfg.LayoutSeed,
		logger:      cfg.Logger,
		predictions: make(map[uuid.UUID]lastPrediction),
	}
}

func (s *service) AnalyzeDocument(ctx context.Context, path string) (*claim.ForensicReport, error) {
	return s.analyzer.Analyze(ctx, path)
}

func (s *service) ScoreClaim(ctx context.Context, claimID uuid.UUID, attrs riskscoring.ClaimAttributes, reports []claim.ForensicReport) (*riskscoring.Assessment, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, claimID); err == nil && cached != nil {
			return cached, nil
		}
	}

	assessment := s.engine.Score(attrs, reports)

	if s.cache != nil {
		if err := s.cache.Set(ctx, claimID, assessment); err != nil {
			s.logger.Warn("assessment cache write failed",
				slog.String("claim_id", claimID.String()),
				slog.Any("error", err))
		}
	}
	return assessment, nil
}

func (s *service) BuildGraphAndDetectPatterns(ctx context.Context) (*GraphResult, error) {
	g, err := s.graphs.Build(ctx)
	if err != nil {
		return nil, err
	}
	return &GraphResult{
		Graph:    s.graphs.GraphData(g, s.layoutSeed),
		Patterns: s.graphs.DetectPatterns(g),
	}, nil
}

// Decide blends the learned policy with the risk engine. The policy action
// is adopted only when its confidence exceeds the threshold; otherwise the
// verdict derived from the claim's risk level is returned verbatim.
func (s *service) Decide(ctx context.Context, claimID uuid.UUID, obs decisionpolicy.Observation) (*Decision, error) {
	assessment, err := s.assessStored(ctx, claimID)
	if err != nil {
		return nil, err
	}
	fallback := verdictFor(assessment)

	predicted, err := s.policy.Predict(ctx, obs)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeModel) {
			s.logger.Warn("decision policy unavailable, using risk verdict",
				slog.String("claim_id", claimID.String()))
			fallback.Assessment = assessment
			return fallback, nil
		}
		return nil, err
	}

	s.remember(claimID, obs, predicted.Action)

	if predicted.Confidence > policyConfidenceThreshold {
		return &Decision{
			Action:     predicted.Action,
			Confidence: predicted.Confidence,
			Rationale:  predicted.Rationale,
			Source:     "policy",
			Assessment: assessment,
		}, nil
	}

	fallback.Assessment = assessment
	return fallback, nil
}

// RecordFeedback converts a reviewer correction into a reward tied to the
// claim's last-predicted action and observation.
func (s *service) RecordFeedback(ctx context.Context, claimID uuid.UUID, wasCorrect bool) error {
	s.mu.Lock()
	pred, ok := s.predictions[claimID]
	s.mu.Unlock()
	if !ok {
		return errors.ErrNoObservation
	}

	reward := 1.0
	if !wasCorrect {
		reward = -1.0
	}
	return s.policy.Feed(ctx, decisionpolicy.Experience{
		Observation: pred.observation,
		Action:      pred.action,
		Reward:      reward,
	})
}

// AnalyzeClaim derives an observation from stored claim, policy, and user
// history, then decides. Nothing is persisted.
func (s *service) AnalyzeClaim(ctx context.Context, claimID uuid.UUID) (*Decision, error) {
	c, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	p, err := s.policies.GetByID(ctx, c.PolicyID)
	if err != nil {
		return nil, err
	}
	history, err := s.claims.ListByUser(ctx, c.UserID)
	if err != nil {
		return nil, err
	}

	obs := deriveObservation(c, p, history)
	return s.Decide(ctx, claimID, obs)
}

// assessStored scores a claim from its persisted state.
func (s *service) assessStored(ctx context.Context, claimID uuid.UUID) (*riskscoring.Assessment, error) {
	c, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	attrs := riskscoring.ClaimAttributes{
		Amount:        c.Amount,
		DocumentCount: c.DocumentCount(),
		SubmittedAt:   c.SubmittedAt,
	}
	return s.ScoreClaim(ctx, claimID, attrs, c.Reports)
}

func (s *service) remember(claimID uuid.UUID, obs decisionpolicy.Observation, action decisionpolicy.Action) {
	s.mu.Lock()
	s.predictions[claimID] = lastPrediction{observation: obs, action: action}
	s.mu.Unlock()
}

// verdictFor maps the assessment's risk level onto the action space.
func verdictFor(a *riskscoring.Assessment) *Decision {
	var action decisionpolicy.Action
	switch a.Level {
	case riskscoring.LevelHigh:
		action = decisionpolicy.ActionReject
	case riskscoring.LevelMedium:
		action = decisionpolicy.ActionInvestigate
	default:
		action = decisionpolicy.ActionApprove
	}
	return &Decision{
		Action:     action,
		Confidence: a.Score / 100,
		Rationale:  a.Level.Label,
		Source:     "risk_engine",
	}
}
