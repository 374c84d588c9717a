package graphanalysis

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/policy"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/user"
)

// Detection thresholds
const (
	// ManyClaimsDegree: users with higher graph degree are flagged
	ManyClaimsDegree = 5

	// ReviewerClaimLimit: employees reviewing more claims are flagged
	ReviewerClaimLimit = 10

	// HolderPolicyLimit: holders with more policies are flagged
	HolderPolicyLimit = 3
)

// Repository is the read-side storage collaborator the graph is built from
type Repository interface {
	ListUsers(ctx context.Context) ([]*user.User, error)
	ListPolicies(ctx context.Context) ([]*policy.Policy, error)
	ListClaims(ctx context.Context) ([]*claim.Claim, error)
}

// Service builds the relationship graph and detects structural fraud
// patterns across it.
type Service interface {
	Build(ctx context.Context) (*Graph, error)
	DetectPatterns(g *Graph) *PatternReport
	GraphData(g *Graph, seed int64) *GraphData
}

type service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates the graph analyzer
func NewService(repo Repository, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, logger: logger}
}

// Build constructs the graph from the full entity set. The graph is always
// rebuilt from scratch; nothing is cached between requests.
func (s *service) Build(ctx context.Context) (*Graph, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	policies, err := s.repo.ListPolicies(ctx)
	if err != nil {
		return nil, err
	}
	claims, err := s.repo.ListClaims(ctx)
	if err != nil {
		return nil, err
	}

	g := NewGraph()

	for _, u := range users {
		g.AddNode(&Node{
			ID:    u.ID,
			Type:  NodeUser,
			Label: u.FullName(),
			Role:  u.Role.String(),
		})
	}

	for _, p := range policies {
		g.AddNode(&Node{
			ID:      p.ID,
			Type:    NodePolicy,
			Label:   p.PolicyNumber,
			Premium: p.Premium.ToFloat64(),
			Status:  p.Status.String(),
		})
	}

	for _, c := range claims {
		g.AddNode(&Node{
			ID:     c.ID,
			Type:   NodeClaim,
			Label:  c.ClaimNumber,
			Amount: c.Amount.ToFloat64(),
			Status: c.Status.String(),
		})
	}

	for _, c := range claims {
		g.AddEdge(c.PolicyID, c.ID, EdgePolicyClaim)
		g.AddEdge(c.ID, c.UserID, EdgeClaimUser)
		if c.ReviewedBy != nil {
			g.AddEdge(c.ID, *c.ReviewedBy, EdgeClaimReviewer)
		}
	}

	holderPolicies := make(map[uuid.UUID][]uuid.UUID)
	for _, p := range policies {
		g.AddEdge(p.ID, p.UserID, EdgePolicyUser)
		holderPolicies[p.UserID] = append(holderPolicies[p.UserID], p.ID)
	}

	// Full pairwise connection within each holder's policy set. O(k²) per
	// holder with k policies.
	for _, ids := range holderPolicies {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				g.AddEdge(ids[i], ids[j], EdgeSharedHolder)
			}
		}
	}

	s.logger.DebugContext(ctx, "relationship graph built",
		"nodes", g.NodeCount(), "edges", len(g.Edges()))

	return g, nil
}

// DetectPatterns runs the three independent heuristics. Output is
// deterministic for identical input data: all scans iterate nodes in
// sorted id order.
func (s *service) DetectPatterns(g *Graph) *PatternReport {
	report := &PatternReport{
		ManyClaimsUsers:  []uuid.UUID{},
		ReviewerPatterns: []ReviewerPattern{},
		HolderPatterns:   []HolderPattern{},
	}

	for _, n := range g.Nodes() {
		if n.Type != NodeUser {
			continue
		}

		// 1. Any user whose degree exceeds the threshold
		if g.Degree(n.ID) > ManyClaimsDegree {
			report.ManyClaimsUsers = append(report.ManyClaimsUsers, n.ID)
		}

		// 2. Employees connected to an outsized number of claims
		if n.Role == "employee" {
			if p, ok := s.reviewerPattern(g, n.ID); ok {
				report.ReviewerPatterns = append(report.ReviewerPatterns, p)
			}
		}

		// 3. Holders concentrating policies
		if p, ok := s.holderPattern(g, n.ID); ok {
			report.HolderPatterns = append(report.HolderPatterns, p)
		}
	}

	return report
}

func (s *service) reviewerPattern(g *Graph, reviewer uuid.UUID) (ReviewerPattern, bool) {
	var claims []uuid.UUID
	for _, nb := range g.Neighbors(reviewer) {
		if node := g.Node(nb); node != nil && node.Type == NodeClaim {
			claims = append(claims, nb)
		}
	}

	if len(claims) <= ReviewerClaimLimit {
		return ReviewerPattern{}, false
	}

	total := 0.0
	for _, id := range claims {
		total += g.Node(id).Amount
	}

	return ReviewerPattern{
		Reviewer:       reviewer,
		ClaimCount:     len(claims),
		AvgClaimAmount: total / float64(len(claims)),
	}, true
}

// holderPattern sums the claim amounts filed against a holder's policies.
// The flag carries the policy count and that aggregate.
func (s *service) holderPattern(g *Graph, holder uuid.UUID) (HolderPattern, bool) {
	var policies []uuid.UUID
	for _, nb := range g.Neighbors(holder) {
		if node := g.Node(nb); node != nil && node.Type == NodePolicy {
			policies = append(policies, nb)
		}
	}

	if len(policies) <= HolderPolicyLimit {
		return HolderPattern{}, false
	}

	sort.Slice(policies, func(i, j int) bool {
		return policies[i].String() < policies[j].String()
	})

	total := 0.0
	for _, pid := range policies {
		for _, nb := range g.Neighbors(pid) {
			if node := g.Node(nb); node != nil && node.Type == NodeClaim {
				total += node.Amount
			}
		}
	}

	return HolderPattern{
		Holder:       holder,
		PolicyCount:  len(policies),
		TotalClaimed: total,
	}, true
}

// GraphData renders the graph for visualization. Layout is decorative and
// seeded separately from detection; tests must never depend on it.
func (s *service) GraphData(g *Graph, seed int64) *GraphData {
	positions := springLayout(g, seed)

	nodes := make([]PositionedNode, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		pos := positions[n.ID]
		nodes = append(nodes, PositionedNode{
			ID:   n.ID,
			Type: n.Type,
			X:    pos.X,
			Y:    pos.Y,
		})
	}

	return &GraphData{
		Nodes: nodes,
		Edges: g.Edges(),
	}
}
