package graphanalysis

import (
	"sort"

	"github.com/google/uuid"
)

// NodeType tags graph nodes by entity kind
type NodeType string

const (
	NodePolicy NodeType = "policy"
	NodeClaim  NodeType = "claim"
	NodeUser   NodeType = "user"
)

// EdgeType tags relationship edges. All edges are undirected.
type EdgeType string

const (
	EdgePolicyClaim   EdgeType = "policy_claim"
	EdgeClaimUser     EdgeType = "claim_user"
	EdgeClaimReviewer EdgeType = "claim_reviewer"
	EdgePolicyUser    EdgeType = "policy_user"
	EdgeSharedHolder  EdgeType = "shared_holder"
)

// Node carries the type-specific attributes pattern detection needs:
// claim amounts, policy premiums, user roles.
type Node struct {
	ID      uuid.UUID `json:"id"`
	Type    NodeType  `json:"type"`
	Label   string    `json:"label,omitempty"`
	Amount  float64   `json:"amount,omitempty"`
	Premium float64   `json:"premium,omitempty"`
	Role    string    `json:"role,omitempty"`
	Status  string    `json:"status,omitempty"`
}

// Edge is an undirected relationship between two nodes
type Edge struct {
	Source uuid.UUID `json:"source"`
	Target uuid.UUID `json:"target"`
	Type   EdgeType  `json:"type"`
}

// Graph is the in-memory relationship graph. It is rebuilt from scratch on
// every analysis request; there is no incremental maintenance.
type Graph struct {
	nodes    map[uuid.UUID]*Node
	edges    []Edge
	adjacent map[uuid.UUID][]uuid.UUID
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[uuid.UUID]*Node),
		adjacent: make(map[uuid.UUID][]uuid.UUID),
	}
}

// AddNode inserts or replaces a node
func (g *Graph) AddNode(n *Node) {
	g.nodes[n.ID] = n
}

// AddEdge records an undirected edge. Both endpoints must already exist.
func (g *Graph) AddEdge(source, target uuid.UUID, edgeType EdgeType) bool {
	if _, ok := g.nodes[source]; !ok {
		return false
	}
	if _, ok := g.nodes[target]; !ok {
		return false
	}

	g.edges = append(g.edges, Edge{Source: source, Target: target, Type: edgeType})
	g.adjacent[source] = append(g.adjacent[source], target)
	g.adjacent[target] = append(g.adjacent[target], source)
	return true
}

// Node returns the node with the given id, or nil
func (g *Graph) Node(id uuid.UUID) *Node {
	return g.nodes[id]
}

// Degree returns the number of edges incident to the node
func (g *Graph) Degree(id uuid.UUID) int {
	return len(g.adjacent[id])
}

// Neighbors returns the adjacent node ids
func (g *Graph) Neighbors(id uuid.UUID) []uuid.UUID {
	return g.adjacent[id]
}

// Nodes returns all nodes sorted by id, so iteration is deterministic.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Edges returns all edges in insertion order. Never nil, so an empty
// graph serializes as [] alongside the node list.
func (g *Graph) Edges() []Edge {
	if g.edges == nil {
		return []Edge{}
	}
	return g.edges
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// PatternReport is the advisory output of suspicious-pattern detection.
// Flags are evidence for an adjudicator, never automatic actions.
type PatternReport struct {
	ManyClaimsUsers  []uuid.UUID       `json:"many_claims_users"`
	ReviewerPatterns []ReviewerPattern `json:"reviewer_patterns"`
	HolderPatterns   []HolderPattern   `json:"holder_patterns"`
}

// ReviewerPattern flags an employee reviewing an outsized share of claims
type ReviewerPattern struct {
	Reviewer       uuid.UUID `json:"reviewer"`
	ClaimCount     int       `json:"claim_count"`
	AvgClaimAmount float64   `json:"avg_claim_amount"`
}

// HolderPattern flags a user concentrating many policies
type HolderPattern struct {
	Holder       uuid.UUID `json:"holder"`
	PolicyCount  int       `json:"policy_count"`
	TotalClaimed float64   `json:"total_claimed"`
}

// GraphData is the visualization payload: nodes with layout coordinates
// plus the edge list. Coordinates come from the decorative layout step and
// are not deterministic unless the seed is fixed.
type GraphData struct {
	Nodes []PositionedNode `json:"nodes"`
	Edges []Edge           `json:"edges"`
}

// PositionedNode is a node with layout coordinates
type PositionedNode struct {
	ID   uuid.UUID `json:"id"`
	Type NodeType  `json:"type"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
}
