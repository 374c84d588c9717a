package claim

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/values"
)

// Claim is an insurance claim under adjudication. Status changes only go
// through the transition methods; forensic reports are append-only.
type Claim struct {
	ID          uuid.UUID    `json:"id"`
	ClaimNumber string       `json:"claim_number"`
	ClaimType   string       `json:"claim_type"`
	Description string       `json:"description"`
	Amount      values.Money `json:"amount"`
	Status      Status       `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`

	// Ordered document references and their forensic reports, one report
	// per document once analysis has run.
	Documents []string         `json:"documents"`
	Reports   []ForensicReport `json:"reports,omitempty"`

	UserID   uuid.UUID `json:"user_id"`
	PolicyID uuid.UUID `json:"policy_id"`

	// Review trail
	ReviewedBy  *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewNotes string     `json:"review_notes,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Status int

const (
	StatusPending Status = iota
	StatusApproved
	StatusRejected
	StatusInvestigating
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	case StatusInvestigating:
		return "investigating"
	default:
		return "unknown"
	}
}

// ParseStatus converts a stored status string back to a Status
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(s) {
	case "pending":
		return StatusPending, nil
	case "approved":
		return StatusApproved, nil
	case "rejected":
		return StatusRejected, nil
	case "investigating":
		return StatusInvestigating, nil
	default:
		return StatusPending, fmt.Errorf("unknown claim status %q", s)
	}
}

// NewClaim creates a pending claim for the given policyholder and policy
func NewClaim(claimNumber, claimType, description string, amount values.Money, userID, policyID uuid.UUID) (*Claim, error) {
	if claimNumber == "" {
		return nil, fmt.Errorf("claim number cannot be empty")
	}
	if claimType == "" {
		return nil, fmt.Errorf("claim type cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("claim amount must be positive")
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user ID cannot be nil")
	}
	if policyID == uuid.Nil {
		return nil, fmt.Errorf("policy ID cannot be nil")
	}

	now := time.Now().UTC()
	return &Claim{
		ID:          uuid.New(),
		ClaimNumber: claimNumber,
		ClaimType:   claimType,
		Description: description,
		Amount:      amount,
		Status:      StatusPending,
		SubmittedAt: now,
		UserID:      userID,
		PolicyID:    policyID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// legal transitions: pending → approved|rejected|investigating,
// investigating → approved|rejected
func (c *Claim) canTransitionTo(target Status) bool {
	switch c.Status {
	case StatusPending:
		return target == StatusApproved || target == StatusRejected || target == StatusInvestigating
	case StatusInvestigating:
		return target == StatusApproved || target == StatusRejected
	default:
		return false
	}
}

func (c *Claim) transition(target Status, reviewer uuid.UUID, notes string) error {
	if !c.canTransitionTo(target) {
		return fmt.Errorf("cannot transition claim from %s to %s", c.Status, target)
	}

	now := time.Now().UTC()
	c.Status = target
	c.ReviewNotes = notes
	c.ReviewedAt = &now
	c.UpdatedAt = now
	if reviewer != uuid.Nil {
		c.ReviewedBy = &reviewer
	}
	return nil
}

// Approve marks the claim approved with the reviewer's notes
func (c *Claim) Approve(reviewer uuid.UUID, notes string) error {
	return c.transition(StatusApproved, reviewer, notes)
}

// Reject marks the claim rejected with the reviewer's notes
func (c *Claim) Reject(reviewer uuid.UUID, notes string) error {
	return c.transition(StatusRejected, reviewer, notes)
}

// StartInvestigation moves a pending claim into investigation
func (c *Claim) StartInvestigation(reviewer uuid.UUID, notes string) error {
	return c.transition(StatusInvestigating, reviewer, notes)
}

// AttachDocument records an uploaded document reference
func (c *Claim) AttachDocument(path string) error {
	if path == "" {
		return fmt.Errorf("document path cannot be empty")
	}
	c.Documents = append(c.Documents, path)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// AttachReport appends a computed forensic report. Reports are append-only.
func (c *Claim) AttachReport(report ForensicReport) {
	c.Reports = append(c.Reports, report)
	c.UpdatedAt = time.Now().UTC()
}

// DocumentCount returns the number of supporting documents
func (c *Claim) DocumentCount() int {
	return len(c.Documents)
}

// IsTerminal reports whether the claim has reached a final status
func (c *Claim) IsTerminal() bool {
	return c.Status == StatusApproved || c.Status == StatusRejected
}
