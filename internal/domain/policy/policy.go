package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/values"
)

// Policy is an insurance policy. Once active it is immutable except for the
// status transitions active → expired and active → cancelled.
type Policy struct {
	ID           uuid.UUID    `json:"id"`
	PolicyNumber string       `json:"policy_number"`
	PolicyType   string       `json:"policy_type"`
	StartDate    time.Time    `json:"start_date"`
	EndDate      time.Time    `json:"end_date"`
	Premium      values.Money `json:"premium_amount"`
	Status       Status       `json:"status"`
	UserID       uuid.UUID    `json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Status int

const (
	StatusActive Status = iota
	StatusExpired
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusExpired:
		return "expired"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseStatus converts a stored status string back to a Status
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(s) {
	case "active":
		return StatusActive, nil
	case "expired":
		return StatusExpired, nil
	case "cancelled":
		return StatusCancelled, nil
	default:
		return StatusActive, fmt.Errorf("unknown policy status %q", s)
	}
}

// NewPolicy creates an active policy owned by the given user
func NewPolicy(policyNumber, policyType string, startDate, endDate time.Time, premium values.Money, userID uuid.UUID) (*Policy, error) {
	if policyNumber == "" {
		return nil, fmt.Errorf("policy number cannot be empty")
	}
	if policyType == "" {
		return nil, fmt.Errorf("policy type cannot be empty")
	}
	if !endDate.After(startDate) {
		return nil, fmt.Errorf("end date must be after start date")
	}
	if !premium.IsPositive() {
		return nil, fmt.Errorf("premium must be positive")
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user ID cannot be nil")
	}

	now := time.Now().UTC()
	return &Policy{
		ID:           uuid.New(),
		PolicyNumber: policyNumber,
		PolicyType:   policyType,
		StartDate:    startDate,
		EndDate:      endDate,
		Premium:      premium,
		Status:       StatusActive,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Expire transitions an active policy to expired
func (p *Policy) Expire() error {
	if p.Status != StatusActive {
		return fmt.Errorf("cannot expire policy in status %s", p.Status)
	}
	p.Status = StatusExpired
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions an active policy to cancelled
func (p *Policy) Cancel() error {
	if p.Status != StatusActive {
		return fmt.Errorf("cannot cancel policy in status %s", p.Status)
	}
	p.Status = StatusCancelled
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive reports whether claims may be filed against this policy
func (p *Policy) IsActive() bool {
	return p.Status == StatusActive
}

// AgeAt returns how long the policy had been running at the given time.
// Negative durations (claims dated before policy start) are clamped to zero.
func (p *Policy) AgeAt(t time.Time) time.Duration {
	age := t.Sub(p.StartDate)
	if age < 0 {
		return 0
	}
	return age
}
