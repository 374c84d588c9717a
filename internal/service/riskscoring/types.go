package riskscoring

import (
	"time"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/values"
)

// Severity grades an individual risk factor
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RiskFactor is a named, severity-tagged explanation contributing to the
// overall score.
type RiskFactor struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Details  string   `json:"details"`
	Document string   `json:"document,omitempty"`
}

// RiskLevel is the discrete band a score falls into, with its fixed
// display color.
type RiskLevel struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Assessment is the derived risk verdict for one claim. It is recomputed
// on demand and never treated as authoritative persisted state.
type Assessment struct {
	Score   float64      `json:"risk_score"`
	Level   RiskLevel    `json:"risk_level"`
	Factors []RiskFactor `json:"risk_factors"`
}

// ClaimAttributes is the slice of claim state the engine scores against.
type ClaimAttributes struct {
	Amount        values.Money `json:"amount"`
	DocumentCount int          `json:"document_count"`
	SubmittedAt   time.Time    `json:"submitted_at"`
}
