package riskscoring

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
)

// Engine computes a bounded risk assessment from claim attributes and the
// forensic reports of its documents.
type Engine interface {
	Score(attrs ClaimAttributes, reports []claim.ForensicReport) *Assessment
}

type engine struct {
	logger *slog.Logger
}

// NewEngine creates the risk scoring engine
func NewEngine(logger *slog.Logger) Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &engine{logger: logger}
}

// Score produces the combined assessment. Internal failures never
// propagate: the engine logs and returns the default Medium assessment.
func (e *engine) Score(attrs ClaimAttributes, reports []claim.ForensicReport) (result *Assessment) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("risk scoring failed, returning default assessment", "panic", r)
			result = DefaultAssessment()
		}
	}()

	factors := e.documentFactors(reports)

	patternRisk := clamp(e.claimPatternRisk(attrs), 0, 100)

	// With no documents there is no forensic evidence to average in; the
	// claim-pattern risk stands alone.
	var score float64
	if len(reports) == 0 {
		score = round2(patternRisk)
	} else {
		docRisk := clamp(sumWeights(factors), 0, 100)
		score = round2((docRisk + patternRisk) / 2)
	}

	return &Assessment{
		Score:   score,
		Level:   LevelFor(score),
		Factors: factors,
	}
}

// documentFactors runs per-document anomaly detection across all reports.
// Result order follows report order, but the aggregate is a sum so scoring
// is order-insensitive.
func (e *engine) documentFactors(reports []claim.ForensicReport) []RiskFactor {
	factors := make([]RiskFactor, 0, len(reports))

	for _, report := range reports {
		if !report.Valid {
			continue
		}

		switch {
		case report.Tampering.Mean > TamperingHighThreshold:
			factors = append(factors, RiskFactor{
				Type:     "image_manipulation",
				Severity: SeverityHigh,
				Details:  fmt.Sprintf("Suspicious image manipulation detected (ELA mean: %.2f)", report.Tampering.Mean),
				Document: report.Filename,
			})
		case report.Tampering.Mean > 0:
			factors = append(factors, RiskFactor{
				Type:     "image_manipulation",
				Severity: SeverityMedium,
				Details:  fmt.Sprintf("Possible image manipulation (ELA mean: %.2f)", report.Tampering.Mean),
				Document: report.Filename,
			})
		}

		if report.Text.WordCount < LowContentWordCount {
			factors = append(factors, RiskFactor{
				Type:     "low_content",
				Severity: SeverityMedium,
				Details:  "Document contains very little text",
				Document: report.Filename,
			})
		}

		if report.Text.Sentiment == "negative" && report.Text.SentimentScore > NegativeSentimentConfidence {
			factors = append(factors, RiskFactor{
				Type:     "negative_sentiment",
				Severity: SeverityLow,
				Details:  "Strong negative sentiment detected in document",
				Document: report.Filename,
			})
		}
	}

	return factors
}

// claimPatternRisk scores the claim's own attributes: base 50, plus points
// for large amounts and thin documentation.
func (e *engine) claimPatternRisk(attrs ClaimAttributes) float64 {
	risk := ClaimPatternBase

	amount := attrs.Amount.ToFloat64()
	switch {
	case amount > LargeAmountThreshold:
		risk += LargeAmountPoints
	case amount > ElevatedAmountThreshold:
		risk += ElevatedAmountPoints
	}

	if attrs.DocumentCount < MinSupportingDocuments {
		risk += FewDocumentsPoints
	}

	return risk
}

// LevelFor maps a score to its band. Pure function of the score.
func LevelFor(score float64) RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return LevelHigh
	case score >= MediumRiskThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// DefaultAssessment is the documented fallback when scoring fails.
func DefaultAssessment() *Assessment {
	return &Assessment{
		Score:   DefaultScore,
		Level:   LevelFor(DefaultScore),
		Factors: []RiskFactor{},
	}
}

func sumWeights(factors []RiskFactor) float64 {
	total := 0.0
	for _, f := range factors {
		switch f.Severity {
		case SeverityHigh:
			total += WeightHigh
		case SeverityMedium:
			total += WeightMedium
		case SeverityLow:
			total += WeightLow
		}
	}
	return total
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
