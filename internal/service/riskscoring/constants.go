package riskscoring

// Severity weights summed into the document risk subtotal
const (
	WeightHigh   = 30.0
	WeightMedium = 15.0
	WeightLow    = 5.0
)

// Document anomaly thresholds
const (
	// TamperingHighThreshold: ELA mean above this flags high-severity
	// image manipulation; any positive mean is at least medium.
	TamperingHighThreshold = 75.0

	// LowContentWordCount: documents with fewer words are flagged medium
	LowContentWordCount = 10

	// NegativeSentimentConfidence: negative sentiment above this
	// confidence adds a low-severity factor
	NegativeSentimentConfidence = 0.8
)

// Claim-pattern scoring
const (
	ClaimPatternBase = 50.0

	LargeAmountThreshold    = 5000.0
	ElevatedAmountThreshold = 2000.0
	LargeAmountPoints       = 20.0
	ElevatedAmountPoints    = 10.0

	MinSupportingDocuments = 2
	FewDocumentsPoints     = 15.0
)

// Risk level bands. Score ≥ HighRiskThreshold is High, ≥ MediumRiskThreshold
// is Medium, anything below is Low.
const (
	HighRiskThreshold   = 75.0
	MediumRiskThreshold = 50.0
)

var (
	LevelHigh   = RiskLevel{Label: "High Risk", Color: "#dc3545"}
	LevelMedium = RiskLevel{Label: "Medium Risk", Color: "#ffc107"}
	LevelLow    = RiskLevel{Label: "Low Risk", Color: "#28a745"}
)

// DefaultScore is returned when the engine cannot compute a real score;
// it bands to Medium Risk with no factors.
const DefaultScore = 50.0
