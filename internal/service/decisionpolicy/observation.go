package decisionpolicy

// Feature indexes one dimension of the observation vector.
type Feature int

const (
	FeatureClaimAmountRatio Feature = iota
	FeaturePolicyAgeRatio
	FeatureClaimFrequencyRatio
	FeatureRecencyRatio
	FeatureLocationRisk
	FeatureThirdPartyRisk
	FeatureDocumentAnomalyScore
	FeatureBeneficiaryMatchScore
	FeaturePremiumRatio
	FeatureAgentRisk

	FeatureCount = 10
)

var featureNames = [FeatureCount]string{
	"claim_amount_ratio",
	"policy_age_ratio",
	"claim_frequency_ratio",
	"recency_ratio",
	"location_risk",
	"third_party_risk",
	"document_anomaly_score",
	"beneficiary_match_score",
	"premium_ratio",
	"agent_risk",
}

func (f Feature) String() string {
	if f < 0 || f >= FeatureCount {
		return "unknown"
	}
	return featureNames[f]
}

// neutralValue is the prior used for any feature the caller cannot supply.
const neutralValue = 0.5

// Observation is a fixed-size vector of normalized features in [0,1].
type Observation [FeatureCount]float64

// NeutralObservation returns an observation with every feature at the
// neutral prior.
func NeutralObservation() Observation {
	var o Observation
	for i := range o {
		o[i] = neutralValue
	}
	return o
}

// NewObservation builds an observation from the supplied features. Features
// absent from the map keep the neutral prior; supplied values are clamped
// to [0,1].
func NewObservation(features map[Feature]float64) Observation {
	o := NeutralObservation()
	for f, v := range features {
		o.Set(f, v)
	}
	return o
}

// Set assigns a feature value, clamping it to [0,1]. Out-of-range features
// are ignored.
func (o *Observation) Set(f Feature, v float64) {
	if f < 0 || f >= FeatureCount {
		return
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	o[f] = v
}
