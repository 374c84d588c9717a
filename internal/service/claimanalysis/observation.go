package claimanalysis

import (
	"time"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/policy"
	"github.com/claimguard/insurance-fraud-backend/internal/service/decisionpolicy"
	"github.com/claimguard/insurance-fraud-backend/internal/service/riskscoring"
)

// Normalization ceilings for the derivable observation features. Values at
// or beyond a ceiling clamp to 1.
const (
	amountCeiling    = 10000.0
	policyAgeCeiling = 10.0 // years
	historyCeiling   = 10.0 // claims filed by the same user
	recencyCeiling   = 365.0
)

// deriveObservation maps stored claim state onto the policy's feature
// vector. Features with no stored counterpart (location, third-party,
// beneficiary, agent) keep the neutral prior.
func deriveObservation(c *claim.Claim, p *policy.Policy, history []*claim.Claim) decisionpolicy.Observation {
	now := time.Now()
	obs := decisionpolicy.NeutralObservation()

	obs.Set(decisionpolicy.FeatureClaimAmountRatio, c.Amount.ToFloat64()/amountCeiling)
	obs.Set(decisionpolicy.FeaturePolicyAgeRatio, p.AgeAt(now).Hours()/(24*365*policyAgeCeiling))
	obs.Set(decisionpolicy.FeatureClaimFrequencyRatio, float64(len(history))/historyCeiling)

	days := now.Sub(c.SubmittedAt).Hours() / 24
	obs.Set(decisionpolicy.FeatureRecencyRatio, 1-days/recencyCeiling)

	obs.Set(decisionpolicy.FeatureDocumentAnomalyScore, documentAnomaly(c.Reports))

	if !p.Premium.IsZero() {
		obs.Set(decisionpolicy.FeaturePremiumRatio, c.Amount.ToFloat64()/(p.Premium.ToFloat64()*premiumMultiple))
	}

	return obs
}

// premiumMultiple scales the claim-to-premium ratio so a claim worth ten
// annual premiums saturates the feature.
const premiumMultiple = 10.0

// documentAnomaly condenses the forensic reports into one [0,1] score:
// the worst tampering signal relative to the high-severity threshold, with
// invalid documents counting as fully anomalous.
func documentAnomaly(reports []claim.ForensicReport) float64 {
	if len(reports) == 0 {
		return 0
	}
	worst := 0.0
	for _, r := range reports {
		if !r.Valid {
			return 1
		}
		if v := r.Tampering.Mean / riskscoring.TamperingHighThreshold; v > worst {
			worst = v
		}
	}
	if worst > 1 {
		worst = 1
	}
	return worst
}
