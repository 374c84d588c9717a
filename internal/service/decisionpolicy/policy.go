package decisionpolicy

import (
	"math"
	"time"
)

// Action is one of the three triage outcomes the policy can recommend.
type Action int

const (
	ActionApprove Action = iota
	ActionInvestigate
	ActionReject

	numActions = 3
)

var actionNames = [numActions]string{"approve", "investigate", "reject"}

func (a Action) String() string {
	if a < 0 || a >= numActions {
		return "unknown"
	}
	return actionNames[a]
}

// Confidence priors per action, used when no richer confidence signal
// exists.
var actionConfidence = [numActions]float64{
	ActionApprove:     0.9,
	ActionInvestigate: 0.6,
	ActionReject:      0.8,
}

var actionRationale = [numActions]string{
	ActionApprove:     "Low risk - Recommend approval",
	ActionInvestigate: "Moderate risk - Requires investigation",
	ActionReject:      "High risk - Recommend rejection",
}

// Decision is the policy's recommendation for one observation.
type Decision struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// params holds one immutable snapshot of the linear softmax policy.
// Predictions bind to exactly one snapshot; training publishes a new one
// with a single atomic pointer swap.
type params struct {
	Weights   [numActions][FeatureCount]float64 `json:"weights"`
	Bias      [numActions]float64               `json:"bias"`
	Version   int                               `json:"version"`
	TrainedAt time.Time                         `json:"trained_at"`
}

// logits computes the pre-softmax scores for each action.
func (p *params) logits(obs Observation) [numActions]float64 {
	var z [numActions]float64
	for a := 0; a < numActions; a++ {
		s := p.Bias[a]
		for i := 0; i < FeatureCount; i++ {
			s += p.Weights[a][i] * obs[i]
		}
		z[a] = s
	}
	return z
}

// probabilities returns the softmax distribution over actions, shifted by
// the max logit for numerical stability.
func (p *params) probabilities(obs Observation) [numActions]float64 {
	z := p.logits(obs)
	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}
	var sum float64
	var probs [numActions]float64
	for a := 0; a < numActions; a++ {
		probs[a] = math.Exp(z[a] - maxZ)
		sum += probs[a]
	}
	for a := 0; a < numActions; a++ {
		probs[a] /= sum
	}
	return probs
}

// predict picks the highest-probability action. Deterministic for a given
// parameter snapshot and observation.
func (p *params) predict(obs Observation) Decision {
	probs := p.probabilities(obs)
	best := ActionApprove
	for a := Action(1); a < numActions; a++ {
		if probs[a] > probs[best] {
			best = a
		}
	}
	return Decision{
		Action:     best,
		Confidence: actionConfidence[best],
		Rationale:  actionRationale[best],
	}
}

func newParams() *params {
	return &params{Version: 0}
}

// clone returns a deep copy; arrays copy by value so assignment suffices.
func (p *params) clone() *params {
	c := *p
	return &c
}
