package decisionpolicy

import "math/rand"

const (
	learningRate = 0.01

	// One optimization step is a full-batch policy-gradient update over
	// the experience snapshot.
	fullTrainSteps        = 50
	incrementalTrainSteps = 10

	bootstrapSeed     = 1729
	bootstrapEpisodes = 500
)

// train runs a fixed number of REINFORCE updates over the snapshot and
// returns the resulting parameters. The input snapshot and starting params
// are never mutated.
func train(start *params, snapshot []Experience, steps int) *params {
	p := start.clone()
	for step := 0; step < steps; step++ {
		var gradW [numActions][FeatureCount]float64
		var gradB [numActions]float64

		for _, e := range snapshot {
			probs := p.probabilities(e.Observation)
			for a := 0; a < numActions; a++ {
				// grad log pi(a|s) = 1{a=action} - pi(a|s)
				indicator := 0.0
				if Action(a) == e.Action {
					indicator = 1.0
				}
				g := e.Reward * (indicator - probs[a])
				gradB[a] += g
				for i := 0; i < FeatureCount; i++ {
					gradW[a][i] += g * e.Observation[i]
				}
			}
		}

		scale := learningRate / float64(len(snapshot))
		for a := 0; a < numActions; a++ {
			p.Bias[a] += scale * gradB[a]
			for i := 0; i < FeatureCount; i++ {
				p.Weights[a][i] += scale * gradW[a][i]
			}
		}
	}
	return p
}

// bootstrapExperience generates seeded synthetic episodes for cold starts.
// The ideal action follows the aggregate risk carried by the observation,
// so a freshly initialized policy learns the coarse risk bands before it
// ever serves a prediction.
func bootstrapExperience(seed int64, episodes int) []Experience {
	rng := rand.New(rand.NewSource(seed))
	out := make([]Experience, 0, episodes)
	for i := 0; i < episodes; i++ {
		var obs Observation
		var sum float64
		for j := range obs {
			obs[j] = rng.Float64()
			sum += obs[j]
		}
		risk := sum / FeatureCount

		ideal := ActionApprove
		switch {
		case risk >= 0.7:
			ideal = ActionReject
		case risk >= 0.4:
			ideal = ActionInvestigate
		}

		// Mix in penalized wrong actions so the gradient pushes away
		// from them, not just toward the ideal.
		action := ideal
		reward := 1.0
		if rng.Float64() < 0.25 {
			action = Action(rng.Intn(numActions))
			if action != ideal {
				reward = -1.0
			}
		}
		out = append(out, Experience{Observation: obs, Action: action, Reward: reward})
	}
	return out
}
