package policies

import (
	"math"

	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/util"
	"gonum.org/v1/gonum/floats"
)

const (
	ppoAdvantageClip  = 1.5
	ppoRatioClip      = 0.2
	ppoStepSize       = 0.35
	ppoLogProbWeight  = 0.02
	ppoDistillWeight  = 0.1
	ppoDistillTemp    = 0.35
	ppoEntropyWeight  = 0.02
	ppoMaxLogitDelta  = 0.45
	ppoMinProbability = 1e-8
	ppoClipIterations = 50
)

// PPOPolicy is a tabular actor-critic. The critic is a Q-table trained with
// Q-learning; the actor keeps per-state logits that are moved by a clipped
// policy-gradient step toward actions with positive TD error. Logits of a
// touched state always have zero mean.
type PPOPolicy struct {
	*QLearningPolicy
	logits *QTable
}

var _ core.Policy = &PPOPolicy{}

func NewPPOPolicy(cfg Config) *PPOPolicy {
	return &PPOPolicy{
		QLearningPolicy: NewQLearningPolicy(cfg),
		logits:          NewQTable(),
	}
}

func (p *PPOPolicy) StartTrial(seed uint64) {
	p.QLearningPolicy.StartTrial(seed)
	p.logits.Reset()
}

// Logits returns a copy of the actor logits for state.
func (p *PPOPolicy) Logits(state string) core.ActionValues {
	return p.logits.Values(state)
}

// Probabilities is the softmax of the actor logits for state.
func (p *PPOPolicy) Probabilities(state string) core.ActionValues {
	return softmax(p.logits.Values(state), 1)
}

func (p *PPOPolicy) SelectAction(state string, rng *util.Rng) core.Decision {
	return epsilonGreedy(rng, p.eps.current, func() core.Action {
		return p.GreedyAction(state)
	})
}

// GreedyAction ranks actions by q + 0.02*log(pi), so the critic dominates
// while the actor is still uninformed.
func (p *PPOPolicy) GreedyAction(state string) core.Action {
	q := p.qTable.Values(state)
	probs := p.Probabilities(state)
	var score core.ActionValues
	for i := range score {
		score[i] = q[i] + ppoLogProbWeight*math.Log(math.Max(probs[i], ppoMinProbability))
	}
	return argmax(score)
}

func (p *PPOPolicy) Update(t core.Transition) {
	advantage := util.Clamp(qLearningStep(p.qTable, t, p.cfg.Alpha, p.cfg.Gamma), -ppoAdvantageClip, ppoAdvantageClip)

	row := p.logits.Row(t.StateKey)
	probs := softmax(*row, 1)

	var delta core.ActionValues
	for j := range delta {
		indicator := 0.0
		if core.Action(j) == t.Action {
			indicator = 1
		}
		delta[j] = ppoStepSize * advantage * (indicator - probs[j])
	}
	delta = clipPolicyStep(*row, delta, t.Action, advantage)

	distill := softmax(p.qTable.Values(t.StateKey), ppoDistillTemp)
	for j := range delta {
		delta[j] += ppoDistillWeight * (distill[j] - probs[j])
		delta[j] += ppoEntropyWeight * (1.0/core.NumActions - probs[j])
		delta[j] = util.Clamp(delta[j], -ppoMaxLogitDelta, ppoMaxLogitDelta)
	}

	for j := range row {
		row[j] += delta[j]
	}
	mean := floats.Sum(row[:]) / core.NumActions
	for j := range row {
		row[j] -= mean
	}
}

// clipPolicyStep scales delta so the probability ratio of the taken action
// stays within [1-clip, 1+clip] in the direction of the advantage. The ratio
// is monotone in the scale, so the boundary is found by bisection.
func clipPolicyStep(logits, delta core.ActionValues, action core.Action, advantage float64) core.ActionValues {
	old := math.Max(softmax(logits, 1)[action], ppoMinProbability)
	ratio := func(scale float64) float64 {
		var moved core.ActionValues
		for j := range moved {
			moved[j] = logits[j] + scale*delta[j]
		}
		return softmax(moved, 1)[action] / old
	}

	var outside func(float64) bool
	switch {
	case advantage > 0:
		outside = func(r float64) bool { return r > 1+ppoRatioClip }
	case advantage < 0:
		outside = func(r float64) bool { return r < 1-ppoRatioClip }
	default:
		return delta
	}
	if !outside(ratio(1)) {
		return delta
	}

	lo, hi := 0.0, 1.0
	for i := 0; i < ppoClipIterations; i++ {
		mid := (lo + hi) / 2
		if outside(ratio(mid)) {
			hi = mid
		} else {
			lo = mid
		}
	}
	for j := range delta {
		delta[j] *= lo
	}
	return delta
}

func softmax(values core.ActionValues, temperature float64) core.ActionValues {
	scaled := make([]float64, core.NumActions)
	for i, v := range values {
		scaled[i] = v / temperature
	}
	lse := floats.LogSumExp(scaled)
	var out core.ActionValues
	for i, v := range scaled {
		out[i] = math.Exp(v - lse)
	}
	return out
}
