package policies

import (
	"github.com/zeu5/maze-coach/core"
	"gonum.org/v1/gonum/floats"
)

// ExpectedSarsaPolicy bootstraps on the expected next value under the
// current epsilon-greedy policy.
type ExpectedSarsaPolicy struct {
	*QLearningPolicy
}

var _ core.Policy = &ExpectedSarsaPolicy{}

func NewExpectedSarsaPolicy(cfg Config) *ExpectedSarsaPolicy {
	return &ExpectedSarsaPolicy{QLearningPolicy: NewQLearningPolicy(cfg)}
}

func (e *ExpectedSarsaPolicy) Update(t core.Transition) {
	target := t.Reward
	if !t.Done {
		target += e.cfg.Gamma * expectedValue(e.qTable.Values(t.NextStateKey), e.eps.current)
	}
	row := e.qTable.Row(t.StateKey)
	row[t.Action] += e.cfg.Alpha * (target - row[t.Action])
}

// expectedValue is sum_a pi(a|s) Q[s][a] for the epsilon-greedy pi: every
// action gets eps/|A| and the greedy action gets the remaining 1-eps.
func expectedValue(values core.ActionValues, eps float64) float64 {
	probs := make([]float64, core.NumActions)
	for i := range probs {
		probs[i] = eps / core.NumActions
	}
	probs[floats.MaxIdx(values[:])] += 1 - eps
	return floats.Dot(probs, values[:])
}
