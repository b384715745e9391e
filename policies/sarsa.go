package policies

import (
	"github.com/zeu5/maze-coach/core"
)

// SarsaPolicy is on-policy TD(0): it bootstraps on the action actually chosen
// for the next state.
type SarsaPolicy struct {
	*QLearningPolicy
}

var _ core.Policy = &SarsaPolicy{}

func NewSarsaPolicy(cfg Config) *SarsaPolicy {
	return &SarsaPolicy{QLearningPolicy: NewQLearningPolicy(cfg)}
}

func (s *SarsaPolicy) Update(t core.Transition) {
	target := t.Reward
	if !t.Done {
		next, _ := s.qTable.Max(t.NextStateKey)
		if t.NextAction != nil && t.NextAction.Valid() {
			next = *t.NextAction
		}
		target += s.cfg.Gamma * s.qTable.Get(t.NextStateKey, next)
	}
	row := s.qTable.Row(t.StateKey)
	row[t.Action] += s.cfg.Alpha * (target - row[t.Action])
}
