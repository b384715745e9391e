package policies

import (
	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/util"
)

// QLearningPolicy is off-policy TD(0) control.
type QLearningPolicy struct {
	cfg    Config
	qTable *QTable
	eps    epsilonSchedule
}

var _ core.Policy = &QLearningPolicy{}

func NewQLearningPolicy(cfg Config) *QLearningPolicy {
	return &QLearningPolicy{
		cfg:    cfg,
		qTable: NewQTable(),
		eps:    newEpsilonSchedule(cfg),
	}
}

func (q *QLearningPolicy) Table() *QTable {
	return q.qTable
}

func (q *QLearningPolicy) StartTrial(_ uint64) {
	q.qTable.Reset()
	q.eps = newEpsilonSchedule(q.cfg)
}

func (q *QLearningPolicy) StartEpisode(index, total int) {
	q.eps.startEpisode(index, total)
}

func (q *QLearningPolicy) SelectAction(state string, rng *util.Rng) core.Decision {
	return epsilonGreedy(rng, q.eps.current, func() core.Action {
		return q.GreedyAction(state)
	})
}

func (q *QLearningPolicy) Update(t core.Transition) {
	qLearningStep(q.qTable, t, q.cfg.Alpha, q.cfg.Gamma)
}

func (q *QLearningPolicy) QValues(state string) core.ActionValues {
	return q.qTable.Values(state)
}

func (q *QLearningPolicy) GreedyAction(state string) core.Action {
	a, _ := q.qTable.Max(state)
	return a
}

func (q *QLearningPolicy) Epsilon() float64 {
	return q.eps.current
}
