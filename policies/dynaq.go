package policies

import (
	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/util"
)

const dynaSeedSalt = 0xd1a_c0de

type modelKey struct {
	state  string
	action core.Action
}

type modelEntry struct {
	nextState string
	reward    float64
	done      bool
}

// DynaQPolicy is Q-learning plus a deterministic one-step model. After each
// real update it replays PlanningSteps transitions sampled uniformly from
// the model.
type DynaQPolicy struct {
	*QLearningPolicy

	model map[modelKey]modelEntry
	// seen keeps model keys in first-seen order so sampling is reproducible.
	seen []modelKey
	rand *util.Rng
}

var _ core.Policy = &DynaQPolicy{}

func NewDynaQPolicy(cfg Config) *DynaQPolicy {
	if cfg.PlanningSteps < 0 {
		cfg.PlanningSteps = 0
	}
	return &DynaQPolicy{
		QLearningPolicy: NewQLearningPolicy(cfg),
		model:           make(map[modelKey]modelEntry),
		seen:            make([]modelKey, 0),
		rand:            util.NewRng(dynaSeedSalt),
	}
}

func (d *DynaQPolicy) StartTrial(seed uint64) {
	d.QLearningPolicy.StartTrial(seed)
	d.model = make(map[modelKey]modelEntry)
	d.seen = d.seen[:0]
	d.rand.Seed(seed ^ dynaSeedSalt)
}

func (d *DynaQPolicy) ModelSize() int {
	return len(d.seen)
}

func (d *DynaQPolicy) Update(t core.Transition) {
	qLearningStep(d.qTable, t, d.cfg.Alpha, d.cfg.Gamma)

	key := modelKey{state: t.StateKey, action: t.Action}
	if _, ok := d.model[key]; !ok {
		d.seen = append(d.seen, key)
	}
	d.model[key] = modelEntry{nextState: t.NextStateKey, reward: t.Reward, done: t.Done}

	for i := 0; i < d.cfg.PlanningSteps; i++ {
		k := util.Pick(d.rand, d.seen)
		m := d.model[k]
		qLearningStep(d.qTable, core.Transition{
			StateKey:     k.state,
			Action:       k.action,
			Reward:       m.reward,
			NextStateKey: m.nextState,
			Done:         m.done,
		}, d.cfg.Alpha, d.cfg.Gamma)
	}
}
