package policies

import (
	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/util"
)

// doubleQSeedSalt separates the table-selection stream from the trial stream.
const doubleQSeedSalt = 0x5eed_d0b1

// DoubleQPolicy keeps two tables; each update picks one at random, selects
// the next action with it and evaluates that action with the other.
type DoubleQPolicy struct {
	cfg Config
	a   *QTable
	b   *QTable
	eps epsilonSchedule

	rand *util.Rng
}

var _ core.Policy = &DoubleQPolicy{}

func NewDoubleQPolicy(cfg Config) *DoubleQPolicy {
	return &DoubleQPolicy{
		cfg:  cfg,
		a:    NewQTable(),
		b:    NewQTable(),
		eps:  newEpsilonSchedule(cfg),
		rand: util.NewRng(doubleQSeedSalt),
	}
}

func (d *DoubleQPolicy) Tables() (*QTable, *QTable) {
	return d.a, d.b
}

func (d *DoubleQPolicy) StartTrial(seed uint64) {
	d.a.Reset()
	d.b.Reset()
	d.eps = newEpsilonSchedule(d.cfg)
	d.rand.Seed(seed ^ doubleQSeedSalt)
}

func (d *DoubleQPolicy) StartEpisode(index, total int) {
	d.eps.startEpisode(index, total)
}

func (d *DoubleQPolicy) SelectAction(state string, rng *util.Rng) core.Decision {
	return epsilonGreedy(rng, d.eps.current, func() core.Action {
		return d.GreedyAction(state)
	})
}

func (d *DoubleQPolicy) Update(t core.Transition) {
	primary, other := d.a, d.b
	if d.rand.Bool() {
		primary, other = d.b, d.a
	}
	target := t.Reward
	if !t.Done {
		next, _ := primary.Max(t.NextStateKey)
		target += d.cfg.Gamma * other.Get(t.NextStateKey, next)
	}
	row := primary.Row(t.StateKey)
	row[t.Action] += d.cfg.Alpha * (target - row[t.Action])
	// keep both tables aware of the visited state
	other.Row(t.StateKey)
}

// QValues is the elementwise average of both tables.
func (d *DoubleQPolicy) QValues(state string) core.ActionValues {
	va, vb := d.a.Values(state), d.b.Values(state)
	var out core.ActionValues
	for i := range out {
		out[i] = (va[i] + vb[i]) / 2
	}
	return out
}

func (d *DoubleQPolicy) GreedyAction(state string) core.Action {
	return argmax(d.QValues(state))
}

func (d *DoubleQPolicy) Epsilon() float64 {
	return d.eps.current
}
