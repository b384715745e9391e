package policies

import (
	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/util"
)

// RandomPolicy is the control baseline: it never learns and always explores.
type RandomPolicy struct{}

var _ core.Policy = &RandomPolicy{}

func NewRandomPolicy() *RandomPolicy {
	return &RandomPolicy{}
}

func (r *RandomPolicy) StartTrial(_ uint64) {}

func (r *RandomPolicy) StartEpisode(_, _ int) {}

func (r *RandomPolicy) SelectAction(_ string, rng *util.Rng) core.Decision {
	return core.Decision{Action: core.Action(rng.Intn(core.NumActions)), Explored: true}
}

func (r *RandomPolicy) Update(_ core.Transition) {}

func (r *RandomPolicy) QValues(_ string) core.ActionValues {
	return core.ActionValues{}
}

func (r *RandomPolicy) GreedyAction(_ string) core.Action {
	return core.ActionForward
}

func (r *RandomPolicy) Epsilon() float64 {
	return 1
}
