package core

import "github.com/zeu5/maze-coach/util"

// Decision is an action choice together with whether it was exploratory.
type Decision struct {
	Action   Action
	Explored bool
}

// Policy is the contract shared by every learning agent.
//
// A trial resets everything learned; an episode only resets the exploration
// schedule. QValues, GreedyAction and Epsilon are queries and may at most
// materialize a zero row for an unseen state.
type Policy interface {
	StartTrial(seed uint64)
	StartEpisode(index, total int)
	SelectAction(stateKey string, rng *util.Rng) Decision
	Update(Transition)
	QValues(stateKey string) ActionValues
	GreedyAction(stateKey string) Action
	Epsilon() float64
}

type PolicyConstructor interface {
	NewPolicy() Policy
}
