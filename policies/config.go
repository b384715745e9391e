package policies

import (
	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/util"
)

// Config holds the hyperparameters shared by the tabular agents.
type Config struct {
	Alpha        float64 `json:"alpha"`
	Gamma        float64 `json:"gamma"`
	EpsilonStart float64 `json:"epsilon_start"`
	EpsilonEnd   float64 `json:"epsilon_end"`
	// PlanningSteps is the number of simulated updates Dyna-Q performs per
	// real update.
	PlanningSteps int `json:"planning_steps"`
}

func DefaultConfig() Config {
	return Config{
		Alpha:         0.2,
		Gamma:         0.95,
		EpsilonStart:  0.3,
		EpsilonEnd:    0.05,
		PlanningSteps: 8,
	}
}

// epsilonSchedule interpolates linearly from start to end over an episode run.
type epsilonSchedule struct {
	start   float64
	end     float64
	current float64
}

func newEpsilonSchedule(cfg Config) epsilonSchedule {
	return epsilonSchedule{start: cfg.EpsilonStart, end: cfg.EpsilonEnd, current: cfg.EpsilonStart}
}

func (e *epsilonSchedule) startEpisode(index, total int) {
	if total <= 1 {
		e.current = e.start
		return
	}
	t := util.Clamp(float64(index)/float64(total-1), 0, 1)
	e.current = e.start + (e.end-e.start)*t
}

// epsilonGreedy explores with probability eps and otherwise takes greedy().
func epsilonGreedy(rng *util.Rng, eps float64, greedy func() core.Action) core.Decision {
	if rng.Float64() < eps {
		return core.Decision{Action: core.Action(rng.Intn(core.NumActions)), Explored: true}
	}
	return core.Decision{Action: greedy(), Explored: false}
}

// qLearningStep applies Q[s][a] += alpha*(r + gamma*max Q[s']*(1-done) - Q[s][a])
// and returns the TD error.
func qLearningStep(q *QTable, t core.Transition, alpha, gamma float64) float64 {
	target := t.Reward
	if !t.Done {
		_, next := q.Max(t.NextStateKey)
		target += gamma * next
	}
	row := q.Row(t.StateKey)
	tdError := target - row[t.Action]
	row[t.Action] += alpha * tdError
	return tdError
}
