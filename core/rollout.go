package core

// Rollout is the outcome of following a policy greedily without learning.
type Rollout struct {
	Path    []AgentState
	Actions []Action
	Steps   int
	Bumps   int
	Success bool
	Return  float64
}

// GreedyRollout plays one episode with GreedyAction and never calls Update.
func GreedyRollout(layout *MazeLayout, rewards RewardConfig, policy Policy) Rollout {
	env := NewGridWorld(layout, rewards)
	env.Reset()
	out := Rollout{Path: []AgentState{env.State()}}
	for i := 0; i < env.MaxSteps(); i++ {
		action := policy.GreedyAction(StateKey(env.Observation()))
		res := env.Step(action)
		out.Path = append(out.Path, res.State)
		out.Actions = append(out.Actions, action)
		out.Steps = res.StepCount
		out.Return = res.EpisodeReturn
		if res.Bump {
			out.Bumps++
		}
		if res.Done {
			out.Success = res.Success
			break
		}
	}
	return out
}
