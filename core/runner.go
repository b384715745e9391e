package core

import (
	"context"

	"github.com/zeu5/maze-coach/util"
)

// StepInfo is handed to a StepObserver after every update.
type StepInfo struct {
	Episode      int
	StateKey     string
	Decision     Decision
	Result       StepResult
	NextStateKey string
}

type StepObserver func(StepInfo)

// EpisodeRequest is everything RunEpisode needs for one episode.
// Gate may be nil, in which case only ctx is checked.
type EpisodeRequest struct {
	Env    *GridWorld
	Policy Policy
	Rng    *util.Rng
	Index  int
	Total  int

	Gate     *Gate
	Token    Token
	Observer StepObserver
}

// RunEpisode alternates environment steps with agent decisions and updates
// until the environment reports done. Cancellation is checked before every
// step; a superseded run returns ErrCanceled and no metrics.
func RunEpisode(ctx context.Context, req EpisodeRequest) (EpisodeMetrics, error) {
	env, policy := req.Env, req.Policy

	policy.StartEpisode(req.Index, req.Total)
	obs := env.Reset()
	key := StateKey(obs)
	decision := policy.SelectAction(key, req.Rng)

	metrics := EpisodeMetrics{Episode: req.Index}
	maxSteps := env.MaxSteps()
	for step := 0; step < maxSteps; step++ {
		if err := pass(ctx, req.Gate, req.Token); err != nil {
			return EpisodeMetrics{}, err
		}

		result := env.Step(decision.Action)
		if decision.Explored {
			metrics.Explored++
		}
		if result.Bump {
			metrics.Bumps++
		}
		nextKey := StateKey(result.Observation)

		transition := Transition{
			StateKey:     key,
			Action:       decision.Action,
			Reward:       result.Reward,
			NextStateKey: nextKey,
			Done:         result.Done,
		}
		var next Decision
		if !result.Done {
			next = policy.SelectAction(nextKey, req.Rng)
			nextAction := next.Action
			transition.NextAction = &nextAction
		}
		policy.Update(transition)

		if req.Observer != nil {
			req.Observer(StepInfo{
				Episode:      req.Index,
				StateKey:     key,
				Decision:     decision,
				Result:       result,
				NextStateKey: nextKey,
			})
		}

		metrics.Steps = result.StepCount
		metrics.EpisodeReturn = result.EpisodeReturn
		if result.Done {
			metrics.Success = result.Success
			return metrics, nil
		}
		key, decision = nextKey, next
	}

	// The environment terminates at its own limit, so this is only reached
	// when maxSteps is not positive.
	metrics.Truncated = true
	return metrics, nil
}

func pass(ctx context.Context, gate *Gate, token Token) error {
	if gate != nil {
		return gate.Pass(ctx, token)
	}
	select {
	case <-ctx.Done():
		return ErrCanceled
	default:
		return nil
	}
}
