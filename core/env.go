package core

// RewardConfig holds the environment's reward shaping and step limits.
type RewardConfig struct {
	StepPenalty     float64 `json:"step_penalty"`
	WallBumpPenalty float64 `json:"wall_bump_penalty"`
	GoalReward      float64 `json:"goal_reward"`
	MaxSteps9       int     `json:"max_steps_9"`
	MaxSteps11      int     `json:"max_steps_11"`
}

func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		StepPenalty:     -0.01,
		WallBumpPenalty: -0.05,
		GoalReward:      1.0,
		MaxSteps9:       120,
		MaxSteps11:      180,
	}
}

// InitialDirection is the heading the agent has after Reset.
const InitialDirection = Right

// GridWorld is the maze environment. It is a pure state machine: the only
// inputs are Reset and Step.
type GridWorld struct {
	layout  *MazeLayout
	rewards RewardConfig

	state         AgentState
	stepCount     int
	episodeReturn float64
}

func NewGridWorld(layout *MazeLayout, rewards RewardConfig) *GridWorld {
	g := &GridWorld{
		layout:  layout,
		rewards: rewards,
	}
	g.Reset()
	return g
}

func (g *GridWorld) Layout() *MazeLayout {
	return g.layout
}

func (g *GridWorld) Rewards() RewardConfig {
	return g.rewards
}

// MaxSteps is the per-episode step limit for this maze size.
func (g *GridWorld) MaxSteps() int {
	if g.layout.Size() == 9 {
		return g.rewards.MaxSteps9
	}
	return g.rewards.MaxSteps11
}

// Reset puts the agent on the start cell facing InitialDirection.
func (g *GridWorld) Reset() Observation {
	start := g.layout.Start()
	g.state = AgentState{Row: start.Row, Col: start.Col, Dir: InitialDirection}
	g.stepCount = 0
	g.episodeReturn = 0
	return g.Observation()
}

func (g *GridWorld) State() AgentState {
	return g.state
}

func (g *GridWorld) StepCount() int {
	return g.stepCount
}

// Observation senses the walls around the current state without changing it.
func (g *GridWorld) Observation() Observation {
	return observe(g.layout, g.state)
}

func observe(m *MazeLayout, s AgentState) Observation {
	blocked := func(d Direction) bool {
		dr, dc := d.Delta()
		return m.IsWall(s.Row+dr, s.Col+dc)
	}
	return Observation{
		Row:          s.Row,
		Col:          s.Col,
		Dir:          s.Dir,
		FrontBlocked: blocked(s.Dir),
		LeftBlocked:  blocked(s.Dir.LeftOf()),
		RightBlocked: blocked(s.Dir.RightOf()),
		AtGoal:       s.Cell() == m.Goal(),
	}
}

// Step applies one action. Forward into a wall or off the grid is a bump and
// leaves the agent in place; turns never bump.
func (g *GridWorld) Step(action Action) StepResult {
	prev := g.state
	next := prev
	bump := false

	switch action {
	case ActionLeft:
		next.Dir = prev.Dir.LeftOf()
	case ActionRight:
		next.Dir = prev.Dir.RightOf()
	default:
		dr, dc := prev.Dir.Delta()
		if g.layout.IsWall(prev.Row+dr, prev.Col+dc) {
			bump = true
		} else {
			next.Row += dr
			next.Col += dc
		}
	}

	g.state = next
	g.stepCount++

	reward := g.rewards.StepPenalty
	if bump {
		reward += g.rewards.WallBumpPenalty
	}
	success := next.Cell() == g.layout.Goal()
	if success {
		reward += g.rewards.GoalReward
	}
	g.episodeReturn += reward

	done := success || g.stepCount >= g.MaxSteps()
	return StepResult{
		PrevState:       prev,
		State:           next,
		Action:          action,
		Reward:          reward,
		Done:            done,
		Success:         success,
		Bump:            bump,
		Observation:     g.Observation(),
		StepCount:       g.stepCount,
		EpisodeReturn:   g.episodeReturn,
		MaxStepsReached: done && !success && g.stepCount >= g.MaxSteps(),
	}
}
