package core

import (
	"strconv"
	"strings"
)

// Direction is a compass heading. Turning right is (d+1)%4, left is (d+3)%4.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

var directionVectors = [4][2]int{
	Up:    {-1, 0},
	Right: {0, 1},
	Down:  {1, 0},
	Left:  {0, -1},
}

// Delta is the unit (row, col) vector of d.
func (d Direction) Delta() (int, int) {
	v := directionVectors[d.normalize()]
	return v[0], v[1]
}

func (d Direction) RightOf() Direction {
	return (d.normalize() + 1) % 4
}

func (d Direction) LeftOf() Direction {
	return (d.normalize() + 3) % 4
}

func (d Direction) normalize() Direction {
	return ((d % 4) + 4) % 4
}

func (d Direction) String() string {
	switch d.normalize() {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	default:
		return "left"
	}
}

// Action is one of the three moves available to every agent.
type Action int

const (
	ActionForward Action = iota
	ActionLeft
	ActionRight
)

// NumActions is the fixed action arity shared by all agents.
const NumActions = 3

// ActionValues holds one estimate per action.
type ActionValues [NumActions]float64

func AllActions() []Action {
	return []Action{ActionForward, ActionLeft, ActionRight}
}

func (a Action) String() string {
	switch a {
	case ActionForward:
		return "forward"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	default:
		return "action(" + strconv.Itoa(int(a)) + ")"
	}
}

func (a Action) Hash() string {
	return strconv.Itoa(int(a))
}

func (a Action) Valid() bool {
	return a >= ActionForward && a <= ActionRight
}

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type AgentState struct {
	Row int       `json:"row"`
	Col int       `json:"col"`
	Dir Direction `json:"dir"`
}

func (s AgentState) Cell() Cell {
	return Cell{Row: s.Row, Col: s.Col}
}

// Observation is what the agent senses; it depends only on the agent state
// and the maze layout.
type Observation struct {
	Row          int       `json:"row"`
	Col          int       `json:"col"`
	Dir          Direction `json:"dir"`
	FrontBlocked bool      `json:"front_blocked"`
	LeftBlocked  bool      `json:"left_blocked"`
	RightBlocked bool      `json:"right_blocked"`
	AtGoal       bool      `json:"at_goal"`
}

// StateKey encodes an observation as "row,col,dir,front,left,right" with
// the blocked flags written as 0/1. Value tables are keyed by it.
func StateKey(o Observation) string {
	var b strings.Builder
	b.Grow(16)
	b.WriteString(strconv.Itoa(o.Row))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(o.Col))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(int(o.Dir)))
	for _, blocked := range [3]bool{o.FrontBlocked, o.LeftBlocked, o.RightBlocked} {
		b.WriteByte(',')
		if blocked {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (o Observation) Key() string {
	return StateKey(o)
}

// Transition is the unit of experience handed to Policy.Update.
// NextAction is set only when the episode continues; SARSA bootstraps on it.
type Transition struct {
	StateKey     string
	Action       Action
	Reward       float64
	NextStateKey string
	Done         bool
	NextAction   *Action
}

type StepResult struct {
	PrevState       AgentState
	State           AgentState
	Action          Action
	Reward          float64
	Done            bool
	Success         bool
	Bump            bool
	Observation     Observation
	StepCount       int
	EpisodeReturn   float64
	MaxStepsReached bool
}

// EpisodeMetrics summarizes one finished episode.
type EpisodeMetrics struct {
	Episode       int     `json:"episode"`
	Steps         int     `json:"steps"`
	Success       bool    `json:"success"`
	EpisodeReturn float64 `json:"episode_return"`
	Explored      int     `json:"explored"`
	Bumps         int     `json:"bumps"`
	Truncated     bool    `json:"truncated,omitempty"`
}
