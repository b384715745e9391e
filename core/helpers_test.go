package core

import (
	"testing"

	"github.com/zeu5/maze-coach/util"
)

// openGrid is a 9x9 room: walls on the border, nothing inside.
var openGrid = []string{
	"#########",
	"#.......#",
	"#.......#",
	"#.......#",
	"#.......#",
	"#.......#",
	"#.......#",
	"#.......#",
	"#########",
}

func testMaze(t *testing.T, grid []string, start, goal Cell) *MazeLayout {
	t.Helper()
	m, err := ParseMaze(MazeSpec{Size: len(grid), Start: start, Goal: goal, Grid: grid})
	if err != nil {
		t.Fatalf("ParseMaze: %v", err)
	}
	return m
}

// fixedPolicy always plays the same action and records every update.
type fixedPolicy struct {
	action  Action
	updates []Transition
	trials  []uint64
	starts  int
}

var _ Policy = &fixedPolicy{}

func (f *fixedPolicy) StartTrial(seed uint64)      { f.trials = append(f.trials, seed) }
func (f *fixedPolicy) StartEpisode(_, _ int)       { f.starts++ }
func (f *fixedPolicy) Update(t Transition)         { f.updates = append(f.updates, t) }
func (f *fixedPolicy) QValues(string) ActionValues { return ActionValues{} }
func (f *fixedPolicy) GreedyAction(string) Action  { return f.action }
func (f *fixedPolicy) Epsilon() float64            { return 0 }

func (f *fixedPolicy) SelectAction(string, *util.Rng) Decision {
	return Decision{Action: f.action}
}
