package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrInvalidMaze = errors.New("invalid maze")

// MazeSpec is the on-disk maze format. '#' in Grid marks a wall.
type MazeSpec struct {
	Size  int      `json:"size"`
	Start Cell     `json:"start"`
	Goal  Cell     `json:"goal"`
	Grid  []string `json:"grid"`
}

// MazeLayout is an immutable square maze.
type MazeLayout struct {
	size  int
	start Cell
	goal  Cell
	walls []bool
}

// ParseMaze validates spec and builds the layout.
func ParseMaze(spec MazeSpec) (*MazeLayout, error) {
	if spec.Size != 9 && spec.Size != 11 {
		return nil, fmt.Errorf("%w: size %d, want 9 or 11", ErrInvalidMaze, spec.Size)
	}
	if len(spec.Grid) != spec.Size {
		return nil, fmt.Errorf("%w: %d grid rows for size %d", ErrInvalidMaze, len(spec.Grid), spec.Size)
	}
	m := &MazeLayout{
		size:  spec.Size,
		start: spec.Start,
		goal:  spec.Goal,
		walls: make([]bool, spec.Size*spec.Size),
	}
	for r, row := range spec.Grid {
		if len(row) != spec.Size {
			return nil, fmt.Errorf("%w: row %d has width %d", ErrInvalidMaze, r, len(row))
		}
		for c := 0; c < len(row); c++ {
			m.walls[r*spec.Size+c] = row[c] == '#'
		}
	}
	if m.IsWall(spec.Start.Row, spec.Start.Col) {
		return nil, fmt.Errorf("%w: start %v is a wall or outside the grid", ErrInvalidMaze, spec.Start)
	}
	if m.IsWall(spec.Goal.Row, spec.Goal.Col) {
		return nil, fmt.Errorf("%w: goal %v is a wall or outside the grid", ErrInvalidMaze, spec.Goal)
	}
	return m, nil
}

// LoadMaze reads a MazeSpec JSON file.
func LoadMaze(path string) (*MazeLayout, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read maze: %w", err)
	}
	var spec MazeSpec
	if err := json.Unmarshal(bs, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMaze, err)
	}
	return ParseMaze(spec)
}

func (m *MazeLayout) Size() int   { return m.size }
func (m *MazeLayout) Start() Cell { return m.start }
func (m *MazeLayout) Goal() Cell  { return m.goal }

func (m *MazeLayout) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < m.size && col < m.size
}

// IsWall reports whether (row, col) is blocked. Cells outside the grid count as walls.
func (m *MazeLayout) IsWall(row, col int) bool {
	if !m.InBounds(row, col) {
		return true
	}
	return m.walls[row*m.size+col]
}

// Spec converts the layout back to its serializable form.
func (m *MazeLayout) Spec() MazeSpec {
	grid := make([]string, m.size)
	for r := 0; r < m.size; r++ {
		row := make([]byte, m.size)
		for c := 0; c < m.size; c++ {
			if m.walls[r*m.size+c] {
				row[c] = '#'
			} else {
				row[c] = '.'
			}
		}
		grid[r] = string(row)
	}
	return MazeSpec{Size: m.size, Start: m.start, Goal: m.goal, Grid: grid}
}

// ShortestPath returns the fewest actions (moves and turns) needed to reach
// the goal from the start pose, or -1 if the goal is unreachable.
func ShortestPath(m *MazeLayout) int {
	start := AgentState{Row: m.start.Row, Col: m.start.Col, Dir: InitialDirection}
	if start.Cell() == m.goal {
		return 0
	}
	index := func(s AgentState) int {
		return (s.Row*m.size+s.Col)*4 + int(s.Dir)
	}
	dist := make([]int, m.size*m.size*4)
	for i := range dist {
		dist[i] = -1
	}
	dist[index(start)] = 0
	queue := []AgentState{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[index(cur)]

		next := make([]AgentState, 0, 3)
		dr, dc := cur.Dir.Delta()
		if !m.IsWall(cur.Row+dr, cur.Col+dc) {
			next = append(next, AgentState{Row: cur.Row + dr, Col: cur.Col + dc, Dir: cur.Dir})
		}
		next = append(next,
			AgentState{Row: cur.Row, Col: cur.Col, Dir: cur.Dir.LeftOf()},
			AgentState{Row: cur.Row, Col: cur.Col, Dir: cur.Dir.RightOf()},
		)
		for _, n := range next {
			if dist[index(n)] >= 0 {
				continue
			}
			dist[index(n)] = d + 1
			if n.Cell() == m.goal {
				return d + 1
			}
			queue = append(queue, n)
		}
	}
	return -1
}
