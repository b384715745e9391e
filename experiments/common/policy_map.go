package common

import (
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"

	"github.com/zeu5/maze-coach/core"
)

// RenderRollout draws the maze with the greedy route on top. Each visited
// cell shows the heading the agent left it with.
func RenderRollout(w io.Writer, layout *core.MazeLayout, r core.Rollout, colors bool) {
	au := aurora.NewAurora(colors)

	heading := make(map[core.Cell]core.Direction)
	for _, s := range r.Path {
		heading[s.Cell()] = s.Dir
	}

	for row := 0; row < layout.Size(); row++ {
		for col := 0; col < layout.Size(); col++ {
			cell := core.Cell{Row: row, Col: col}
			switch {
			case cell == layout.Goal():
				fmt.Fprint(w, au.Yellow(" G"))
			case cell == layout.Start():
				fmt.Fprint(w, au.Cyan(" S"))
			case layout.IsWall(row, col):
				fmt.Fprint(w, au.Blue(" #"))
			default:
				if d, ok := heading[cell]; ok {
					fmt.Fprint(w, au.Green(" "+arrow(d)))
				} else {
					fmt.Fprint(w, au.White(" ."))
				}
			}
		}
		fmt.Fprintln(w)
	}

	outcome := au.Red("did not reach the goal")
	if r.Success {
		outcome = au.Green("reached the goal")
	}
	fmt.Fprintf(w, "Greedy route %s in %d steps, %d bumps, return %.3f\n", outcome, r.Steps, r.Bumps, r.Return)
}

func arrow(d core.Direction) string {
	switch d {
	case core.Up:
		return "^"
	case core.Right:
		return ">"
	case core.Down:
		return "v"
	default:
		return "<"
	}
}
