// cell_views contains views derived from the Board view-model.
package cell_views

import (
	"gridplan/grid_world"
	"gridplan/models"
	"gridplan/planning"
)

// Board is the view-model of a planner snapshot: cells indexed [row][col] in svg
// orientation, where row 0 is drawn at the top like the console output.
// Cell fields should be directly usable as template parameters.
type Board struct {
	Sweep int
	Cells [][]Cell
}

// Cell is a single grid cell as shown in the views.
type Cell struct {
	Row, Col int
	Value    float64
	// Arrows holds one glyph per favored action, in canonical action order.
	Arrows string
	Fill   string
}

// Converter returns a func converting snapshots of planners over world into boards.
func Converter(world *grid_world.GridWorld) func(planning.Snapshot) Board {
	return func(snap planning.Snapshot) Board {
		board := Board{
			Sweep: snap.Sweep,
			Cells: make([][]Cell, len(snap.Values)),
		}
		for row := range snap.Values {
			board.Cells[row] = make([]Cell, len(snap.Values[row]))
			for col, val := range snap.Values[row] {
				state := models.State{Row: row, Col: col}
				board.Cells[row][col] = Cell{
					Row:    row,
					Col:    col,
					Value:  val,
					Arrows: grid_world.Arrows(snap.Actions[row][col]),
					Fill:   getFill(world.CellType(state)),
				}
			}
		}
		return board
	}
}

func getFill(cellType rune) (fill string) {
	switch cellType {
	case grid_world.GOAL:
		fill = "lightyellow"
	case grid_world.HAZARD:
		fill = "lightpink"
	default:
		fill = "white"
	}
	return
}
