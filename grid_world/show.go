package grid_world

import (
	"fmt"
	"io"
	"strings"

	"gridplan/models"

	"github.com/logrusorgru/aurora"
)

// ShowGrid prints the layout, for visual reference.
func ShowGrid(w io.Writer, gw *GridWorld) {
	for _, row := range gw.cells {
		for _, cellType := range row {
			fmt.Fprint(w, colorize(cellType, fmt.Sprintf("%c ", cellType)))
		}
		fmt.Fprintln(w)
	}
}

// ShowValues prints a [row][col] value table, coloring cells by layout type.
func ShowValues(w io.Writer, gw *GridWorld, values [][]float64) {
	for row := range values {
		for col, val := range values[row] {
			cellType := gw.CellType(models.State{Row: row, Col: col})
			fmt.Fprint(w, colorize(cellType, format2x2(val)))
			fmt.Fprint(w, aurora.White("|"))
		}
		fmt.Fprintln(w)
	}
}

// ShowPolicy prints the action arrows of each cell; ties print every arrow.
func ShowPolicy(w io.Writer, gw *GridWorld, actions [][][]models.Action) {
	for row := range actions {
		for col, acts := range actions[row] {
			state := models.State{Row: row, Col: col}
			if gw.IsTerminal(state) {
				fmt.Fprint(w, aurora.Yellow(fmt.Sprintf("%-5s", "  *")))
			} else {
				fmt.Fprint(w, aurora.Blue(fmt.Sprintf("%-5s", Arrows(acts))))
			}
			fmt.Fprint(w, aurora.White("|"))
		}
		fmt.Fprintln(w)
	}
}

// ShowPath prints the cells visited by a rollout.
func ShowPath(w io.Writer, path []models.State) {
	steps := make([]string, len(path))
	for i, s := range path {
		steps[i] = s.String()
	}
	fmt.Fprintln(w, aurora.Green(strings.Join(steps, " -> ")))
}

// Arrows concatenates the arrow glyphs of the actions in canonical order.
func Arrows(actions []models.Action) string {
	var sb strings.Builder
	for _, a := range actions {
		sb.WriteRune(a.Arrow())
	}
	return sb.String()
}

func colorize(cellType rune, s string) aurora.Value {
	switch cellType {
	case GOAL:
		return aurora.Yellow(s)
	case HAZARD:
		return aurora.Red(s)
	}
	return aurora.Blue(s)
}

func format2x2(x float64) string {
	if x < 0 {
		return " -" + fmt.Sprintf("%05.2f", -x)
	}
	return fmt.Sprintf(" %05.2f", x)
}
