package planning

import (
	"gridplan/models"
)

// Planner is what drivers and views need from either planner.
type Planner interface {
	Env() models.Environment
	Values() *ValueTable
	// Actions returns the actions the planner currently favors at a state.
	Actions(models.State) ([]models.Action, error)
	// Choose returns a single action to take from a state, NoAction at the terminal.
	Choose(models.State) (models.Action, error)
	Reset()
}

var (
	_ Planner = (*PolicyIteration)(nil)
	_ Planner = (*ValueIteration)(nil)
)

// Snapshot is an immutable copy of a planner's tables, safe to hand to other goroutines.
type Snapshot struct {
	Sweep    int
	Terminal models.State
	// Values is indexed [row][col].
	Values [][]float64
	// Actions is indexed [row][col]; the terminal has none.
	Actions [][][]models.Action
}

// TakeSnapshot copies the planner's current values and favored actions.
func TakeSnapshot(planner Planner, sweep int) Snapshot {
	env := planner.Env()
	snap := Snapshot{
		Sweep:  sweep,
		Values: planner.Values().Rows(),
	}

	width, height := env.Dimensions()
	snap.Actions = make([][][]models.Action, height)
	for r := range snap.Actions {
		snap.Actions[r] = make([][]models.Action, width)
	}
	models.Visit(env, func(s models.State) {
		if env.IsTerminal(s) {
			snap.Terminal = s
		}
		// States come from the environment's own enumeration, so they are in range.
		snap.Actions[s.Row][s.Col], _ = planner.Actions(s)
	})
	return snap
}
