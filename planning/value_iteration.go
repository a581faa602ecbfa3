package planning

import (
	"gridplan/models"
)

// ValueIteration applies the Bellman optimality update directly. It keeps no policy;
// actions are derived from the current values on demand.
type ValueIteration struct {
	env      models.Environment
	values   *ValueTable
	discount float64
}

// NewValueIteration returns a planner with a zeroed value table.
func NewValueIteration(env models.Environment, discount float64) (*ValueIteration, error) {
	if err := validate(env, discount); err != nil {
		return nil, err
	}
	vi := &ValueIteration{
		env:      env,
		discount: discount,
	}
	vi.Reset()
	return vi, nil
}

// Reset restores the zeroed value table.
func (vi *ValueIteration) Reset() {
	vi.values = NewValueTable(vi.env.Dimensions())
}

// ValueIteration performs one synchronous sweep: each non-terminal state takes the
// maximum q-value over all actions, computed from the previous sweep's values.
func (vi *ValueIteration) ValueIteration() {
	next := NewValueTable(vi.env.Dimensions())
	for _, state := range vi.env.AllStates() {
		if vi.env.IsTerminal(state) {
			next.set(state, 0)
			continue
		}
		_, best := greedyActions(vi.env, vi.values, vi.discount, state)
		next.set(state, best)
	}
	vi.values = next
}

// GetAction returns every action achieving the maximal q-value at state.
// The terminal state yields an empty set.
func (vi *ValueIteration) GetAction(state models.State) ([]models.Action, error) {
	width, height := vi.values.Dims()
	if err := models.CheckBounds(state, width, height); err != nil {
		return nil, err
	}
	if vi.env.IsTerminal(state) {
		return []models.Action{}, nil
	}

	ties, _ := greedyActions(vi.env, vi.values, vi.discount, state)
	actions := vi.env.PossibleActions()
	best := make([]models.Action, len(ties))
	for i, ti := range ties {
		best[i] = actions[ti]
	}
	return best, nil
}

// GetValue returns the value of state, rounded to two decimals.
func (vi *ValueIteration) GetValue(state models.State) (float64, error) {
	return vi.values.At(state)
}

// Values returns the current value table.
func (vi *ValueIteration) Values() *ValueTable {
	return vi.values
}

// Env returns the environment being planned over.
func (vi *ValueIteration) Env() models.Environment {
	return vi.env
}

// Actions is GetAction; it satisfies Planner.
func (vi *ValueIteration) Actions(state models.State) ([]models.Action, error) {
	return vi.GetAction(state)
}

// Choose returns the first optimal action, or NoAction for the terminal state.
func (vi *ValueIteration) Choose(state models.State) (models.Action, error) {
	best, err := vi.GetAction(state)
	if err != nil || len(best) == 0 {
		return models.NoAction, err
	}
	return best[0], nil
}
