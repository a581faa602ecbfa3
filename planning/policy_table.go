package planning

import (
	"gridplan/models"
)

// Distribution is a probability per action, indexed by position in the canonical action list.
// The terminal state has an empty distribution.
type Distribution []float64

// Support returns the actions with non-zero probability, in canonical order.
func (d Distribution) Support(actions []models.Action) (support []models.Action) {
	for i, p := range d {
		if p > 0 {
			support = append(support, actions[i])
		}
	}
	return
}

// PolicyTable maps every state to a Distribution. Like ValueTable, a published
// policy table is replaced wholesale rather than mutated.
type PolicyTable struct {
	dists [][]Distribution
}

// newUniformPolicy gives every non-terminal state equal probability for each action.
func newUniformPolicy(env models.Environment) *PolicyTable {
	numActions := len(env.PossibleActions())
	pt := newPolicyTable(env)
	for _, s := range env.AllStates() {
		if env.IsTerminal(s) {
			continue
		}
		dist := make(Distribution, numActions)
		for i := range dist {
			dist[i] = 1 / float64(numActions)
		}
		pt.dists[s.Row][s.Col] = dist
	}
	return pt
}

func newPolicyTable(env models.Environment) *PolicyTable {
	width, height := env.Dimensions()
	pt := &PolicyTable{dists: make([][]Distribution, height)}
	for r := range pt.dists {
		pt.dists[r] = make([]Distribution, width)
	}
	return pt
}

// At returns a copy of the state's distribution, or ErrOutOfRange.
func (pt *PolicyTable) At(state models.State) (Distribution, error) {
	width, height := pt.dims()
	if err := models.CheckBounds(state, width, height); err != nil {
		return nil, err
	}
	return append(Distribution{}, pt.at(state)...), nil
}

func (pt *PolicyTable) at(state models.State) Distribution {
	return pt.dists[state.Row][state.Col]
}

func (pt *PolicyTable) dims() (width, height int) {
	if len(pt.dists) == 0 {
		return 0, 0
	}
	return len(pt.dists[0]), len(pt.dists)
}

// Equal reports whether two policies assign exactly the same probabilities.
func (pt *PolicyTable) Equal(other *PolicyTable) bool {
	if len(pt.dists) != len(other.dists) {
		return false
	}
	for r := range pt.dists {
		if len(pt.dists[r]) != len(other.dists[r]) {
			return false
		}
		for c := range pt.dists[r] {
			a, b := pt.dists[r][c], other.dists[r][c]
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i] != b[i] {
					return false
				}
			}
		}
	}
	return true
}
