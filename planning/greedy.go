package planning

import (
	"math"

	"gridplan/models"
)

// qValue is the one-step lookahead r(s,a) + γ·V(s').
func qValue(
	env models.Environment,
	values *ValueTable,
	discount float64,
	state models.State,
	action models.Action,
) float64 {
	successor := env.Transition(state, action)
	// The conversion forces the product to be rounded, so no fused multiply-add
	// changes which values tie.
	return env.Reward(state, action) + float64(discount*values.at(successor))
}

// greedyActions returns the indices of every action whose q-value equals the maximum.
// Values are compared exactly: a strictly greater value resets the set, an equal one extends it.
func greedyActions(
	env models.Environment,
	values *ValueTable,
	discount float64,
	state models.State,
) (ties []int, best float64) {
	best = math.Inf(-1)
	for i, action := range env.PossibleActions() {
		q := qValue(env, values, discount, state, action)
		if q > best {
			best = q
			ties = append(ties[:0], i)
		} else if q == best {
			ties = append(ties, i)
		}
	}
	return
}
