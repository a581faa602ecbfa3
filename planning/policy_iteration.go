package planning

import (
	"errors"
	"fmt"
	"time"

	"gridplan/models"
)

var (
	// ErrNoActions is returned when the environment enumerates no actions.
	ErrNoActions = errors.New("environment has no actions")
	// ErrEmptyGrid is returned when the environment has no states.
	ErrEmptyGrid = errors.New("environment has an empty grid")
	// ErrDiscount is returned for a discount factor outside (0,1).
	ErrDiscount = errors.New("discount factor must be in (0,1)")
)

func validate(env models.Environment, discount float64) error {
	if width, height := env.Dimensions(); width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyGrid, width, height)
	}
	if len(env.PossibleActions()) == 0 {
		return ErrNoActions
	}
	if discount <= 0 || discount >= 1 {
		return fmt.Errorf("%w: %v", ErrDiscount, discount)
	}
	return nil
}

// PolicyIteration alternates policy evaluation, which estimates the values of the
// current stochastic policy, and greedy policy improvement. Each call performs a single
// sweep; the caller decides when the tables have settled.
type PolicyIteration struct {
	env      models.Environment
	values   *ValueTable
	policy   *PolicyTable
	discount float64
	sampler  Sampler
}

// NewPolicyIteration returns a planner with a zeroed value table and a uniform policy.
// A nil sampler is replaced by one seeded from the clock.
func NewPolicyIteration(
	env models.Environment,
	discount float64,
	sampler Sampler,
) (*PolicyIteration, error) {
	if err := validate(env, discount); err != nil {
		return nil, err
	}
	if sampler == nil {
		sampler = NewSampler(uint64(time.Now().UnixNano()))
	}
	pi := &PolicyIteration{
		env:      env,
		discount: discount,
		sampler:  sampler,
	}
	pi.Reset()
	return pi, nil
}

// Reset restores the zeroed value table and the uniform policy.
func (pi *PolicyIteration) Reset() {
	pi.values = NewValueTable(pi.env.Dimensions())
	pi.policy = newUniformPolicy(pi.env)
}

// PolicyEvaluation performs one synchronous sweep of the Bellman expectation equation
// under the current policy. Every state reads only the previous sweep's values.
func (pi *PolicyIteration) PolicyEvaluation() {
	next := NewValueTable(pi.env.Dimensions())
	actions := pi.env.PossibleActions()

	for _, state := range pi.env.AllStates() {
		if pi.env.IsTerminal(state) {
			next.set(state, 0)
			continue
		}

		value := 0.0
		dist := pi.policy.at(state)
		for i, action := range actions {
			value += float64(dist[i] * qValue(pi.env, pi.values, pi.discount, state, action))
		}
		next.set(state, value)
	}

	pi.values = next
}

// PolicyImprovement makes the policy greedy with respect to the current values,
// splitting probability evenly among tied actions.
func (pi *PolicyIteration) PolicyImprovement() {
	next := newPolicyTable(pi.env)
	numActions := len(pi.env.PossibleActions())

	for _, state := range pi.env.AllStates() {
		if pi.env.IsTerminal(state) {
			continue
		}

		ties, _ := greedyActions(pi.env, pi.values, pi.discount, state)
		dist := make(Distribution, numActions)
		prob := 1 / float64(len(ties))
		for _, i := range ties {
			dist[i] = prob
		}
		next.dists[state.Row][state.Col] = dist
	}

	pi.policy = next
}

// GetAction samples an action from the policy at state by walking the cumulative
// probability mass in canonical order. The terminal state yields NoAction.
func (pi *PolicyIteration) GetAction(state models.State) (models.Action, error) {
	dist, err := pi.GetPolicy(state)
	if err != nil {
		return models.NoAction, err
	}
	if len(dist) == 0 {
		return models.NoAction, nil
	}

	actions := pi.env.PossibleActions()
	draw := pi.sampler.Float64()
	cumulative := 0.0
	last := models.NoAction
	for i, p := range dist {
		cumulative += p
		if p > 0 {
			last = actions[i]
		}
		if draw < cumulative {
			return actions[i], nil
		}
	}
	// Only reachable if the mass sums to slightly under the draw.
	return last, nil
}

// GetPolicy returns the action distribution at state; empty for the terminal state.
func (pi *PolicyIteration) GetPolicy(state models.State) (Distribution, error) {
	dist, err := pi.policy.At(state)
	if err != nil {
		return nil, err
	}
	if pi.env.IsTerminal(state) {
		return Distribution{}, nil
	}
	return dist, nil
}

// GetValue returns the value of state, rounded to two decimals.
func (pi *PolicyIteration) GetValue(state models.State) (float64, error) {
	return pi.values.At(state)
}

// Values returns the current value table.
func (pi *PolicyIteration) Values() *ValueTable {
	return pi.values
}

// Policy returns the current policy table.
func (pi *PolicyIteration) Policy() *PolicyTable {
	return pi.policy
}

// Env returns the environment being planned over.
func (pi *PolicyIteration) Env() models.Environment {
	return pi.env
}

// Actions returns the actions with non-zero probability at state.
func (pi *PolicyIteration) Actions(state models.State) ([]models.Action, error) {
	dist, err := pi.GetPolicy(state)
	if err != nil {
		return nil, err
	}
	return dist.Support(pi.env.PossibleActions()), nil
}

// Choose samples a single action, for rollouts.
func (pi *PolicyIteration) Choose(state models.State) (models.Action, error) {
	return pi.GetAction(state)
}
