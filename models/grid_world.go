package models

import (
	"errors"
	"fmt"
)

// State is a cell position in the grid. States are compared by value.
type State struct {
	Row, Col int
}

func (s State) String() string {
	return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
}

// Action is an index into the canonical action list, which is also the index
// used for probability vectors in a policy.
type Action int

// The canonical action order. Policies and tie sets are always enumerated in this order.
const (
	UP Action = iota
	DOWN
	LEFT
	RIGHT
	NUM_ACTIONS = 4
)

// NoAction is returned when no action is defined for a state, e.g. the terminal state.
const NoAction Action = -1

// Actions is the canonical ordered action list.
var Actions = []Action{UP, DOWN, LEFT, RIGHT}

// Row and column displacement for each action, indexed by Action.
var displacements = [NUM_ACTIONS]State{
	UP:    {Row: -1, Col: 0},
	DOWN:  {Row: 1, Col: 0},
	LEFT:  {Row: 0, Col: -1},
	RIGHT: {Row: 0, Col: 1},
}

// Displacement returns the row/col offset of an action.
func (a Action) Displacement() State {
	return displacements[a]
}

func (a Action) String() string {
	switch a {
	case UP:
		return "up"
	case DOWN:
		return "down"
	case LEFT:
		return "left"
	case RIGHT:
		return "right"
	}
	return "none"
}

// MarshalText encodes the action by name, e.g. for json.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Arrow returns a console/html glyph for the action.
func (a Action) Arrow() rune {
	switch a {
	case UP:
		return '↑'
	case DOWN:
		return '↓'
	case LEFT:
		return '←'
	case RIGHT:
		return '→'
	}
	return '·'
}

// Environment is the fixed, read-only model queried by the planners.
// All methods must be pure and synchronous.
type Environment interface {
	// Dimensions returns the grid width (columns) and height (rows).
	Dimensions() (width, height int)
	// AllStates enumerates every state of the grid.
	AllStates() []State
	// PossibleActions returns the actions in canonical order.
	PossibleActions() []Action
	// Transition returns the deterministic successor of state under action.
	Transition(state State, action Action) State
	// Reward returns the reward for taking action in state.
	Reward(state State, action Action) float64
	// IsTerminal reports whether the state is the terminal state.
	IsTerminal(state State) bool
}

// ErrOutOfRange is returned when a state outside of the grid is queried.
var ErrOutOfRange = errors.New("state out of range")

// CheckBounds returns a wrapped ErrOutOfRange if the state is not within a width x height grid.
func CheckBounds(state State, width, height int) error {
	if state.Row < 0 || state.Row >= height || state.Col < 0 || state.Col >= width {
		return fmt.Errorf("%w: %v not in %dx%d grid", ErrOutOfRange, state, width, height)
	}
	return nil
}

// Visit calls fn on every state of the environment in enumeration order.
func Visit(env Environment, fn func(s State)) {
	for _, s := range env.AllStates() {
		fn(s)
	}
}
