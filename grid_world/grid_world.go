package grid_world

import (
	"errors"
	"fmt"

	"gridplan/models"
)

// Layout cell types
const (
	EMPTY  = 'o'
	GOAL   = '+'
	HAZARD = 'x'
)

// Rewards are the rewards for entering each kind of cell.
type Rewards struct {
	Goal   float64 `yaml:"goal"`
	Hazard float64 `yaml:"hazard"`
	Empty  float64 `yaml:"empty"`
}

// DefaultRewards are those of the classic 5x5 world: +1 for the goal, -1 for the hazards.
var DefaultRewards = Rewards{
	Goal:   1,
	Hazard: -1,
	Empty:  0,
}

// DefaultLayout is the classic 5x5 world: goal at (2,2), hazards at (1,2) and (2,1).
var DefaultLayout []string = []string{
	"ooooo",
	"ooxoo",
	"ox+oo",
	"ooooo",
	"ooooo",
}

// GridWorld is a deterministic grid environment. Moving off the grid leaves the agent in place,
// and the reward of an action is the reward of the cell it enters.
type GridWorld struct {
	width, height int
	cells         [][]rune
	rewards       [][]float64
	terminal      models.State
}

var (
	ErrEmptyLayout   = errors.New("layout has no cells")
	ErrRaggedLayout  = errors.New("layout rows differ in length")
	ErrTerminalCount = errors.New("layout must contain exactly one goal cell")
	ErrUnknownCell   = errors.New("unknown layout cell type")
)

// Default returns the classic 5x5 world.
func Default() *GridWorld {
	world, err := Convert(DefaultLayout, DefaultRewards)
	if err != nil {
		panic(err)
	}
	return world
}

// Convert builds a world from a layout of rows, top row first, where
// the single GOAL cell is the terminal state.
func Convert(layout []string, rewards Rewards) (*GridWorld, error) {
	if len(layout) == 0 || len(layout[0]) == 0 {
		return nil, ErrEmptyLayout
	}

	height := len(layout)
	width := len([]rune(layout[0]))
	world := &GridWorld{
		width:   width,
		height:  height,
		cells:   make([][]rune, height),
		rewards: make([][]float64, height),
	}

	goals := 0
	for row, line := range layout {
		runes := []rune(line)
		if len(runes) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedLayout, row, len(runes), width)
		}
		world.cells[row] = runes
		world.rewards[row] = make([]float64, width)
		for col, cellType := range runes {
			switch cellType {
			case EMPTY:
				world.rewards[row][col] = rewards.Empty
			case HAZARD:
				world.rewards[row][col] = rewards.Hazard
			case GOAL:
				world.rewards[row][col] = rewards.Goal
				world.terminal = models.State{Row: row, Col: col}
				goals++
			default:
				return nil, fmt.Errorf("%w: %q at (%d,%d)", ErrUnknownCell, cellType, row, col)
			}
		}
	}

	if goals != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrTerminalCount, goals)
	}
	return world, nil
}

// NewFromRewards builds a world from a literal table of per-cell entry rewards, indexed [row][col].
func NewFromRewards(rewards [][]float64, terminal models.State) (*GridWorld, error) {
	if len(rewards) == 0 || len(rewards[0]) == 0 {
		return nil, ErrEmptyLayout
	}

	height, width := len(rewards), len(rewards[0])
	if err := models.CheckBounds(terminal, width, height); err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}

	world := &GridWorld{
		width:    width,
		height:   height,
		cells:    make([][]rune, height),
		rewards:  make([][]float64, height),
		terminal: terminal,
	}
	for row := range rewards {
		if len(rewards[row]) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedLayout, row, len(rewards[row]), width)
		}
		world.rewards[row] = append([]float64(nil), rewards[row]...)
		world.cells[row] = make([]rune, width)
		for col := range world.cells[row] {
			world.cells[row][col] = EMPTY
		}
	}
	world.cells[terminal.Row][terminal.Col] = GOAL
	return world, nil
}

func (gw *GridWorld) Dimensions() (width, height int) {
	return gw.width, gw.height
}

// AllStates enumerates the grid row by row.
func (gw *GridWorld) AllStates() []models.State {
	states := make([]models.State, 0, gw.width*gw.height)
	for row := 0; row < gw.height; row++ {
		for col := 0; col < gw.width; col++ {
			states = append(states, models.State{Row: row, Col: col})
		}
	}
	return states
}

func (gw *GridWorld) PossibleActions() []models.Action {
	return append([]models.Action(nil), models.Actions...)
}

// Transition moves the agent by the action's displacement, clamped to the grid.
func (gw *GridWorld) Transition(state models.State, action models.Action) models.State {
	d := action.Displacement()
	return models.State{
		Row: clamp(state.Row+d.Row, gw.height-1),
		Col: clamp(state.Col+d.Col, gw.width-1),
	}
}

// Reward is the reward of the cell entered by taking action in state.
func (gw *GridWorld) Reward(state models.State, action models.Action) float64 {
	next := gw.Transition(state, action)
	return gw.rewards[next.Row][next.Col]
}

func (gw *GridWorld) IsTerminal(state models.State) bool {
	return state == gw.terminal
}

// Terminal returns the terminal state.
func (gw *GridWorld) Terminal() models.State {
	return gw.terminal
}

// CellType returns the layout cell type at the state, or 0 if out of range.
func (gw *GridWorld) CellType(state models.State) rune {
	if models.CheckBounds(state, gw.width, gw.height) != nil {
		return 0
	}
	return gw.cells[state.Row][state.Col]
}

func clamp(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
