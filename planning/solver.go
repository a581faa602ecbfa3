package planning

import (
	"context"
	"fmt"

	"gridplan/models"
)

const (
	DefaultMaxSweeps  = 200
	DefaultEvalSweeps = 20
)

// SolveOptions bound a solve run. Zero values select the defaults.
type SolveOptions struct {
	// MaxSweeps is the total number of sweeps (evaluation or value-iteration) allowed.
	MaxSweeps int
	// EvalSweeps is the number of evaluation sweeps between policy improvements.
	EvalSweeps int
	// Tolerance is the max absolute value change under which a sweep counts as settled.
	Tolerance float64
}

func (opts SolveOptions) withDefaults() SolveOptions {
	if opts.MaxSweeps <= 0 {
		opts.MaxSweeps = DefaultMaxSweeps
	}
	if opts.EvalSweeps <= 0 {
		opts.EvalSweeps = DefaultEvalSweeps
	}
	return opts
}

// Result summarizes a solve run.
type Result struct {
	Sweeps       int
	Improvements int
	// Deltas holds the max absolute value change of each sweep.
	Deltas    []float64
	Converged bool
}

// ProgressFunc is called synchronously after every sweep and should complete quickly.
type ProgressFunc func(context.Context, Snapshot)

func done(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// SolveValueIteration sweeps until the values settle within tolerance, the sweep
// budget runs out, or ctx is done.
func SolveValueIteration(
	ctx context.Context,
	vi *ValueIteration,
	opts SolveOptions,
	progressFn ProgressFunc,
) (*Result, error) {
	opts = opts.withDefaults()
	result := &Result{}

	for result.Sweeps < opts.MaxSweeps {
		if err := done(ctx); err != nil {
			return result, fmt.Errorf("value iteration interrupted after %d sweeps: %w", result.Sweeps, err)
		}

		prev := vi.Values()
		vi.ValueIteration()
		result.Sweeps++
		delta := prev.MaxDelta(vi.Values())
		result.Deltas = append(result.Deltas, delta)
		if progressFn != nil {
			progressFn(ctx, TakeSnapshot(vi, result.Sweeps))
		}

		if delta <= opts.Tolerance {
			result.Converged = true
			break
		}
	}
	return result, nil
}

// SolvePolicyIteration alternates up to EvalSweeps evaluation sweeps with a policy
// improvement. It converges once an improvement leaves the policy unchanged and the
// preceding evaluation had settled.
func SolvePolicyIteration(
	ctx context.Context,
	pi *PolicyIteration,
	opts SolveOptions,
	progressFn ProgressFunc,
) (*Result, error) {
	opts = opts.withDefaults()
	result := &Result{}

	for result.Sweeps < opts.MaxSweeps {
		var delta float64
		for i := 0; i < opts.EvalSweeps; i++ {
			if err := done(ctx); err != nil {
				return result, fmt.Errorf("policy iteration interrupted after %d sweeps: %w", result.Sweeps, err)
			}

			prev := pi.Values()
			pi.PolicyEvaluation()
			result.Sweeps++
			delta = prev.MaxDelta(pi.Values())
			result.Deltas = append(result.Deltas, delta)
			if progressFn != nil {
				progressFn(ctx, TakeSnapshot(pi, result.Sweeps))
			}

			if delta <= opts.Tolerance || result.Sweeps >= opts.MaxSweeps {
				break
			}
		}

		prevPolicy := pi.Policy()
		pi.PolicyImprovement()
		result.Improvements++
		if progressFn != nil {
			progressFn(ctx, TakeSnapshot(pi, result.Sweeps))
		}

		if pi.Policy().Equal(prevPolicy) && delta <= opts.Tolerance {
			result.Converged = true
			break
		}
	}
	return result, nil
}

// Walk follows the planner's choices from start until the terminal state or limit steps.
// The returned path includes start.
func Walk(planner Planner, start models.State, limit int) ([]models.State, error) {
	env := planner.Env()
	width, height := env.Dimensions()
	if err := models.CheckBounds(start, width, height); err != nil {
		return nil, err
	}

	path := []models.State{start}
	state := start
	for steps := 0; steps < limit && !env.IsTerminal(state); steps++ {
		action, err := planner.Choose(state)
		if err != nil {
			return path, err
		}
		if action == models.NoAction {
			break
		}
		state = env.Transition(state, action)
		path = append(path, state)
	}
	return path, nil
}
