package planning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gridplan/grid_world"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Algorithm names accepted by the config's algorithm selector.
const (
	POLICY_ITERATION = "policy_iteration"
	VALUE_ITERATION  = "value_iteration"
)

// ErrUnknownAlgorithm is returned for an algorithm name other than those above.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// OuterConfig is the config file envelope: a kind, and a definition decoded per kind.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// PlannerConfig holds the planner's parameters and the world it plans over.
// Viper lower-cases map keys, hence the lower-case yaml tags.
type PlannerConfig struct {
	// HyperParams is a key-val pair of param names and their value.
	HyperParams []HyperParameter `yaml:"hyperparams"`
	// Algorithm selects the planner via its "name" key.
	Algorithm map[string]string `yaml:"algorithm"`
	// Deadline optionally bounds a solve run via its "duration" key.
	Deadline map[string]string `yaml:"deadline"`
	World    WorldConfig       `yaml:"world"`
}

type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// WorldConfig describes the grid world; an empty layout selects the default world.
type WorldConfig struct {
	Layout  []string            `yaml:"layout"`
	Rewards *grid_world.Rewards `yaml:"rewards"`
}

func (cfg *PlannerConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// AlgorithmName returns the selected algorithm, defaulting to value iteration.
func (cfg *PlannerConfig) AlgorithmName() (string, error) {
	name, ok := cfg.Algorithm["name"]
	if !ok || name == "" {
		return VALUE_ITERATION, nil
	}
	if name != POLICY_ITERATION && name != VALUE_ITERATION {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return name, nil
}

// Discount returns the gamma hyper-parameter, 0.9 by default.
func (cfg *PlannerConfig) Discount() float64 {
	return cfg.GetHyperParamOrDefault("gamma", 0.9)
}

// SolveOptions collects the solve-loop hyper-parameters.
func (cfg *PlannerConfig) SolveOptions() SolveOptions {
	return SolveOptions{
		MaxSweeps:  int(cfg.GetHyperParamOrDefault("maxSweeps", DefaultMaxSweeps)),
		EvalSweeps: int(cfg.GetHyperParamOrDefault("evalSweeps", DefaultEvalSweeps)),
		Tolerance:  cfg.GetHyperParamOrDefault("tolerance", 0),
	}
}

// Seed returns the sampler seed, or a clock-derived one if unset.
func (cfg *PlannerConfig) Seed() uint64 {
	return uint64(cfg.GetHyperParamOrDefault("seed", float64(time.Now().UnixNano()%(1<<52))))
}

// BuildWorld builds the configured grid world.
func (cfg *PlannerConfig) BuildWorld() (*grid_world.GridWorld, error) {
	if len(cfg.World.Layout) == 0 {
		return grid_world.Default(), nil
	}
	rewards := grid_world.DefaultRewards
	if cfg.World.Rewards != nil {
		rewards = *cfg.World.Rewards
	}
	return grid_world.Convert(cfg.World.Layout, rewards)
}

// BuildPlanner builds the selected planner over env.
func (cfg *PlannerConfig) BuildPlanner(env *grid_world.GridWorld) (Planner, error) {
	name, err := cfg.AlgorithmName()
	if err != nil {
		return nil, err
	}
	if name == POLICY_ITERATION {
		pi, err := NewPolicyIteration(env, cfg.Discount(), NewSampler(cfg.Seed()))
		if err != nil {
			return nil, err
		}
		return pi, nil
	}
	vi, err := NewValueIteration(env, cfg.Discount())
	if err != nil {
		return nil, err
	}
	return vi, nil
}

// WithDeadline returns a context extended by the solve deadline, if one is specified.
func (cfg *PlannerConfig) WithDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.Deadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, fmt.Errorf("deadline: %w", err)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// Solve runs the solve loop of whichever planner was built.
func Solve(
	ctx context.Context,
	planner Planner,
	opts SolveOptions,
	progressFn ProgressFunc,
) (*Result, error) {
	switch p := planner.(type) {
	case *PolicyIteration:
		return SolvePolicyIteration(ctx, p, opts, progressFn)
	case *ValueIteration:
		return SolveValueIteration(ctx, p, opts, progressFn)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownAlgorithm, planner)
}

// FromYaml reads the kind/def envelope with viper, then decodes the def with yaml.
func FromYaml(path string) (*PlannerConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}

	var def []byte
	if def, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := &PlannerConfig{}
	if err = yaml.Unmarshal(def, innerConfig); err != nil {
		return nil, err
	}

	return innerConfig, nil
}
