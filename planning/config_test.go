package planning

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gridplan/models"

	. "github.com/smartystreets/goconvey/convey"
)

const testConfig = `
kind: planner
def:
  algorithm:
    name: value_iteration
  hyperParams:
    - key: gamma
      val: 0.8
    - key: maxSweeps
      val: 50
    - key: tolerance
      val: 0.01
  deadline:
    duration: 2s
  world:
    layout:
      - "ooo"
      - "o+o"
      - "ooo"
    rewards:
      goal: 1
      empty: -1
`

func writeConfig(contents string) string {
	path := filepath.Join(os.TempDir(), "gridplan_test_config.yaml")
	So(os.WriteFile(path, []byte(contents), 0644), ShouldBeNil)
	return path
}

func TestConfig(t *testing.T) {
	Convey("When a config is read from yaml", t, func() {
		cfg, err := FromYaml(writeConfig(testConfig))
		So(err, ShouldBeNil)

		Convey("The hyper parameters are decoded", func() {
			So(cfg.Discount(), ShouldEqual, 0.8)
			opts := cfg.SolveOptions()
			So(opts.MaxSweeps, ShouldEqual, 50)
			So(opts.EvalSweeps, ShouldEqual, DefaultEvalSweeps)
			So(opts.Tolerance, ShouldEqual, 0.01)
			So(cfg.GetHyperParamOrDefault("missing", 3), ShouldEqual, 3.0)
		})

		Convey("The world and planner are built", func() {
			world, err := cfg.BuildWorld()
			So(err, ShouldBeNil)
			width, height := world.Dimensions()
			So(width, ShouldEqual, 3)
			So(height, ShouldEqual, 3)
			So(world.Terminal(), ShouldResemble, models.State{Row: 1, Col: 1})
			So(world.Reward(models.State{Row: 1, Col: 0}, models.RIGHT), ShouldEqual, 1.0)
			So(world.Reward(models.State{Row: 0, Col: 0}, models.UP), ShouldEqual, -1.0)

			planner, err := cfg.BuildPlanner(world)
			So(err, ShouldBeNil)
			_, ok := planner.(*ValueIteration)
			So(ok, ShouldBeTrue)
		})

		Convey("The deadline is applied to the context", func() {
			ctx, cancel, err := cfg.WithDeadline(context.Background())
			So(err, ShouldBeNil)
			defer cancel()
			_, ok := ctx.Deadline()
			So(ok, ShouldBeTrue)
		})
	})

	Convey("When the algorithm is unknown", t, func() {
		cfg := &PlannerConfig{Algorithm: map[string]string{"name": "sarsa"}}
		_, err := cfg.AlgorithmName()
		So(errors.Is(err, ErrUnknownAlgorithm), ShouldBeTrue)
	})

	Convey("When the deadline is malformed", t, func() {
		cfg := &PlannerConfig{Deadline: map[string]string{"duration": "soon"}}
		_, _, err := cfg.WithDeadline(context.Background())
		So(err, ShouldNotBeNil)
	})

	Convey("When the repository config is read", t, func() {
		cfg, err := FromYaml("../config.yaml")
		So(err, ShouldBeNil)
		name, err := cfg.AlgorithmName()
		So(err, ShouldBeNil)
		So(name, ShouldEqual, POLICY_ITERATION)

		world, err := cfg.BuildWorld()
		So(err, ShouldBeNil)
		planner, err := cfg.BuildPlanner(world)
		So(err, ShouldBeNil)
		_, ok := planner.(*PolicyIteration)
		So(ok, ShouldBeTrue)
	})

	Convey("When no config values are set", t, func() {
		cfg := &PlannerConfig{}
		name, err := cfg.AlgorithmName()
		So(err, ShouldBeNil)
		So(name, ShouldEqual, VALUE_ITERATION)
		So(cfg.Discount(), ShouldEqual, 0.9)

		world, err := cfg.BuildWorld()
		So(err, ShouldBeNil)
		So(world.Terminal(), ShouldResemble, models.State{Row: 2, Col: 2})
	})
}
