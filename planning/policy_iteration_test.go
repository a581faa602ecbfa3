package planning

import (
	"errors"
	"testing"

	"gridplan/grid_world"
	"gridplan/models"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/floats"
)

// scriptedSampler replays a fixed sequence of draws.
type scriptedSampler struct {
	draws []float64
	next  int
}

func (ss *scriptedSampler) Float64() float64 {
	draw := ss.draws[ss.next%len(ss.draws)]
	ss.next++
	return draw
}

// noActions is a one-cell environment without actions.
type noActions struct{ *grid_world.GridWorld }

func (noActions) PossibleActions() []models.Action { return nil }

// stepWorld is the 5x5 world with reward -1 per step and +1 for entering (2,2).
func stepWorld() *grid_world.GridWorld {
	world, err := grid_world.Convert(
		[]string{
			"ooooo",
			"ooooo",
			"oo+oo",
			"ooooo",
			"ooooo",
		},
		grid_world.Rewards{Goal: 1, Empty: -1})
	if err != nil {
		panic(err)
	}
	return world
}

func TestPolicyIteration(t *testing.T) {
	Convey("When a policy iteration planner is constructed", t, func() {
		Convey("When the environment has no actions", func() {
			_, err := NewPolicyIteration(noActions{grid_world.Default()}, 0.9, nil)
			So(errors.Is(err, ErrNoActions), ShouldBeTrue)
		})

		Convey("When the discount factor is outside (0,1)", func() {
			_, err := NewPolicyIteration(grid_world.Default(), 1.0, nil)
			So(errors.Is(err, ErrDiscount), ShouldBeTrue)
			_, err = NewPolicyIteration(grid_world.Default(), 0, nil)
			So(errors.Is(err, ErrDiscount), ShouldBeTrue)
		})

		Convey("When the environment is valid", func() {
			world := stepWorld()
			pi, err := NewPolicyIteration(world, 0.9, &scriptedSampler{draws: []float64{0}})
			So(err, ShouldBeNil)

			Convey("The policy is uniform and the terminal policy is empty", func() {
				for _, s := range world.AllStates() {
					dist, err := pi.GetPolicy(s)
					So(err, ShouldBeNil)
					if world.IsTerminal(s) {
						So(dist, ShouldBeEmpty)
						continue
					}
					So(dist, ShouldResemble, Distribution{0.25, 0.25, 0.25, 0.25})
				}
			})

			Convey("All values are zero", func() {
				So(pi.Values().Len(), ShouldEqual, 25)
				for _, row := range pi.Values().Rows() {
					for _, val := range row {
						So(val, ShouldEqual, 0.0)
					}
				}
			})
		})
	})
}

func TestPolicyEvaluation(t *testing.T) {
	Convey("When policy evaluation runs under the uniform policy", t, func() {
		world := stepWorld()
		pi, err := NewPolicyIteration(world, 0.9, nil)
		So(err, ShouldBeNil)

		pi.PolicyEvaluation()

		Convey("The first sweep averages the immediate rewards", func() {
			expected := [][]float64{
				{-1, -1, -1, -1, -1},
				{-1, -1, -0.5, -1, -1},
				{-1, -0.5, 0, -0.5, -1},
				{-1, -1, -0.5, -1, -1},
				{-1, -1, -1, -1, -1},
			}
			So(pi.Values().Rows(), ShouldResemble, expected)
		})

		Convey("The terminal value and the table shape never change across sweeps", func() {
			for sweep := 0; sweep < 30; sweep++ {
				pi.PolicyEvaluation()
				val, err := pi.GetValue(world.Terminal())
				So(err, ShouldBeNil)
				So(val, ShouldEqual, 0.0)
				width, height := pi.Values().Dims()
				So(width, ShouldEqual, 5)
				So(height, ShouldEqual, 5)
			}
		})

		Convey("Repeated value reads are identical", func() {
			pi.PolicyEvaluation()
			for _, s := range world.AllStates() {
				first, _ := pi.GetValue(s)
				second, _ := pi.GetValue(s)
				So(first, ShouldEqual, second)
			}
		})

		Convey("Out of range states are rejected", func() {
			_, err := pi.GetValue(models.State{Row: 5, Col: 0})
			So(errors.Is(err, models.ErrOutOfRange), ShouldBeTrue)
			_, err = pi.GetPolicy(models.State{Row: 0, Col: -1})
			So(errors.Is(err, models.ErrOutOfRange), ShouldBeTrue)
			_, err = pi.GetAction(models.State{Row: 7, Col: 7})
			So(errors.Is(err, models.ErrOutOfRange), ShouldBeTrue)
		})
	})
}

func TestPolicyEvaluationSweeps(t *testing.T) {
	Convey("When the uniform policy is evaluated on the classic world", t, func() {
		pi, err := NewPolicyIteration(grid_world.Default(), 0.9, nil)
		So(err, ShouldBeNil)
		for sweep := 0; sweep < 6; sweep++ {
			pi.PolicyEvaluation()
		}

		Convey("Every sweep rounds from the previous rounded table", func() {
			So(pi.Values().Rows(), ShouldResemble, [][]float64{
				{-0.22, -0.35, -0.46, -0.21, -0.09},
				{-0.35, -0.64, -0.05, -0.25, -0.07},
				{-0.46, -0.05, 0, 0.23, 0.07},
				{-0.21, -0.25, 0.23, 0.14, 0.06},
				{-0.09, -0.07, 0.07, 0.06, 0.04},
			})

			pi.PolicyEvaluation()
			So(pi.Values().Rows(), ShouldResemble, [][]float64{
				{-0.26, -0.38, -0.49, -0.23, -0.1},
				{-0.38, -0.68, -0.05, -0.27, -0.08},
				{-0.49, -0.05, 0, 0.24, 0.07},
				{-0.23, -0.27, 0.24, 0.13, 0.07},
				{-0.1, -0.08, 0.07, 0.07, 0.04},
			})
			// The unrounded value is the float just below 0.045.
			val, _ := pi.GetValue(models.State{Row: 4, Col: 4})
			So(val, ShouldEqual, 0.04)
		})
	})
}

func TestPolicyImprovement(t *testing.T) {
	Convey("When the policy is improved after one evaluation sweep", t, func() {
		world := stepWorld()
		sampler := &scriptedSampler{}
		pi, err := NewPolicyIteration(world, 0.9, sampler)
		So(err, ShouldBeNil)
		pi.PolicyEvaluation()
		pi.PolicyImprovement()

		Convey("Every non-terminal distribution is normalized over its tie set", func() {
			for _, s := range world.AllStates() {
				dist, err := pi.GetPolicy(s)
				So(err, ShouldBeNil)
				if world.IsTerminal(s) {
					So(dist, ShouldBeEmpty)
					continue
				}
				So(floats.Sum(dist), ShouldAlmostEqual, 1.0, 1e-9)

				support := dist.Support(world.PossibleActions())
				So(len(support), ShouldBeBetweenOrEqual, 1, 4)
				for _, a := range support {
					So(dist[a], ShouldEqual, 1/float64(len(support)))
				}
			}
		})

		Convey("Ties split the probability and a strict maximum takes it all", func() {
			dist, _ := pi.GetPolicy(models.State{Row: 1, Col: 1})
			So(dist, ShouldResemble, Distribution{0, 0.5, 0, 0.5})

			dist, _ = pi.GetPolicy(models.State{Row: 2, Col: 1})
			So(dist, ShouldResemble, Distribution{0, 0, 0, 1})

			dist, _ = pi.GetPolicy(models.State{Row: 1, Col: 2})
			So(dist, ShouldResemble, Distribution{0, 1, 0, 0})

			dist, _ = pi.GetPolicy(models.State{Row: 0, Col: 0})
			So(dist, ShouldResemble, Distribution{0.25, 0.25, 0.25, 0.25})
		})

		Convey("Sampling walks the cumulative mass in canonical order", func() {
			tied := models.State{Row: 1, Col: 1}
			sampler.draws = []float64{0, 0.3, 0.5, 0.99}
			for _, expected := range []models.Action{models.DOWN, models.DOWN, models.RIGHT, models.RIGHT} {
				action, err := pi.GetAction(tied)
				So(err, ShouldBeNil)
				So(action, ShouldEqual, expected)
			}

			uniform := models.State{Row: 0, Col: 0}
			sampler.draws = []float64{0, 0.25, 0.5, 0.74, 0.75}
			sampler.next = 0
			for _, expected := range []models.Action{models.UP, models.DOWN, models.LEFT, models.LEFT, models.RIGHT} {
				action, err := pi.GetAction(uniform)
				So(err, ShouldBeNil)
				So(action, ShouldEqual, expected)
			}
		})

		Convey("The terminal state has no action", func() {
			action, err := pi.GetAction(world.Terminal())
			So(err, ShouldBeNil)
			So(action, ShouldEqual, models.NoAction)
		})

		Convey("Reset restores the uniform policy and zero values", func() {
			pi.Reset()
			dist, _ := pi.GetPolicy(models.State{Row: 1, Col: 1})
			So(dist, ShouldResemble, Distribution{0.25, 0.25, 0.25, 0.25})
			val, _ := pi.GetValue(models.State{Row: 1, Col: 1})
			So(val, ShouldEqual, 0.0)
		})
	})
}
