package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"gridplan/grid_world"
	"gridplan/models"
	"gridplan/planning"
	"gridplan/report"
	"gridplan/server"

	"github.com/spf13/cobra"
)

// loadConfig reads the config file and applies the command line overrides.
func loadConfig() (*planning.PlannerConfig, error) {
	cfg, err := planning.FromYaml(configPath)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", configPath, err)
	}
	if algorithm != "" {
		if cfg.Algorithm == nil {
			cfg.Algorithm = map[string]string{}
		}
		cfg.Algorithm["name"] = algorithm
	}
	return cfg, nil
}

func solve(
	ctx context.Context,
	cfg *planning.PlannerConfig,
	world *grid_world.GridWorld,
) (planning.Planner, *planning.Result, error) {
	planner, err := cfg.BuildPlanner(world)
	if err != nil {
		return nil, nil, err
	}

	solveCtx, cancel, err := cfg.WithDeadline(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer cancel()

	result, err := planning.Solve(solveCtx, planner, cfg.SolveOptions(), nil)
	return planner, result, err
}

func writeChart(path, title string, runs ...report.Run) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteConvergenceChart(f, title, runs...)
}

func SolveCommand() *cobra.Command {
	var chartPath string
	var start models.State

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve the configured world and print its values, policy and a greedy walk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			world, err := cfg.BuildWorld()
			if err != nil {
				return err
			}
			name, err := cfg.AlgorithmName()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			planner, result, err := solve(ctx, cfg, world)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d sweeps, %d improvements, converged=%t\n",
				name, result.Sweeps, result.Improvements, result.Converged)
			grid_world.ShowGrid(out, world)
			snap := planning.TakeSnapshot(planner, result.Sweeps)
			grid_world.ShowValues(out, world, snap.Values)
			grid_world.ShowPolicy(out, world, snap.Actions)

			width, height := world.Dimensions()
			path, err := planning.Walk(planner, start, width*height)
			if err != nil {
				return err
			}
			grid_world.ShowPath(out, path)

			if chartPath != "" {
				return writeChart(chartPath, name, report.Run{Name: name, Result: result})
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&chartPath, "chart", "", "Write a convergence chart to this html file")
	cmd.Flags().IntVar(&start.Row, "row", 0, "Row of the walk's start state")
	cmd.Flags().IntVar(&start.Col, "col", 0, "Column of the walk's start state")
	return cmd
}

func CompareCommand() *cobra.Command {
	var chartPath string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Solve the configured world with both algorithms and chart their convergence",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			world, err := cfg.BuildWorld()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			runs := []report.Run{}
			for _, name := range []string{planning.POLICY_ITERATION, planning.VALUE_ITERATION} {
				cfg.Algorithm = map[string]string{"name": name}
				_, result, err := solve(ctx, cfg, world)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sweeps, %d improvements, converged=%t\n",
					name, result.Sweeps, result.Improvements, result.Converged)
				runs = append(runs, report.Run{Name: name, Result: result})
			}
			return writeChart(chartPath, "policy vs value iteration", runs...)
		},
	}
	cmd.Flags().StringVar(&chartPath, "chart", "./convergence.html", "Path of the html chart")
	return cmd
}

func ServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner, stepped from the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			world, err := cfg.BuildWorld()
			if err != nil {
				return err
			}
			planner, err := cfg.BuildPlanner(world)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			srv, err := server.NewServer(ctx, addr, world, planner, cfg.SolveOptions())
			if err != nil {
				return err
			}
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to serve on")
	return cmd
}
