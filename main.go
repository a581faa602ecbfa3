/*
Gridplan solves small grid world MDPs by dynamic programming, with policy iteration
or value iteration, and shows the resulting values and policy in the console or
live in the browser while the planner sweeps.
*/
package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	algorithm  string
)

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gridplan",
		Short:         "Plan over grid worlds with policy or value iteration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "./config.yaml", "Path of the planner config")
	cmd.PersistentFlags().StringVar(&algorithm, "algorithm", "", "Overrides the configured algorithm: policy_iteration or value_iteration")

	cmd.AddCommand(
		SolveCommand(),
		CompareCommand(),
		ServeCommand(),
	)
	return cmd
}

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
