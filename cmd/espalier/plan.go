package main

import (
	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [model]",
	Short: "Show the paths and test plans of a model",
	Long:  `Builds the state graph, computes one shortest path per reachable state and expands it into concrete plans, without running anything.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		m, err := app.Model(firstArg(args))
		if err != nil {
			return err
		}
		return cli.WritePlans(cmd.OutOrStdout(), m)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func firstArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
