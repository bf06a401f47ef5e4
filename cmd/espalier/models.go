package main

import (
	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the registered models",
	RunE: func(cmd *cobra.Command, args []string) error {
		var models []registry.Model
		for _, name := range registry.Default.Names() {
			m, err := registry.Default.Lookup(name)
			if err != nil {
				return err
			}
			models = append(models, m)
		}
		return cli.WriteModels(cmd.OutOrStdout(), models)
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
