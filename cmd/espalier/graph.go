package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/espalier/internal/dto"
	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [model]",
	Short: "Export the state graph of a model",
	Long:  `Outputs a Mermaid state diagram (stateDiagram-v2) of the model, or its JSON form with --json.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		m, err := app.Model(firstArg(args))
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dto.NewGraphView(m.Graph()))
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(m.Graph(), nil))
		return err
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("json", false, "Output the graph as JSON")
}
