package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [model]",
	Short: "Run every plan of a model",
	Long: `Generates the plans of the model, runs them against the system under test and
prints the report. The exit code is non-zero when any plan failed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if f, _ := cmd.Flags().GetString("format"); f != "" {
			app.Config.Format = f
		}
		if err := app.Config.Validate(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		tty := cli.IsTerminal(out)
		quiet, _ := cmd.Flags().GetBool("quiet")
		if tty && !quiet && app.Config.Format == config.FormatText {
			tui.PrintBanner(out, strings.TrimSpace(espalier.Version))
		}

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()

		res, err := app.Run(sc, firstArg(args))
		if err != nil {
			return err
		}
		if err := cli.WriteReport(out, res.Report, app.Config.Format, tty); err != nil {
			return err
		}
		if res.Warning != nil && !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", res.Warning)
		}
		if sig := sc.Signal(); sig != nil {
			return fmt.Errorf("interrupted by %v", sig)
		}
		if !res.Report.Passed() {
			return cli.ErrRunFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("format", "f", "", "Report format: text, markdown or json")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress banner and warnings")
}
