package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/espalier/examples/login"
	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier generates and runs tests from state machine models",
	Long: `Espalier derives the shortest paths through a hierarchical state machine,
turns them into concrete test plans and runs them against the system under test.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrRunFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringArray("set", nil, "Override a configuration key (key=value), repeatable")
	rootCmd.PersistentFlags().StringP("model", "m", "", "Model to use (defaults to the configured model)")

	if err := login.Register(registry.Default, login.DefaultSeed); err != nil {
		panic(err)
	}
}

// loadApp resolves the configuration from flags and builds the shared collaborators.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	overrides, _ := cmd.Flags().GetStringArray("set")
	model, _ := cmd.Flags().GetString("model")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Apply(overrides...); err != nil {
		return nil, err
	}
	if model != "" {
		cfg.Model = model
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cli.NewApp(cfg, registry.Default, debug)
}
