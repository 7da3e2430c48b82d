// Package cmd provides the specutils CLI command implementations.
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"specutils/config"
)

var (
	guardrailsPath string
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:     "specutils",
	Short:   "Inspect, convert, and calibrate gamma/neutron spectrum files",
	Version: "1.0.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	logrus.SetOutput(os.Stderr)
	rootCmd.PersistentFlags().StringVar(&guardrailsPath, "guardrails", "", "path to a TOML guardrails config (defaults built in if omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(calibrateCmd)
}

func loadGuardrails() config.Guardrails {
	if guardrailsPath == "" {
		return config.Default()
	}
	g, err := config.Load(guardrailsPath)
	if err != nil {
		logrus.WithError(err).Warn("failed to load guardrails config; using defaults")
		return config.Default()
	}
	return g
}
