// Package cli implements the claimsctl command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *Config
)

var rootCmd = &cobra.Command{
	Use:   "claimsctl",
	Short: "Claims gateway CLI",
	Long: `claimsctl is the command-line interface for the unemployment
claims gateway.

Submit and inspect claims, drive workflow transitions, manage service
registrations, and check gateway health from your terminal.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimsctl/config.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "profile to use")
	rootCmd.PersistentFlags().String("output", "table", "output format: table, json")

	rootCmd.AddCommand(claimsCmd)
	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(healthCmd)
}

func initConfig() {
	var err error
	cfg, err = LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = DefaultConfig()
	}
}
