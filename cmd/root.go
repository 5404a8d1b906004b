package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "plandash",
	Short: "Plan Dashboard - inspect and steer production optimization runs",
	Long: `Plan Dashboard is a front end for the production optimization service.

It shows optimization results, compares saved scenarios against each other,
reconciles predicted inventory with measured stock and edits the planned
material deliveries. It provides both an API and a web UI.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	rootCmd.PersistentFlags().IntP("port", "p", 8080, "Server port")
	rootCmd.PersistentFlags().StringP("db", "d", "./data/plandash.db", "Database file path")
	rootCmd.PersistentFlags().String("service-url", "http://localhost:8000", "Optimization service base URL")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}
