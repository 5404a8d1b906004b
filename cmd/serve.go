package cmd

import (
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI and API server",
	Long:  `Start both the web UI and REST API server together.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, true)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
