package cmd

import (
	"github.com/spf13/cobra"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the REST API server without the web UI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, false)
	},
}

func init() {
	rootCmd.AddCommand(apiCmd)
}
