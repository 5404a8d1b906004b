package cmd

import (
	"fmt"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/spf13/cobra"
)

// initOptimizerCmd asks the optimization service to reload its state
var initOptimizerCmd = &cobra.Command{
	Use:   "init-optimizer",
	Short: "Initialize the optimizer on the optimization service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		message, err := a.gateway.InitializeOptimizer(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s", apperr.Message(err))
		}
		if message == "" {
			message = "Optimizer initialized"
		}
		fmt.Fprintln(cmd.OutOrStdout(), message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initOptimizerCmd)
}
