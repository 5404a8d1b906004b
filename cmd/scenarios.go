package cmd

import (
	"fmt"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/spf13/cobra"
)

var confirmDelete bool

// scenariosCmd groups the scenario maintenance commands
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Manage saved scenarios",
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved scenario names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.gateway.ListScenarios(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s", apperr.Message(err))
		}

		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, "No saved scenarios.")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	},
}

var scenariosDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a saved scenario",
	Long:  `Delete a saved scenario. The deletion cannot be undone and must be confirmed with --yes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !confirmDelete {
			return fmt.Errorf("refusing to delete %q without --yes", name)
		}

		a, err := bootstrap(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.gateway.DeleteScenario(cmd.Context(), name); err != nil {
			return fmt.Errorf("%s", apperr.Message(err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted scenario %s\n", name)
		return nil
	},
}

func init() {
	scenariosDeleteCmd.Flags().BoolVarP(&confirmDelete, "yes", "y", false, "Confirm the deletion")

	scenariosCmd.AddCommand(scenariosListCmd, scenariosDeleteCmd)
	rootCmd.AddCommand(scenariosCmd)
}
