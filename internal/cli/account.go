package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts (admin)",
	}
	cmd.AddCommand(newAccountListCmd(), newAccountToggleCmd())
	return cmd
}

func newAccountListCmd() *cobra.Command {
	var role, status, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := newAPIClient().ListAccounts(role, status, search)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(accounts)
			}
			return printAccountTable(accounts)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "client, proprietaire or admin")
	cmd.Flags().StringVar(&status, "status", "", "actif or bloqué")
	cmd.Flags().StringVarP(&search, "search", "q", "", "search email and name")

	return cmd
}

func newAccountToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Block or unblock an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newAPIClient().ToggleAccountStatus(args[0])
			if err != nil {
				return fmt.Errorf("toggling status: %w", err)
			}
			if isJSON() {
				return printJSON(map[string]any{"id": args[0], "status": status})
			}
			fmt.Printf("Account %s is now %s.\n", args[0], status)
			return nil
		},
	}
}
