package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/betna-immo/betna/internal/visit"
)

func newVisitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "visit",
		Aliases: []string{"visits"},
		Short:   "Request and manage visits",
	}
	cmd.AddCommand(
		newVisitRequestCmd(),
		newVisitListCmd(),
		newVisitActionCmd("confirm", "Confirm a visit request on your listing"),
		newVisitActionCmd("cancel", "Cancel a visit request"),
	)
	return cmd
}

func newVisitRequestCmd() *cobra.Command {
	var date, note string

	cmd := &cobra.Command{
		Use:   "request <listing-id>",
		Short: "Ask the owner for a visit",
		Long:  "Request a visit of a listing on a given day. The owner is notified by email.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("invalid date %q (use YYYY-MM-DD)", date)
			}
			v, err := newAPIClient().RequestVisit(args[0], date, note)
			if err != nil {
				return fmt.Errorf("requesting visit: %w", err)
			}
			if isJSON() {
				return printJSON(v)
			}
			fmt.Printf("Visit of %s requested for %s (%s).\n", v.Title, v.VisitDate, v.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "visit date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&note, "note", "", "message for the owner")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func newVisitListCmd() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visit requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch visit.Scope(scope) {
			case visit.ScopeMine, visit.ScopeIncoming, visit.ScopeAll:
			default:
				return fmt.Errorf("invalid scope %q (use mine, incoming or all)", scope)
			}
			visits, err := newAPIClient().ListVisits(scope)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(visits)
			}
			printVisits(visits)
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", string(visit.ScopeMine), "mine, incoming (on your listings) or all (admin)")

	return cmd
}

func newVisitActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <visit-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient()
			do := c.ConfirmVisit
			if action == "cancel" {
				do = c.CancelVisit
			}
			v, err := do(args[0])
			if err != nil {
				return fmt.Errorf("%s visit: %w", action, err)
			}
			if isJSON() {
				return printJSON(v)
			}
			fmt.Printf("Visit %s: %s.\n", v.ID, v.Status.Label())
			return nil
		},
	}
}
