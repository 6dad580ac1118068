package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the search assistant",
		Long:  "Send a message to the rental search assistant. The conversation is kept per account.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := newAPIClient().Chat(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(reply)
			}
			fmt.Println(reply.ReplyText)
			if reply.NextQuestion != "" {
				fmt.Printf("\n%s\n", reply.NextQuestion)
			}
			if len(reply.Listings) > 0 {
				fmt.Println()
				return printListingTable(reply.Listings)
			}
			return nil
		},
	}
}
