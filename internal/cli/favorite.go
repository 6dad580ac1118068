package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFavoriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorite",
		Aliases: []string{"fav"},
		Short:   "Bookmark listings",
	}

	add := &cobra.Command{
		Use:   "add <listing-id>",
		Short: "Bookmark a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := newAPIClient().AddFavorite(args[0])
			if err != nil {
				return fmt.Errorf("adding favorite: %w", err)
			}
			if isJSON() {
				return printJSON(f)
			}
			fmt.Printf("Added %s to favorites (%s).\n", f.Title, f.ID)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := newAPIClient().ListFavorites()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(favs)
			}
			printFavorites(favs)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "remove <favorite-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a favorite",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient().RemoveFavorite(args[0]); err != nil {
				return fmt.Errorf("removing favorite: %w", err)
			}
			if isJSON() {
				return printJSON(map[string]any{"id": args[0], "deleted": true})
			}
			fmt.Println("Favorite removed.")
			return nil
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}
