package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/betna-immo/betna/internal/client"
	"github.com/betna-immo/betna/internal/listing"
)

func newListingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "listing",
		Aliases: []string{"listings"},
		Short:   "Browse and manage listings",
	}
	cmd.AddCommand(
		newListingSubmitCmd(),
		newListingEditCmd(),
		newListingShowCmd(),
		newListingListCmd(),
		newListingApproveCmd(),
		newListingDeleteCmd(),
	)
	return cmd
}

// draftFlags binds the editable listing fields to flags.
type draftFlags struct {
	draft     listing.Draft
	stay      string
	bedrooms  int
	bathrooms int
}

func (f *draftFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.draft.Title, "title", "", "listing title")
	fs.StringVar(&f.draft.Location, "location", "", "neighbourhood and city, e.g. \"Cocody, Abidjan\"")
	fs.Int64Var(&f.draft.Price, "price", 0, "price in FCFA")
	fs.StringVar(&f.draft.Description, "description", "", "free-text description")
	fs.IntVar(&f.bedrooms, "bedrooms", 0, "number of bedrooms")
	fs.IntVar(&f.bathrooms, "bathrooms", 0, "number of bathrooms")
	fs.StringVar(&f.stay, "stay", "long", "stay type (long|short)")
	fs.StringArrayVar(&f.draft.Images, "image", nil, "image URL (repeatable)")
	fs.StringVar(&f.draft.Agent.Name, "agent-name", "", "contact name")
	fs.StringVar(&f.draft.Agent.Phone, "agent-phone", "", "contact phone")
	fs.StringVar(&f.draft.Agent.Email, "agent-email", "", "contact email")
}

// apply copies the flags that were set onto d.
func (f *draftFlags) apply(fs *pflag.FlagSet, d listing.Draft) (listing.Draft, error) {
	set := func(name string) bool { return fs.Changed(name) }
	if set("title") {
		d.Title = f.draft.Title
	}
	if set("location") {
		d.Location = f.draft.Location
	}
	if set("price") {
		d.Price = f.draft.Price
	}
	if set("description") {
		d.Description = f.draft.Description
	}
	if set("bedrooms") {
		n := f.bedrooms
		d.Bedrooms = &n
	}
	if set("bathrooms") {
		n := f.bathrooms
		d.Bathrooms = &n
	}
	if set("stay") || d.StayType == "" {
		st, ok := listing.ParseStayType(f.stay)
		if !ok {
			return d, fmt.Errorf("invalid stay type %q (use long or short)", f.stay)
		}
		d.StayType = st
	}
	if set("image") {
		d.Images = f.draft.Images
	}
	if set("agent-name") {
		d.Agent.Name = f.draft.Agent.Name
	}
	if set("agent-phone") {
		d.Agent.Phone = f.draft.Agent.Phone
	}
	if set("agent-email") {
		d.Agent.Email = f.draft.Agent.Email
	}
	return d, nil
}

func newListingSubmitCmd() *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new listing for moderation",
		Long:  "Create a pending listing. It becomes public once an admin approves it. Proprietaire accounts only.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := flags.apply(cmd.Flags(), listing.Draft{})
			if err != nil {
				return err
			}
			l, err := newAPIClient().SubmitListing(d)
			if err != nil {
				return fmt.Errorf("submitting listing: %w", err)
			}
			if isJSON() {
				return printJSON(l)
			}
			fmt.Println("Listing submitted, awaiting approval.")
			printListingSummary(l)
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newListingEditCmd() *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit one of your listings",
		Long:  "Change the given fields of a listing you own. Fields without a flag keep their value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient()
			current, err := c.GetListing(args[0])
			if err != nil {
				return fmt.Errorf("loading listing: %w", err)
			}
			d, err := flags.apply(cmd.Flags(), current.Draft())
			if err != nil {
				return err
			}
			l, err := c.EditListing(args[0], d)
			if err != nil {
				return fmt.Errorf("editing listing: %w", err)
			}
			if isJSON() {
				return printJSON(l)
			}
			fmt.Println("Listing updated.")
			printListingSummary(l)
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newListingShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newAPIClient().GetListing(args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(l)
			}
			printListingSummary(l)
			return nil
		},
	}
}

func newListingListCmd() *cobra.Command {
	var (
		opts client.ListOptions
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings",
		Long:  "List verified listings. Use --mine for your own listings in every state, or --all as an admin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verified = !opts.Mine && !all
			listings, err := newAPIClient().ListListings(opts)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(listings)
			}
			return printListingTable(listings)
		},
	}

	cmd.Flags().BoolVar(&opts.Mine, "mine", false, "only your own listings")
	cmd.Flags().BoolVar(&all, "all", false, "include pending listings")
	cmd.Flags().StringVar(&opts.Location, "location", "", "filter by location")
	cmd.Flags().StringVarP(&opts.Search, "search", "q", "", "search title and location")
	cmd.Flags().StringVar(&opts.Stay, "stay", "", "stay type (long|short)")
	cmd.Flags().Int64Var(&opts.MinPrice, "min-price", 0, "minimum price in FCFA")
	cmd.Flags().Int64Var(&opts.MaxPrice, "max-price", 0, "maximum price in FCFA")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "newest, oldest, price_asc or price_desc")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of results")

	return cmd
}

func newListingApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending listing (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newAPIClient().ApproveListing(args[0])
			if err != nil {
				return fmt.Errorf("approving listing: %w", err)
			}
			if isJSON() {
				return printJSON(l)
			}
			fmt.Printf("Listing %s approved.\n", l.ID)
			return nil
		},
	}
}

func newListingDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a listing",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient().DeleteListing(args[0]); err != nil {
				return fmt.Errorf("deleting listing: %w", err)
			}
			if isJSON() {
				return printJSON(map[string]any{"id": args[0], "deleted": true})
			}
			fmt.Printf("Listing %s deleted.\n", args[0])
			return nil
		},
	}
}
