package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/favorite"
	"github.com/betna-immo/betna/internal/listing"
	"github.com/betna-immo/betna/internal/visit"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printListingSummary prints a single listing in text format.
func printListingSummary(l *listing.Listing) {
	fmt.Printf("Listing %s\n", l.ID)
	fmt.Printf("  Title:    %s\n", l.Title)
	if l.Location != "" {
		fmt.Printf("  Location: %s\n", l.Location)
	}
	fmt.Printf("  Price:    %s\n", formatPrice(l.Price))
	fmt.Printf("  Stay:     %s\n", stayLabel(l.StayType))
	if l.Bedrooms != nil {
		fmt.Printf("  Beds:     %d\n", *l.Bedrooms)
	}
	if l.Bathrooms != nil {
		fmt.Printf("  Baths:    %d\n", *l.Bathrooms)
	}
	fmt.Printf("  State:    %s\n", stateLabel(l.State))
	fmt.Printf("  Images:   %d\n", len(l.Images))
	if l.Agent.Name != "" || l.Agent.Phone != "" {
		fmt.Printf("  Agent:    %s %s\n", l.Agent.Name, l.Agent.Phone)
	}
	if l.Description != "" {
		fmt.Printf("\n%s\n", l.Description)
	}
}

// printListingTable prints listings as a formatted table.
func printListingTable(listings []*listing.Listing) error {
	if len(listings) == 0 {
		fmt.Println("No listings found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTITLE\tLOCATION\tPRICE\tSTAY\tSTATE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-----\t--------\t-----\t----\t-----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, l := range listings {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, truncate(l.Title, 32), truncate(l.Location, 24),
			formatPrice(l.Price), stayLabel(l.StayType), stateLabel(l.State)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d listings\n", len(listings))
	return nil
}

// printAccountTable prints accounts for admins.
func printAccountTable(accounts []*account.Account) error {
	if len(accounts) == 0 {
		fmt.Println("No accounts found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tSTATUS\tPLAN"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, a := range accounts {
		plan := a.Subscription.Plan
		if !a.Subscription.Active {
			plan += " (inactive)"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Email, truncate(a.FullName, 24), a.Role, a.Status, plan); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printFavorites prints favorites in text format.
func printFavorites(favs []*favorite.Favorite) {
	if len(favs) == 0 {
		fmt.Println("No favorites.")
		return
	}
	for _, f := range favs {
		fmt.Printf("%s  %s (%s) %s\n", f.ID, f.Title, f.Location, formatPrice(f.Price))
	}
}

// printVisits prints visit requests in text format.
func printVisits(visits []*visit.Request) {
	if len(visits) == 0 {
		fmt.Println("No visit requests.")
		return
	}

	for _, v := range visits {
		fmt.Printf("[%s] %s: %s (%s)\n", v.VisitDate, v.Status.Label(), v.Title, v.ID)
		if v.Note != "" {
			fmt.Printf("  %s\n", v.Note)
		}
		fmt.Println()
	}
}

// formatPrice formats an FCFA amount with space-separated thousands.
func formatPrice(fcfa int64) string {
	s := fmt.Sprintf("%d", fcfa)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := strings.Join(parts, " ") + " FCFA"
	if neg {
		out = "-" + out
	}
	return out
}

func stayLabel(st listing.StayType) string {
	switch st {
	case listing.StayShort:
		return "court séjour"
	case listing.StayLong:
		return "long séjour"
	}
	return string(st)
}

func stateLabel(s listing.State) string {
	if s == listing.StateVerified {
		return "vérifiée"
	}
	return "en attente"
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
