package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/betna-immo/betna/internal/broker"
	"github.com/betna-immo/betna/internal/config"
	"github.com/betna-immo/betna/internal/export"
	"github.com/betna-immo/betna/internal/listing"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the verified catalogue",
	}
	cmd.AddCommand(newExportSheetsCmd())
	return cmd
}

func newExportSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Write verified listings to a new Google Sheets tab",
		Long:  "Reads the local database and writes every verified listing to BETNA_SHEETS_ID. Requires BETNA_SHEETS_CREDENTIALS.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if cfg.Sheets.SpreadsheetID == "" || cfg.Sheets.CredentialsPath == "" {
				return fmt.Errorf("%w: set BETNA_SHEETS_ID and BETNA_SHEETS_CREDENTIALS", export.ErrNotConfigured)
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			ctx := cmd.Context()
			w, err := newCatalogueWriter(ctx, cfg)
			if err != nil {
				return err
			}

			listings := listing.NewService(listing.NewRepository(database), broker.NewLocal())
			found, err := listings.List(ctx, listing.Query{State: listing.StateVerified, Sort: listing.SortNewest})
			if err != nil {
				return err
			}

			title, err := w.WriteCatalogue(ctx, found, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d listings to sheet %q\n", len(found), title)
			return nil
		},
	}
}
