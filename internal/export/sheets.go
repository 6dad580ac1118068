// Package export writes the verified catalogue to a Google Sheet.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/betna-immo/betna/internal/listing"
)

// ErrNotConfigured is returned when no spreadsheet or credentials are set.
var ErrNotConfigured = errors.New("sheets export not configured")

var header = []any{
	"Titre", "Localisation", "Prix (FCFA)", "Séjour", "Chambres", "Salles de bain",
	"Agent", "Téléphone", "Email", "Publiée le", "Lien",
}

// Writer writes listings into a spreadsheet.
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
	baseURL       string
}

// Credentials reads a service account key file and returns it as a client option.
func Credentials(path string) (option.ClientOption, error) {
	if path == "" {
		return nil, ErrNotConfigured
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	var creds struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if creds.Type != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account key, got type %q", creds.Type)
	}
	return option.WithCredentialsJSON(data), nil
}

// NewWriter creates a writer for spreadsheetID. baseURL is used to build the
// link column.
func NewWriter(ctx context.Context, spreadsheetID, baseURL string, opts ...option.ClientOption) (*Writer, error) {
	if spreadsheetID == "" {
		return nil, ErrNotConfigured
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Writer{service: svc, spreadsheetID: spreadsheetID, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// WriteCatalogue adds a new sheet named after the export date at the front of
// the spreadsheet and writes the listings into it. It returns the sheet title.
func (w *Writer) WriteCatalogue(ctx context.Context, listings []*listing.Listing, at time.Time) (string, error) {
	title := "Catalogue " + at.Format("2006-01-02 15h04")

	resp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title, Index: 0},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating sheet: %w", err)
	}
	var sheetID int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	values := make([][]any, 0, len(listings)+1)
	values = append(values, header)
	for _, l := range listings {
		values = append(values, w.row(l))
	}

	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, fmt.Sprintf("'%s'!A1", title), &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("writing sheet: %w", err)
	}

	slog.Info("catalogue exported", "sheet", title, "sheet_id", sheetID, "listings", len(listings))
	return title, nil
}

func (w *Writer) row(l *listing.Listing) []any {
	return []any{
		l.Title,
		l.Location,
		l.Price,
		string(l.StayType),
		optional(l.Bedrooms),
		optional(l.Bathrooms),
		l.Agent.Name,
		l.Agent.Phone,
		l.Agent.Email,
		l.CreatedAt.Format("2006-01-02"),
		w.baseURL + "/listings/" + l.ID,
	}
}

func optional(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}
