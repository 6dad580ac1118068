package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/betna-immo/betna/internal/listing"
)

// Cleaner deletes expired rows and reports how many went.
type Cleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// Expirer switches off subscriptions that ran out before now.
type Expirer interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// ListingFinder queries the catalogue.
type ListingFinder interface {
	List(ctx context.Context, q listing.Query) ([]*listing.Listing, error)
}

// CatalogueWriter exports listings somewhere.
type CatalogueWriter interface {
	WriteCatalogue(ctx context.Context, listings []*listing.Listing, at time.Time) (string, error)
}

// Cleanup removes expired sessions and verification tokens.
func Cleanup(cleaners map[string]Cleaner) JobFunc {
	return func(ctx context.Context) error {
		var errs []error
		for what, c := range cleaners {
			n, err := c.Cleanup(ctx)
			if err != nil {
				errs = append(errs, fmt.Errorf("cleaning %s: %w", what, err))
				continue
			}
			if n > 0 {
				slog.Info("expired rows removed", "kind", what, "count", n)
			}
		}
		return errors.Join(errs...)
	}
}

// ExpireSubscriptions deactivates subscriptions past their end date.
func ExpireSubscriptions(accounts Expirer, now func() time.Time) JobFunc {
	return func(ctx context.Context) error {
		n, err := accounts.DeactivateExpired(ctx, now().UTC())
		if err != nil {
			return fmt.Errorf("deactivating subscriptions: %w", err)
		}
		if n > 0 {
			slog.Info("subscriptions expired", "count", n)
		}
		return nil
	}
}

// ExportCatalogue writes every verified listing through w.
func ExportCatalogue(listings ListingFinder, w CatalogueWriter, now func() time.Time) JobFunc {
	return func(ctx context.Context) error {
		found, err := listings.List(ctx, listing.Query{State: listing.StateVerified, Sort: listing.SortNewest})
		if err != nil {
			return fmt.Errorf("listing catalogue: %w", err)
		}
		if _, err := w.WriteCatalogue(ctx, found, now()); err != nil {
			return fmt.Errorf("exporting catalogue: %w", err)
		}
		return nil
	}
}
