package email

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/betna-immo/betna/internal/listing"
	"github.com/betna-immo/betna/internal/visit"
)

// FormatPrice renders an FCFA amount with space-grouped thousands: "150 000 FCFA".
func FormatPrice(n int64) string {
	s := fmt.Sprintf("%d", n)
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

// ApprovalBody is the mail sent to an owner when a listing is verified.
func ApprovalBody(ownerName string, l *listing.Listing, baseURL string) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Bonjour %s,\n\n", ownerName)
	fmt.Fprintf(&buf, "Votre annonce « %s » a été vérifiée et apparaît maintenant dans le catalogue.\n\n", l.Title)
	writeListing(&buf, l.Title, l.Location, l.Price)
	fmt.Fprintf(&buf, "   %s/api/listings/%s\n\n", strings.TrimRight(baseURL, "/"), l.ID)
	fmt.Fprintf(&buf, "L'équipe Betna Immo\n")

	return buf.String()
}

// VisitRequestBody is the mail sent to an owner when someone asks for a visit.
func VisitRequestBody(requester string, v *visit.Request) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Bonjour,\n\n%s souhaite visiter votre bien le %s.\n\n", requester, v.VisitDate)
	writeListing(&buf, v.Title, v.Location, v.Price)
	if v.Note != "" {
		fmt.Fprintf(&buf, "   Message : %s\n", v.Note)
	}
	fmt.Fprintf(&buf, "\nConfirmez ou annulez la demande avec : betna visit confirm %s\n", v.ID)

	return buf.String()
}

func writeListing(buf *bytes.Buffer, title, location string, price int64) {
	fmt.Fprintf(buf, "   %s\n", title)
	var details []string
	if location != "" {
		details = append(details, location)
	}
	details = append(details, FormatPrice(price))
	fmt.Fprintf(buf, "   %s\n", strings.Join(details, " | "))
}
