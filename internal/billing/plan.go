package billing

import (
	"sort"
	"time"
)

// Plan is a purchasable subscription.
type Plan struct {
	ID      string `json:"id"`
	PriceID string `json:"price_id"`
	Months  int    `json:"months"`
}

// End returns when a subscription started at start runs out.
func (p Plan) End(start time.Time) time.Time {
	return start.AddDate(0, p.Months, 0)
}

// PlansFromPrices builds the catalogue from a plan id to Stripe price id map.
// Plans named annuel, annual or yearly last twelve months, all others one.
func PlansFromPrices(prices map[string]string) []Plan {
	plans := make([]Plan, 0, len(prices))
	for id, price := range prices {
		months := 1
		switch id {
		case "annuel", "annual", "yearly":
			months = 12
		}
		plans = append(plans, Plan{ID: id, PriceID: price, Months: months})
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	return plans
}
