package subscription

// Defined plan identifiers
const (
	PlanPremium       = "premium"
	PlanPremiumYearly = "premium-yearly"
)

// PriceIDs carries the configured Stripe Price identifier for each defined
// plan. Prices are created out-of-band on the Stripe dashboard; an empty id
// means the plan is not provisioned in this environment.
type PriceIDs struct {
	Premium       string
	PremiumYearly string
}

// Plan describes a purchasable tier backed by a Stripe Price
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Interval    string `json:"interval"` // Billing frequency (e.g. month)
	PriceID     string `json:"-"`        // Corresponds to Stripe's Price ID, never shown to the client
}

func definedPlans(prices PriceIDs) []Plan {
	return []Plan{
		{
			ID:          PlanPremium,
			Name:        "Premium",
			Description: "Unlimited entries and full writing insights, billed monthly",
			Interval:    "month",
			PriceID:     prices.Premium,
		},
		{
			ID:          PlanPremiumYearly,
			Name:        "Premium (yearly)",
			Description: "Unlimited entries and full writing insights, two months free",
			Interval:    "year",
			PriceID:     prices.PremiumYearly,
		},
	}
}
