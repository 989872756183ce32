package external

import (
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// NewStripeClient returns a dedicated API client so call sites never depend
// on the package-level stripe key
func NewStripeClient(key string) *client.API {
	stripe.SetAppInfo(&stripe.AppInfo{
		Name: "scribe",
		URL:  "https://github.com/zllovesuki/scribe",
	})
	sc := &client.API{}
	sc.Init(key, nil)
	return sc
}
