package user

import "context"

// Store is the slice of the external document store that record resolution
// needs: one read per request, plus the single write attaching a newly
// created customer id.
type Store interface {
	// Get returns the record for uid, or ErrNotFound if no document exists
	Get(ctx context.Context, uid string) (*Record, error)
	// SetCustomerID attaches the Stripe customer id to the user document
	SetCustomerID(ctx context.Context, uid string, customerID string) error
}

// Directory looks up attributes held by the identity provider. Used as a
// fallback when the profile document carries no email.
type Directory interface {
	Email(ctx context.Context, uid string) (string, error)
}
