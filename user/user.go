package user

import "errors"

// Defined failure conditions for record resolution. Transport failures are
// returned as wrapped causes, never as one of these.
var (
	ErrInvalidUID    = errors.New("user: empty uid is invalid")
	ErrNotFound      = errors.New("user: no record exists for uid")
	ErrInvalidRecord = errors.New("user: record has no usable email")
)

// Record is the profile document describing a product user. The document is
// owned by the external store; this is a transient per-request view.
type Record struct {
	UID              string `json:"uid" firestore:"-"`                           // Corresponds to the identity provider's uid, which is the document ID
	Email            string `json:"email" firestore:"email"`                     // Required for customer creation
	StripeCustomerID string `json:"stripeCustomerId" firestore:"stripeCustomerId"` // Set once when a Stripe customer is first created, stable afterwards
}
