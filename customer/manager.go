package customer

import (
	"context"
	"fmt"

	"github.com/zllovesuki/scribe/user"

	extErrors "github.com/pkg/errors"
	"github.com/stripe/stripe-go/v72"
	"go.uber.org/zap"
)

// MetadataUIDKey is the Stripe-side metadata tag linking a customer back to
// the identity provider's uid, for support and webhook attribution.
const MetadataUIDKey = "firebaseUID"

// API is the slice of the Stripe customers API the Manager uses
type API interface {
	New(params *stripe.CustomerParams) (*stripe.Customer, error)
}

// ManagerOptions contains the configuration for the Manager
type ManagerOptions struct {
	Customers API
	Logger    *zap.Logger
}

// Manager reconciles user records with Stripe customers, keeping at most one
// customer per user record
type Manager struct {
	ManagerOptions
}

// NewManager returns a new Manager for customer reconciliation
func NewManager(option ManagerOptions) (*Manager, error) {
	if option.Customers == nil {
		return nil, fmt.Errorf("nil Customers API is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Manager{
		ManagerOptions: option,
	}, nil
}

// Reconcile returns the Stripe customer id for a resolved record. A cached id
// is returned verbatim without a provider call; otherwise a customer is
// created with the record's email and a uid metadata tag, and created=true
// signals that the caller must persist the new id on the record.
//
// Check-then-create is not guarded by a lock: two concurrent requests for the
// same user with no cached id can each create a customer. The window is
// accepted since the provider-side effect cannot be rolled back together with
// the store write; every creation is logged with the uid so duplicates stay
// traceable through the metadata tag.
func (m *Manager) Reconcile(ctx context.Context, rec *user.Record) (string, bool, error) {
	if rec == nil {
		return "", false, fmt.Errorf("nil Record is invalid")
	}
	if len(rec.StripeCustomerID) > 0 {
		return rec.StripeCustomerID, false, nil
	}
	if len(rec.Email) == 0 {
		return "", false, fmt.Errorf("Record without email is invalid")
	}

	params := &stripe.CustomerParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Email: stripe.String(rec.Email),
	}
	params.AddMetadata(MetadataUIDKey, rec.UID)

	c, err := m.Customers.New(params)
	if err != nil {
		m.Logger.Error("Stripe returned error",
			zap.String("UID", rec.UID),
			zap.Error(err),
		)
		return "", false, extErrors.Wrap(err, "Cannot create a new Customer")
	}

	m.Logger.Info("Created new Stripe customer",
		zap.String("UID", rec.UID),
		zap.String("CustomerID", c.ID),
	)

	return c.ID, true, nil
}
