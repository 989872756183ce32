package user

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Options contains the configuration for the Manager
type Options struct {
	Store     Store
	Directory Directory
	Logger    *zap.Logger
}

// Manager resolves user records from the external store
type Manager struct {
	Options
}

// NewManager returns a new Manager for user records
func NewManager(option Options) (*Manager, error) {
	if option.Store == nil {
		return nil, fmt.Errorf("nil Store is invalid")
	}
	if option.Directory == nil {
		return nil, fmt.Errorf("nil Directory is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Manager{
		Options: option,
	}, nil
}

// Resolve will look up the record for uid. An existing but email-less
// document is recovered via the identity provider before giving up with
// ErrInvalidRecord, since the provider is the system of record for email.
func (m *Manager) Resolve(ctx context.Context, uid string) (*Record, error) {
	if len(uid) == 0 {
		return nil, ErrInvalidUID
	}
	rec, err := m.Store.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(rec.Email) == 0 {
		email, err := m.Directory.Email(ctx, uid)
		if err != nil {
			m.Logger.Error("Cannot recover email from identity provider",
				zap.String("UID", uid),
				zap.Error(err),
			)
			return nil, err
		}
		if len(email) == 0 {
			return nil, ErrInvalidRecord
		}
		m.Logger.Info("Recovered email from identity provider",
			zap.String("UID", uid),
		)
		rec.Email = email
	}
	return rec, nil
}

// AttachCustomer durably attaches a newly created customer id to the user
// record so subsequent requests reuse it
func (m *Manager) AttachCustomer(ctx context.Context, uid string, customerID string) error {
	if len(uid) == 0 {
		return ErrInvalidUID
	}
	if len(customerID) == 0 {
		return fmt.Errorf("empty customerID is invalid")
	}
	if err := m.Store.SetCustomerID(ctx, uid, customerID); err != nil {
		m.Logger.Error("Cannot persist customer id on user record",
			zap.String("UID", uid),
			zap.String("CustomerID", customerID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
