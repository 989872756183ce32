package user

import (
	"context"
	"fmt"

	"github.com/zllovesuki/scribe/backend"

	"cloud.google.com/go/firestore"
	extErrors "github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usersCollection = "users"

const customerIDField = "stripeCustomerId"

// FirestoreStore implements Store on top of the backend document store
type FirestoreStore struct {
	backend *backend.Handle
}

// NewFirestoreStore returns a Store reading user documents from Firestore
func NewFirestoreStore(handle *backend.Handle) (*FirestoreStore, error) {
	if handle == nil {
		return nil, fmt.Errorf("nil backend Handle is invalid")
	}
	return &FirestoreStore{
		backend: handle,
	}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, uid string) (*Record, error) {
	client, err := s.backend.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := client.Collection(usersCollection).Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot read user record")
	}
	rec := &Record{
		UID: uid,
	}
	if err := snap.DataTo(rec); err != nil {
		return nil, extErrors.Wrap(err, "Malformed user record")
	}
	return rec, nil
}

func (s *FirestoreStore) SetCustomerID(ctx context.Context, uid string, customerID string) error {
	client, err := s.backend.Firestore(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(usersCollection).Doc(uid).Update(ctx, []firestore.Update{
		{Path: customerIDField, Value: customerID},
	})
	if err != nil {
		return extErrors.Wrap(err, "Cannot attach customer id to user record")
	}
	return nil
}

// FirebaseDirectory implements Directory against the identity provider's
// administration API
type FirebaseDirectory struct {
	backend *backend.Handle
}

// NewFirebaseDirectory returns a Directory backed by Firebase Auth
func NewFirebaseDirectory(handle *backend.Handle) (*FirebaseDirectory, error) {
	if handle == nil {
		return nil, fmt.Errorf("nil backend Handle is invalid")
	}
	return &FirebaseDirectory{
		backend: handle,
	}, nil
}

func (d *FirebaseDirectory) Email(ctx context.Context, uid string) (string, error) {
	admin, err := d.backend.Auth(ctx)
	if err != nil {
		return "", err
	}
	u, err := admin.GetUser(ctx, uid)
	if err != nil {
		return "", extErrors.Wrap(err, "Cannot look up user with the identity provider")
	}
	return u.Email, nil
}
