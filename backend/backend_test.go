package backend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"cloud.google.com/go/firestore"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewRequiresLogger(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestDegradedWithoutConfiguration(t *testing.T) {
	h, err := New(Options{
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	assert.Equal(t, StateDegraded, h.State())

	_, err = h.Firestore(context.Background())
	assert.ErrorIs(t, err, ErrConfigurationMissing)

	_, err = h.Auth(context.Background())
	assert.ErrorIs(t, err, ErrConfigurationMissing)

	// degraded without ever constructing, nothing to release
	assert.NoError(t, h.Close())
}

func TestDegradedWithPartialConfiguration(t *testing.T) {
	h, err := New(Options{
		ProjectID: "scribe-demo",
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	assert.Equal(t, StateDegraded, h.State())

	_, err = h.Firestore(context.Background())
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestConstructionHappensAtMostOnce(t *testing.T) {
	h, err := New(Options{
		ProjectID:       "scribe-demo",
		CredentialsFile: "testdata/service-account.json",
		Logger:          zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	assert.Equal(t, StateUninitialized, h.State())

	var calls int64
	h.construct = func(ctx context.Context) (*firestore.Client, *fbauth.Client, error) {
		atomic.AddInt64(&calls, 1)
		return nil, nil, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Firestore(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))
	assert.Equal(t, StateReady, h.State())

	// the auth accessor reuses the same construction
	_, err = h.Auth(context.Background())
	assert.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))
}

func TestConstructionFailureIsSticky(t *testing.T) {
	h, err := New(Options{
		ProjectID:       "scribe-demo",
		CredentialsFile: "testdata/service-account.json",
		Logger:          zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	var calls int64
	h.construct = func(ctx context.Context) (*firestore.Client, *fbauth.Client, error) {
		atomic.AddInt64(&calls, 1)
		return nil, nil, fmt.Errorf("credential file is not a valid service account")
	}

	_, err = h.Firestore(context.Background())
	require.Error(t, err)

	_, err = h.Auth(context.Background())
	require.Error(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))
	assert.Equal(t, StateDegraded, h.State())
}
