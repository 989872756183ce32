package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrConfigurationMissing signals that the privileged backend cannot be used
// because project identity or service credentials were not provided. This is
// an operational misconfiguration, not a user error.
var ErrConfigurationMissing = errors.New("backend: project identity or service credentials are not configured")

// State describes the lifecycle of the Handle
type State int

// Defining constants
const (
	StateUninitialized State = iota
	StateReady
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateDegraded:
		return "Degraded"
	default:
		return "Uninitialized"
	}
}

// Options provides initialization parameters for the Handle
type Options struct {
	ProjectID       string
	CredentialsFile string
	Logger          *zap.Logger
}

// Handle is the process-wide holder of the privileged backend clients
// (document store and identity-provider administration). Construction of the
// underlying clients is deferred until first use and happens at most once;
// after that the Handle is read-only and safe for concurrent use.
//
// When configuration is missing, the Handle is Degraded: accessors uniformly
// fail with ErrConfigurationMissing instead of crashing at construction, so
// code paths that never reach the backend are unaffected.
type Handle struct {
	Options

	construct func(ctx context.Context) (*firestore.Client, *fbauth.Client, error)

	once    sync.Once
	mu      sync.RWMutex
	state   State
	initErr error
	store   *firestore.Client
	admin   *fbauth.Client
}

// New will return a Handle without performing any network I/O. Missing
// configuration degrades the Handle instead of returning an error.
func New(option Options) (*Handle, error) {
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	h := &Handle{
		Options: option,
	}
	h.construct = h.defaultConstruct
	if len(option.ProjectID) == 0 || len(option.CredentialsFile) == 0 {
		option.Logger.Warn("Backend credentials are not configured, handle is degraded",
			zap.String("ProjectID", option.ProjectID),
		)
		h.state = StateDegraded
		h.initErr = ErrConfigurationMissing
	}
	return h, nil
}

func (h *Handle) defaultConstruct(ctx context.Context) (*firestore.Client, *fbauth.Client, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID: h.ProjectID,
	}, option.WithCredentialsFile(h.CredentialsFile))
	if err != nil {
		return nil, nil, err
	}
	store, err := app.Firestore(ctx)
	if err != nil {
		return nil, nil, err
	}
	admin, err := app.Auth(ctx)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, admin, nil
}

// init performs the construction exactly once under concurrent first access.
// A failed construction leaves the Handle degraded with the cause retained.
func (h *Handle) init(ctx context.Context) error {
	h.once.Do(func() {
		h.mu.RLock()
		degraded := h.state == StateDegraded
		h.mu.RUnlock()
		if degraded {
			return
		}
		store, admin, err := h.construct(ctx)
		h.mu.Lock()
		defer h.mu.Unlock()
		if err != nil {
			h.Logger.Error("Cannot construct backend clients",
				zap.Error(err),
			)
			h.state = StateDegraded
			h.initErr = extErrors.Wrap(err, "Cannot construct backend clients")
			return
		}
		h.store = store
		h.admin = admin
		h.state = StateReady
	})
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.initErr
}

// State returns the current lifecycle state of the Handle
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Firestore returns the memoized document store client, constructing it on
// first use
func (h *Handle) Firestore(ctx context.Context) (*firestore.Client, error) {
	if err := h.init(ctx); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store, nil
}

// Auth returns the memoized identity-provider administration client,
// constructing it on first use
func (h *Handle) Auth(ctx context.Context) (*fbauth.Client, error) {
	if err := h.init(ctx); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.admin, nil
}

// Close releases the document store client if it was ever constructed
func (h *Handle) Close() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.store == nil {
		return nil
	}
	return h.store.Close()
}
