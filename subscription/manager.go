package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/zllovesuki/scribe/backend"
	"github.com/zllovesuki/scribe/customer"

	extErrors "github.com/pkg/errors"
	"github.com/stripe/stripe-go/v72"
	"go.uber.org/zap"
)

// ErrInvalidPlan signals that the requested plan id is not defined. This is a
// caller error, not a provider failure.
var ErrInvalidPlan = errors.New("subscription: unknown plan")

// Metadata key carried on the Checkout Session so the webhook can attribute
// the payment event without a second store lookup.
const MetadataPlanKey = "planId"

// Redirect paths appended to the configured base URL. Stripe substitutes the
// session token into the success target at redirect time.
const (
	successPath = "/subscribe/success?session_id={CHECKOUT_SESSION_ID}"
	cancelPath  = "/subscribe/cancelled"
)

// SessionAPI is the slice of the Stripe Checkout Sessions API the Manager uses
type SessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// ManagerOptions contains the configuration for the Manager
type ManagerOptions struct {
	Sessions SessionAPI
	Prices   PriceIDs
	Logger   *zap.Logger
}

// Manager holds the defined plans and opens Checkout Sessions against them
type Manager struct {
	ManagerOptions
	planArray      []Plan
	planIDIndexMap map[string]int
}

// NewManager returns a new Manager for checkout sessions
func NewManager(option ManagerOptions) (*Manager, error) {
	if option.Sessions == nil {
		return nil, fmt.Errorf("nil Sessions API is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}

	plans := definedPlans(option.Prices)
	planMap := make(map[string]int)
	for index, p := range plans {
		planMap[p.ID] = index + 1
	}

	return &Manager{
		ManagerOptions: option,
		planArray:      plans,
		planIDIndexMap: planMap,
	}, nil
}

// ListDefinedPlans returns the plans available for purchase
func (m *Manager) ListDefinedPlans() []Plan {
	return m.planArray
}

// GetDefinedPlanByID returns a defined Plan, and whether it exists
func (m *Manager) GetDefinedPlanByID(planID string) (Plan, bool) {
	index := m.planIDIndexMap[planID]
	if index == 0 {
		return Plan{}, false
	}
	return m.planArray[index-1], true
}

// CreateSessionOptions specifies the subscription to open a Checkout Session for
type CreateSessionOptions struct {
	CustomerID   string
	UID          string
	PlanID       string
	RedirectBase string
}

// CheckoutSession is the single-use provider-hosted payment flow reference
// returned to the caller. It is never persisted here.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// CreateCheckoutSession opens exactly one subscription-mode Checkout Session
// for the given customer and plan. Creation is not idempotent on the Stripe
// side, so failures are surfaced instead of retried.
func (m *Manager) CreateCheckoutSession(ctx context.Context, opt CreateSessionOptions) (*CheckoutSession, error) {
	if len(opt.CustomerID) == 0 {
		return nil, fmt.Errorf("CreateSessionOptions.CustomerID is required")
	}
	if len(opt.UID) == 0 {
		return nil, fmt.Errorf("CreateSessionOptions.UID is required")
	}
	if len(opt.RedirectBase) == 0 {
		return nil, fmt.Errorf("CreateSessionOptions.RedirectBase is required")
	}

	plan, ok := m.GetDefinedPlanByID(opt.PlanID)
	if !ok {
		return nil, ErrInvalidPlan
	}
	if len(plan.PriceID) == 0 {
		m.Logger.Error("Plan has no Stripe price configured",
			zap.String("PlanID", plan.ID),
		)
		return nil, backend.ErrConfigurationMissing
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Customer: stripe.String(opt.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(plan.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(opt.RedirectBase + successPath),
		CancelURL:  stripe.String(opt.RedirectBase + cancelPath),
	}
	params.AddMetadata(customer.MetadataUIDKey, opt.UID)
	params.AddMetadata(MetadataPlanKey, opt.PlanID)

	sess, err := m.Sessions.New(params)
	if err != nil {
		m.Logger.Error("Unable to create Checkout Session in Stripe",
			zap.String("UID", opt.UID),
			zap.String("PlanID", opt.PlanID),
			zap.Error(err),
		)
		return nil, extErrors.Wrap(err, "Cannot create Checkout Session")
	}

	return &CheckoutSession{
		ID:  sess.ID,
		URL: sess.URL,
	}, nil
}
