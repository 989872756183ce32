package subscription_test

import (
	"context"
	"testing"

	"github.com/zllovesuki/scribe/backend"
	"github.com/zllovesuki/scribe/subscription"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
	"go.uber.org/zap/zaptest"
)

type fakeSessionAPI struct {
	calls  int
	params []*stripe.CheckoutSessionParams
	err    error
	onNew  func()
}

func (f *fakeSessionAPI) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.calls++
	f.params = append(f.params, params)
	if f.onNew != nil {
		f.onNew()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{
		ID:  "cs_test_1",
		URL: "https://checkout.stripe.com/c/pay/cs_test_1",
	}, nil
}

func testPrices() subscription.PriceIDs {
	return subscription.PriceIDs{
		Premium:       "price_premium",
		PremiumYearly: "price_premium_yearly",
	}
}

func newCheckoutManager(t *testing.T, sessions *fakeSessionAPI, prices subscription.PriceIDs) *subscription.Manager {
	t.Helper()
	m, err := subscription.NewManager(subscription.ManagerOptions{
		Sessions: sessions,
		Prices:   prices,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return m
}

func TestDefinedPlans(t *testing.T) {
	t.Parallel()

	m := newCheckoutManager(t, &fakeSessionAPI{}, testPrices())

	plans := m.ListDefinedPlans()
	require.Len(t, plans, 2)

	premium, ok := m.GetDefinedPlanByID(subscription.PlanPremium)
	require.True(t, ok)
	assert.Equal(t, "month", premium.Interval)
	assert.Equal(t, "price_premium", premium.PriceID)

	_, ok = m.GetDefinedPlanByID("enterprise")
	assert.False(t, ok)
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Parallel()

	base := "https://app.scribeworks.io"

	t.Run("builds one subscription-mode session with the full contract", func(t *testing.T) {
		t.Parallel()
		sessions := &fakeSessionAPI{}
		m := newCheckoutManager(t, sessions, testPrices())

		sess, err := m.CreateCheckoutSession(context.Background(), subscription.CreateSessionOptions{
			CustomerID:   "cus_123",
			UID:          "u1",
			PlanID:       subscription.PlanPremium,
			RedirectBase: base,
		})
		require.NoError(t, err)
		assert.Equal(t, "cs_test_1", sess.ID)
		assert.NotEmpty(t, sess.URL)

		require.Equal(t, 1, sessions.calls)
		params := sessions.params[0]

		require.NotNil(t, params.Mode)
		assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), *params.Mode)

		require.NotNil(t, params.Customer)
		assert.Equal(t, "cus_123", *params.Customer)

		require.Len(t, params.LineItems, 1)
		assert.Equal(t, "price_premium", *params.LineItems[0].Price)
		assert.EqualValues(t, 1, *params.LineItems[0].Quantity)

		require.NotNil(t, params.SuccessURL)
		assert.Equal(t, base+"/subscribe/success?session_id={CHECKOUT_SESSION_ID}", *params.SuccessURL)
		require.NotNil(t, params.CancelURL)
		assert.Equal(t, base+"/subscribe/cancelled", *params.CancelURL)

		assert.Equal(t, "u1", params.Metadata["firebaseUID"])
		assert.Equal(t, subscription.PlanPremium, params.Metadata[subscription.MetadataPlanKey])
	})

	t.Run("rejects an unknown plan before any provider call", func(t *testing.T) {
		t.Parallel()
		sessions := &fakeSessionAPI{}
		m := newCheckoutManager(t, sessions, testPrices())

		_, err := m.CreateCheckoutSession(context.Background(), subscription.CreateSessionOptions{
			CustomerID:   "cus_123",
			UID:          "u1",
			PlanID:       "enterprise",
			RedirectBase: base,
		})
		assert.ErrorIs(t, err, subscription.ErrInvalidPlan)
		assert.Zero(t, sessions.calls)
	})

	t.Run("fails loudly when the plan has no configured price", func(t *testing.T) {
		t.Parallel()
		sessions := &fakeSessionAPI{}
		m := newCheckoutManager(t, sessions, subscription.PriceIDs{})

		_, err := m.CreateCheckoutSession(context.Background(), subscription.CreateSessionOptions{
			CustomerID:   "cus_123",
			UID:          "u1",
			PlanID:       subscription.PlanPremium,
			RedirectBase: base,
		})
		assert.ErrorIs(t, err, backend.ErrConfigurationMissing)
		assert.Zero(t, sessions.calls)
	})

	t.Run("surfaces a provider rejection without retrying", func(t *testing.T) {
		t.Parallel()
		sessions := &fakeSessionAPI{
			err: &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such price"},
		}
		m := newCheckoutManager(t, sessions, testPrices())

		_, err := m.CreateCheckoutSession(context.Background(), subscription.CreateSessionOptions{
			CustomerID:   "cus_123",
			UID:          "u1",
			PlanID:       subscription.PlanPremium,
			RedirectBase: base,
		})
		assert.Error(t, err)
		assert.Equal(t, 1, sessions.calls)
	})
}
