package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/zllovesuki/scribe/backend"
	resp "github.com/zllovesuki/scribe/response"
	"github.com/zllovesuki/scribe/user"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate *validator.Validate = validator.New()

// UserResolver resolves user records and persists new customer ids on them
type UserResolver interface {
	Resolve(ctx context.Context, uid string) (*user.Record, error)
	AttachCustomer(ctx context.Context, uid string, customerID string) error
}

// CustomerReconciler maps a resolved record to its Stripe customer id
type CustomerReconciler interface {
	Reconcile(ctx context.Context, rec *user.Record) (string, bool, error)
}

// Options contains the configuration for the Service router
type Options struct {
	Users        UserResolver
	Customers    CustomerReconciler
	Checkout     *Manager
	RedirectBase string
	Logger       *zap.Logger
}

// Service is the subscription provisioning API router
type Service struct {
	Options
}

// NewService will create an instance of the subscription API router
func NewService(option Options) (*Service, error) {
	if option.Users == nil {
		return nil, fmt.Errorf("nil Users is invalid")
	}
	if option.Customers == nil {
		return nil, fmt.Errorf("nil Customers is invalid")
	}
	if option.Checkout == nil {
		return nil, fmt.Errorf("nil Checkout is invalid")
	}
	if len(option.RedirectBase) == 0 {
		return nil, fmt.Errorf("empty RedirectBase is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		Options: option,
	}, nil
}

// CreateCheckoutRequest is the model of the checkout provisioning request
type CreateCheckoutRequest struct {
	UserID string `json:"userId" validate:"required"`
	PlanID string `json:"planId" validate:"required"`
}

// CreateCheckoutResponse carries the single-use redirect URL
type CreateCheckoutResponse struct {
	URL string `json:"url"`
}

func (s *Service) createCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("userId and planId are required"))
		return
	}

	logger := s.Logger.With(
		zap.String("UID", req.UserID),
		zap.String("PlanID", req.PlanID),
	)

	// reject an unknown plan before any store or provider work
	if _, ok := s.Checkout.GetDefinedPlanByID(req.PlanID); !ok {
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("Unknown plan"))
		return
	}

	rec, err := s.Users.Resolve(ctx, req.UserID)
	switch {
	case errors.Is(err, user.ErrInvalidUID):
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("userId and planId are required"))
		return
	case errors.Is(err, user.ErrNotFound):
		resp.WriteError(w, r, resp.ErrNotFound().AddMessages("No user record found"))
		return
	case errors.Is(err, user.ErrInvalidRecord):
		logger.Error("User record has no usable email",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected())
		return
	case errors.Is(err, backend.ErrConfigurationMissing):
		logger.Error("Backend is not configured",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected())
		return
	case err != nil:
		logger.Error("Unable to resolve user record",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected())
		return
	}

	customerID, created, err := s.Customers.Reconcile(ctx, rec)
	if err != nil {
		logger.Error("Unable to reconcile Stripe customer",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected())
		return
	}

	// a newly minted customer id must be durable on the user record before
	// the checkout call, so the webhook can always attribute the payment
	if created {
		if err := s.Users.AttachCustomer(ctx, req.UserID, customerID); err != nil {
			logger.Error("Unable to persist customer id on user record",
				zap.String("CustomerID", customerID),
				zap.Error(err),
			)
			resp.WriteError(w, r, resp.ErrUnexpected())
			return
		}
	}

	sess, err := s.Checkout.CreateCheckoutSession(ctx, CreateSessionOptions{
		CustomerID:   customerID,
		UID:          req.UserID,
		PlanID:       req.PlanID,
		RedirectBase: s.RedirectBase,
	})
	switch {
	case errors.Is(err, ErrInvalidPlan):
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("Unknown plan"))
		return
	case errors.Is(err, backend.ErrConfigurationMissing):
		logger.Error("Checkout is not configured",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected())
		return
	case err != nil:
		resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Unable to start checkout"))
		return
	}

	resp.WriteResponse(w, r, CreateCheckoutResponse{
		URL: sess.URL,
	})
}

func (s *Service) listPlans(w http.ResponseWriter, r *http.Request) {
	resp.WriteResponse(w, r, s.Checkout.ListDefinedPlans())
}

// Router will return the routes under the subscription API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/plans", s.listPlans)
	r.Post("/create-checkout", s.createCheckout)

	return r
}
