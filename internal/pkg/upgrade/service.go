package upgrade

import (
	"context"
	"fmt"

	"github.com/dreambrush/portal/internal/pkg/billing"
)

// BillingAPI is the slice of the backend client the wizard needs. Tests
// substitute a scripted fake.
type BillingAPI interface {
	ListPlans(ctx context.Context) ([]billing.Plan, error)
	CreateSubscription(ctx context.Context, in billing.CreateSubscriptionInput) (*billing.Subscription, error)
	CreateUpgradePaymentLink(ctx context.Context, in billing.CreateUpgradePaymentInput) (*billing.CheckoutDescriptor, error)
}

// Service drives a wizard against the billing backend. It owns no state of
// its own; the wizard travels through it and back into the session.
type Service struct {
	api BillingAPI
	// publicDomain is the portal origin the provider redirects back to.
	publicDomain string
}

func NewService(api BillingAPI, publicDomain string) *Service {
	return &Service{api: api, publicDomain: publicDomain}
}

// ConfirmAndPay executes the CONFIRM -> PAY side effect: create the pending
// subscription, then request the upgrade payment link, strictly in that
// order. If either call fails the wizard stays in CONFIRM and the error is
// returned for inline display; no retry happens here and no compensating
// call is made for an already-created subscription. Duplicate-submission
// protection is the caller's job: the handler persists InFlight before
// invoking this, so the flag is already set on the wizard it passes in.
func (s *Service) ConfirmAndPay(ctx context.Context, w *Wizard, user *billing.User) error {
	if w.State != StateConfirm {
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, EventPaymentCreated, w.State)
	}

	// The payment link requires the subscription row to exist, so the two
	// calls are sequential, never concurrent.
	if _, err := s.api.CreateSubscription(ctx, billing.CreateSubscriptionInput{
		UserID:          user.ID,
		Tier:            w.TargetTier,
		BillingCycle:    w.Cycle,
		PaymentProvider: billing.PaymentProviderPayOS,
		AutoRenew:       true,
	}); err != nil {
		return err
	}

	cd, err := s.api.CreateUpgradePaymentLink(ctx, billing.CreateUpgradePaymentInput{
		UserID:        user.ID,
		CurrentTier:   w.CurrentTier,
		NewTier:       w.TargetTier,
		UpgradeAmount: w.Delta,
		BuyerEmail:    user.Email,
		ReturnURL:     s.publicDomain + "/upgrade/success",
		CancelURL:     s.publicDomain + "/payment/cancel",
	})
	if err != nil {
		// The pending subscription is left for the backend to expire.
		return err
	}

	return w.AttachCheckout(cd)
}
