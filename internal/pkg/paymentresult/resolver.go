package paymentresult

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/dreambrush/portal/internal/pkg/billing"
)

// Kind is the terminal outcome of one result-page visit.
type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "SUCCESS"
	case KindFailure:
		return "FAILURE"
	default:
		return "ERROR"
	}
}

// Outcome is what a result page renders. Each visit is independent and
// idempotent; resolving the same order code twice yields the same outcome.
type Outcome struct {
	Kind    Kind
	Title   string
	Message string
	Payment *billing.PaymentInfo
}

// MissingOrderCodeTitle is rendered when the provider redirect carries no
// usable order code. No network call is made in that case.
const MissingOrderCodeTitle = "Invalid payment link - missing order code"

// Policy names, per result page, which payment statuses count as the happy
// branch and whether a missing payment record is acceptable. Cancelled and
// failed checkouts may never have been registered with the provider, so
// those pages treat not-found as fine instead of surfacing an error.
type Policy struct {
	Name                     string
	HappyStatuses            []billing.PaymentStatus
	MissingPaymentAcceptable bool
	// RefreshSubscription re-fetches the user's subscription on the happy
	// branch so the rest of the portal observes the new tier.
	RefreshSubscription bool
}

func (p Policy) happy(status billing.PaymentStatus) bool {
	for _, s := range p.HappyStatuses {
		if s == status {
			return true
		}
	}
	return false
}

var (
	// PolicyPaymentSuccess: plain checkout success page.
	PolicyPaymentSuccess = Policy{
		Name:                "payment-success",
		HappyStatuses:       []billing.PaymentStatus{billing.PaymentStatusPaid},
		RefreshSubscription: true,
	}
	// PolicyUpgradeSuccess: upgrade checkout success page.
	PolicyUpgradeSuccess = Policy{
		Name:                "upgrade-success",
		HappyStatuses:       []billing.PaymentStatus{billing.PaymentStatusPaid},
		RefreshSubscription: true,
	}
	// PolicyPaymentFailed: the user lands here after a failed checkout.
	PolicyPaymentFailed = Policy{
		Name:                     "payment-failed",
		HappyStatuses:            []billing.PaymentStatus{billing.PaymentStatusFailed, billing.PaymentStatusExpired},
		MissingPaymentAcceptable: true,
	}
	// PolicyPaymentCancelled: the user aborted the external checkout.
	PolicyPaymentCancelled = Policy{
		Name:                     "payment-cancelled",
		HappyStatuses:            []billing.PaymentStatus{billing.PaymentStatusCancelled},
		MissingPaymentAcceptable: true,
	}
)

// PaymentReader is the single backend call a result page depends on.
type PaymentReader interface {
	GetPaymentInfo(ctx context.Context, orderCode int64) (*billing.PaymentInfo, error)
}

// SubscriptionReader re-fetches the authoritative subscription after a paid
// checkout.
type SubscriptionReader interface {
	GetUserSubscription(ctx context.Context, userID uint) (*billing.Subscription, error)
}

// Deps carries everything a resolution needs, injected per request.
type Deps struct {
	Payments      PaymentReader
	Subscriptions SubscriptionReader
	// UserID is zero for anonymous visits; the subscription refresh only
	// runs when a session user is present.
	UserID uint
	// RefreshTier updates the session copy of the user's tier.
	RefreshTier func(tier billing.Tier)
	// Logf records secondary-fetch failures; they never demote the outcome.
	Logf func(format string, args ...interface{})
}

func (d Deps) logf(format string, args ...interface{}) {
	if d.Logf != nil {
		d.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// ParseOrderCode parses the orderCode query parameter. An absent or
// non-numeric value is a guard error detected before any network call.
func ParseOrderCode(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Resolve maps one result-page visit to its terminal outcome. The shape is
// identical across pages; only the policy differs.
func Resolve(ctx context.Context, deps Deps, rawOrderCode string, policy Policy) Outcome {
	orderCode, ok := ParseOrderCode(rawOrderCode)
	if !ok {
		return Outcome{
			Kind:    KindError,
			Title:   MissingOrderCodeTitle,
			Message: "The redirect from the payment provider did not include a valid order code.",
		}
	}

	info, err := deps.Payments.GetPaymentInfo(ctx, orderCode)
	if err != nil {
		if policy.MissingPaymentAcceptable && billing.IsNotFound(err) {
			// A cancelled or failed payment may never have been registered
			// with the provider. That is acceptable on this page.
			return Outcome{
				Kind:    KindSuccess,
				Title:   "Payment not completed",
				Message: "No payment was recorded for this checkout.",
			}
		}
		return Outcome{
			Kind:    KindError,
			Title:   "Could not load payment status",
			Message: err.Error(),
		}
	}

	if !policy.happy(info.Status) {
		// Show the actual provider status, not a generic message.
		return Outcome{
			Kind:    KindFailure,
			Title:   "Payment status: " + string(info.Status),
			Message: "The payment did not reach the expected state.",
			Payment: info,
		}
	}

	if policy.RefreshSubscription && deps.UserID != 0 && deps.Subscriptions != nil {
		sub, err := deps.Subscriptions.GetUserSubscription(ctx, deps.UserID)
		switch {
		case err != nil:
			deps.logf("paymentresult: subscription refresh failed for user %d: %v", deps.UserID, err)
		case sub != nil && deps.RefreshTier != nil:
			deps.RefreshTier(sub.Tier)
		}
	}

	return Outcome{
		Kind:    KindSuccess,
		Title:   "Payment confirmed",
		Message: "Your payment has been processed.",
		Payment: info,
	}
}
