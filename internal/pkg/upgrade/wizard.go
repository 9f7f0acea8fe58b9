package upgrade

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dreambrush/portal/internal/pkg/billing"
)

// State is one step of the upgrade flow. The flow is strictly linear:
// SELECT_PLAN -> CONFIRM -> PAY -> COMPLETE. No step is skippable and no
// backward transition exists once a payment link has been created; the only
// way out is cancelling, which destroys the wizard entirely.
type State int

const (
	StateSelectPlan State = iota
	StateConfirm
	StatePay
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateSelectPlan:
		return "SELECT_PLAN"
	case StateConfirm:
		return "CONFIRM"
	case StatePay:
		return "PAY"
	case StateComplete:
		return "COMPLETE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event is an input to the wizard's transition function.
type Event int

const (
	// EventTierSelected carries a valid target tier out of plan selection.
	EventTierSelected Event = iota
	// EventPaymentCreated records that subscription and payment link exist.
	EventPaymentCreated
	// EventPaymentConfirmed is the user's manual "I've completed payment".
	EventPaymentConfirmed
)

func (e Event) String() string {
	switch e {
	case EventTierSelected:
		return "TIER_SELECTED"
	case EventPaymentCreated:
		return "PAYMENT_CREATED"
	case EventPaymentConfirmed:
		return "PAYMENT_CONFIRMED"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// ErrInvalidTransition rejects any (state, event) pair the flow forbids.
var ErrInvalidTransition = errors.New("invalid wizard transition")

var (
	ErrNoUpgradeTarget = errors.New("selected tier is not an upgrade from the current tier")
	ErrUnknownTier     = errors.New("selected tier has no active plan")
	ErrMissingCheckout = errors.New("payment cannot complete without a checkout descriptor")
	ErrPaymentInFlight = errors.New("a payment request is already in flight")
)

// Transition is the wizard's pure transition function. It returns the next
// state, or ErrInvalidTransition wrapped with the offending pair.
func Transition(s State, e Event) (State, error) {
	switch {
	case s == StateSelectPlan && e == EventTierSelected:
		return StateConfirm, nil
	case s == StateConfirm && e == EventPaymentCreated:
		return StatePay, nil
	case s == StatePay && e == EventPaymentConfirmed:
		return StateComplete, nil
	default:
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
	}
}

// Wizard is the transient per-session state of one upgrade attempt. It is
// serialized into the session between requests and destroyed on cancel.
type Wizard struct {
	ID          string                      `json:"id"`
	State       State                       `json:"state"`
	CurrentTier billing.Tier                `json:"current_tier"`
	TargetTier  billing.Tier                `json:"target_tier,omitempty"`
	Cycle       billing.Cycle               `json:"cycle,omitempty"`
	Delta       int64                       `json:"delta"`
	Checkout    *billing.CheckoutDescriptor `json:"checkout,omitempty"`
	InFlight    bool                        `json:"in_flight"`
	StartedAt   time.Time                   `json:"started_at"`
}

// NewWizard opens a fresh wizard for a user currently on the given tier.
// All fields start at their initial values.
func NewWizard(currentTier billing.Tier) *Wizard {
	return &Wizard{
		ID:          uuid.NewString(),
		State:       StateSelectPlan,
		CurrentTier: currentTier,
		StartedAt:   time.Now(),
	}
}

// SelectPlan validates the target against the catalog and moves the wizard
// to CONFIRM. The target must be strictly above the current tier; the delta
// is computed from the catalog and floored at zero.
func (w *Wizard) SelectPlan(plans []billing.Plan, target billing.Tier, cycle billing.Cycle) error {
	if !target.Above(w.CurrentTier) {
		return ErrNoUpgradeTarget
	}
	plan := billing.FindPlanByTier(plans, target)
	if plan == nil || !plan.IsActive {
		return ErrUnknownTier
	}
	next, err := Transition(w.State, EventTierSelected)
	if err != nil {
		return err
	}
	w.TargetTier = target
	w.Cycle = cycle
	w.Delta = billing.UpgradeDelta(plans, w.CurrentTier, target, cycle)
	w.State = next
	return nil
}

// AttachCheckout records the provider checkout descriptor and moves the
// wizard to PAY. A nil descriptor is rejected, which keeps the PAY state
// unreachable without one.
func (w *Wizard) AttachCheckout(cd *billing.CheckoutDescriptor) error {
	if cd == nil || cd.CheckoutURL == "" {
		return ErrMissingCheckout
	}
	next, err := Transition(w.State, EventPaymentCreated)
	if err != nil {
		return err
	}
	w.Checkout = cd
	w.State = next
	return nil
}

// ConfirmPayment applies the user's manual "I've completed payment" and
// moves the wizard to COMPLETE. The wizard does not poll the provider; this
// is an optimistic transition and the backend remains the authority on
// whether the payment actually settled.
func (w *Wizard) ConfirmPayment() error {
	if w.Checkout == nil {
		return ErrMissingCheckout
	}
	next, err := Transition(w.State, EventPaymentConfirmed)
	if err != nil {
		return err
	}
	w.State = next
	return nil
}

// Done reports whether the wizard reached its terminal state.
func (w *Wizard) Done() bool {
	return w.State == StateComplete
}
