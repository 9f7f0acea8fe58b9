package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tier is a subscription level. Tiers are totally ordered:
// FREE < BASIC < PREMIUM.
type Tier string

const (
	TierFree    Tier = "FREE"
	TierBasic   Tier = "BASIC"
	TierPremium Tier = "PREMIUM"
)

// ParseTier normalizes arbitrary backend input to a known tier.
// Unknown values map to FREE.
func ParseTier(s string) Tier {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(TierBasic):
		return TierBasic
	case string(TierPremium):
		return TierPremium
	default:
		return TierFree
	}
}

// Rank returns the position of the tier in the total order.
func (t Tier) Rank() int {
	switch t {
	case TierPremium:
		return 2
	case TierBasic:
		return 1
	default:
		return 0
	}
}

// Above reports whether t is strictly greater than other.
func (t Tier) Above(other Tier) bool {
	return t.Rank() > other.Rank()
}

func (t *Tier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseTier(s)
	return nil
}

// Cycle is the billing recurrence of a subscription.
type Cycle string

const (
	CycleMonthly Cycle = "MONTHLY"
	CycleYearly  Cycle = "YEARLY"
)

// ParseCycle normalizes backend input to a known cycle, defaulting to monthly.
func ParseCycle(s string) Cycle {
	if strings.ToUpper(strings.TrimSpace(s)) == string(CycleYearly) {
		return CycleYearly
	}
	return CycleMonthly
}

// Subscription statuses as defined by the backend. The portal never flips a
// status locally; it always re-fetches.
const (
	SubscriptionStatusActive    = "ACTIVE"
	SubscriptionStatusPending   = "PENDING"
	SubscriptionStatusCancelled = "CANCELLED"
	SubscriptionStatusExpired   = "EXPIRED"
	SubscriptionStatusSuspended = "SUSPENDED"
)

// PaymentStatus is the provider-side state of one checkout attempt.
// A payment is immutable once it leaves PENDING.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
)

func (s *PaymentStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return nil
}

// FlexInt accepts a JSON number or a numeric string and normalizes to int64
// at the API boundary, so call sites never branch on the wire type.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// Some backend responses serialize prices as decimal strings.
			fv, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return fmt.Errorf("invalid numeric value %q: %w", s, err)
			}
			*f = FlexInt(int64(fv))
			return nil
		}
		*f = FlexInt(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = FlexInt(int64(v))
	return nil
}

func (f FlexInt) Int64() int64 {
	return int64(f)
}

// Quota is a generation allowance. Unlimited is distinct from a zero limit.
// The backend encodes unlimited as -1, null or the string "unlimited".
type Quota struct {
	Limit     int64
	Unlimited bool
}

// LimitedQuota builds a bounded quota.
func LimitedQuota(limit int64) Quota {
	return Quota{Limit: limit}
}

// UnlimitedQuota builds an unbounded quota.
func UnlimitedQuota() Quota {
	return Quota{Unlimited: true}
}

func (q *Quota) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*q = UnlimitedQuota()
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(s), "unlimited") {
			*q = UnlimitedQuota()
			return nil
		}
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quota value %q", s)
		}
		if v < 0 {
			*q = UnlimitedQuota()
			return nil
		}
		*q = LimitedQuota(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v < 0 {
		*q = UnlimitedQuota()
		return nil
	}
	*q = LimitedQuota(v)
	return nil
}

func (q Quota) MarshalJSON() ([]byte, error) {
	if q.Unlimited {
		return []byte(`"unlimited"`), nil
	}
	return json.Marshal(q.Limit)
}

func (q Quota) String() string {
	if q.Unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(q.Limit, 10)
}

// Plan is one entry of the read-only plan catalog.
type Plan struct {
	ID           uint     `json:"id"`
	Name         string   `json:"name"`
	Tier         Tier     `json:"tier"`
	MonthlyPrice FlexInt  `json:"monthlyPrice"`
	YearlyPrice  FlexInt  `json:"yearlyPrice"`
	Currency     string   `json:"currency"`
	DailyQuota   Quota    `json:"dailyGenerationLimit"`
	MonthlyQuota Quota    `json:"monthlyGenerationLimit"`
	Features     []string `json:"features"`
	IsActive     bool     `json:"isActive"`
}

// Subscription mirrors the backend's subscription row. The portal only ever
// holds a read copy of it.
type Subscription struct {
	ID              uint       `json:"id"`
	UserID          uint       `json:"userId"`
	Tier            Tier       `json:"tier"`
	Status          string     `json:"status"`
	BillingCycle    Cycle      `json:"billingCycle"`
	Price           FlexInt    `json:"price"`
	Currency        string     `json:"currency"`
	AutoRenew       bool       `json:"autoRenew"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	NextBillingDate *time.Time `json:"nextBillingDate,omitempty"`
}

// PaymentInfo is the provider-side record of one checkout attempt, looked up
// by its numeric order code.
type PaymentInfo struct {
	OrderCode       int64         `json:"orderCode"`
	Amount          FlexInt       `json:"amount"`
	Currency        string        `json:"currency"`
	Description     string        `json:"description"`
	Status          PaymentStatus `json:"status"`
	TransactionTime *time.Time    `json:"transactionDateTime,omitempty"`
	Reference       string        `json:"reference,omitempty"`
}

// Terminal reports whether the payment can no longer change state.
func (p *PaymentInfo) Terminal() bool {
	return p.Status != PaymentStatusPending
}

// CheckoutDescriptor is the provider handle returned when a payment link is
// created. It is everything needed to send the user to the external checkout.
type CheckoutDescriptor struct {
	CheckoutURL   string `json:"checkoutUrl"`
	PaymentLinkID string `json:"paymentLinkId"`
	QRCode        string `json:"qrCode,omitempty"`
	OrderCode     int64  `json:"orderCode,omitempty"`
}
