package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dreambrush/portal/internal/pkg/env"
)

const defaultAPIBaseURL = "http://localhost:8080"

// PaymentProviderPayOS is the only payment provider the portal talks to.
const PaymentProviderPayOS = "payos"

// APIError wraps any non-2xx backend response with a human-readable message.
type APIError struct {
	Status  int
	Op      string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status=%d message=%s", e.Op, e.Status, e.Message)
}

// NotFound reports whether the backend answered 404. Immediately after a
// provider redirect a missing payment record can be transient, so callers
// must be able to tell this case apart.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsNotFound reports whether err is an APIError with a 404 status.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.NotFound()
}

// Client issues authenticated REST calls against the platform backend.
// It performs no retries and no caching; every call attaches the bearer
// token it was bound to and normalizes failures into APIError.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	token string
	// onUnauthorized fires once per 401 response. It is the single shared
	// hook for the global clear-session-and-relogin side effect.
	onUnauthorized func()
}

// NewClientFromEnv builds a client against API_BASE_URL, falling back to the
// local development backend when unset.
func NewClientFromEnv() *Client {
	base := env.APIBaseURL()
	if base == "" {
		base = defaultAPIBaseURL
	}
	return &Client{
		BaseURL: base,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClient builds a client against an explicit base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithToken returns a shallow copy bound to the given bearer token. The
// session owns the token; the client only reads it.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = strings.TrimSpace(token)
	return &cp
}

// WithUnauthorizedHook returns a shallow copy that invokes fn whenever the
// backend answers 401.
func (c *Client) WithUnauthorizedHook(fn func()) *Client {
	cp := *c
	cp.onUnauthorized = fn
	return &cp
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, op, fallback string) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Status:  resp.StatusCode,
			Op:      op,
			Message: extractMessage(raw, fallback),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

// extractMessage pulls the backend's message field out of an error body,
// falling back to a generic per-operation string. Both bare and
// data-enveloped bodies occur in the wild.
func extractMessage(raw []byte, fallback string) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if m := strings.TrimSpace(envelope.Message); m != "" {
			return m
		}
		if m := strings.TrimSpace(envelope.Error); m != "" {
			return m
		}
	}
	return fallback
}

// ListPlans fetches the active plan catalog.
func (c *Client) ListPlans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	err := c.do(ctx, http.MethodGet, "/api/v1/plans/active", nil, &plans, "list plans", "failed to load plans")
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// CreateSubscriptionInput is the body for the create-subscription call.
// UserID must be a positive integer resolved by the caller.
type CreateSubscriptionInput struct {
	UserID          uint   `json:"userId"`
	Tier            Tier   `json:"tier"`
	BillingCycle    Cycle  `json:"billingCycle"`
	PaymentProvider string `json:"paymentProvider"`
	AutoRenew       bool   `json:"autoRenew"`
}

// CreateSubscription creates a pending subscription row on the backend.
func (c *Client) CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (*Subscription, error) {
	if in.UserID == 0 {
		return nil, errors.New("create subscription: user id is required")
	}
	if in.PaymentProvider == "" {
		in.PaymentProvider = PaymentProviderPayOS
	}
	var sub Subscription
	err := c.do(ctx, http.MethodPost, "/api/v1/subscriptions", in, &sub, "create subscription", "failed to create subscription")
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetUserSubscription fetches the user's current subscription. A 404 means
// the user has no subscription and is returned as (nil, nil).
func (c *Client) GetUserSubscription(ctx context.Context, userID uint) (*Subscription, error) {
	if userID == 0 {
		return nil, errors.New("get subscription: user id is required")
	}
	var sub Subscription
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/subscriptions/user/%d", userID), nil, &sub, "get subscription", "failed to load subscription")
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// CreatePaymentLinkInput is the body for a plain checkout link.
// Price is the exact integer amount in the provider's smallest currency
// unit; the client performs no rounding correction.
type CreatePaymentLinkInput struct {
	UserID         uint   `json:"userId"`
	SubscriptionID *uint  `json:"subscriptionId,omitempty"`
	ProductName    string `json:"productName"`
	Description    string `json:"description"`
	Price          int64  `json:"price"`
	BuyerEmail     string `json:"buyerEmail"`
}

// CreatePaymentLink asks the provider for a checkout link.
func (c *Client) CreatePaymentLink(ctx context.Context, in CreatePaymentLinkInput) (*CheckoutDescriptor, error) {
	var cd CheckoutDescriptor
	err := c.do(ctx, http.MethodPost, "/api/v2/payments/payos/create-payment-link", in, &cd, "create payment link", "failed to create payment link")
	if err != nil {
		return nil, err
	}
	return &cd, nil
}

// CreateUpgradePaymentInput is the body for an upgrade checkout link.
type CreateUpgradePaymentInput struct {
	UserID        uint   `json:"userId"`
	CurrentTier   Tier   `json:"currentTier"`
	NewTier       Tier   `json:"newTier"`
	UpgradeAmount int64  `json:"upgradeAmount"`
	BuyerEmail    string `json:"buyerEmail"`
	ReturnURL     string `json:"returnUrl"`
	CancelURL     string `json:"cancelUrl"`
}

// CreateUpgradePaymentLink asks the provider for an upgrade checkout link
// carrying the computed upgrade delta.
func (c *Client) CreateUpgradePaymentLink(ctx context.Context, in CreateUpgradePaymentInput) (*CheckoutDescriptor, error) {
	var cd CheckoutDescriptor
	err := c.do(ctx, http.MethodPost, "/api/v2/payments/payos/create-upgrade-payment", in, &cd, "create upgrade payment", "failed to create upgrade payment link")
	if err != nil {
		return nil, err
	}
	return &cd, nil
}

// GetPaymentInfo fetches the provider-side payment record by order code.
// A 404 is returned as an APIError whose NotFound method reports true;
// right after a redirect it may be transient, not permanent.
func (c *Client) GetPaymentInfo(ctx context.Context, orderCode int64) (*PaymentInfo, error) {
	if orderCode <= 0 {
		return nil, errors.New("get payment info: order code must be positive")
	}
	var info PaymentInfo
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v2/payments/payos/payment-info/%d", orderCode), nil, &info, "get payment info", "failed to load payment info")
	if err != nil {
		return nil, err
	}
	return &info, nil
}
