package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListPlansAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Free","tier":"FREE","monthlyPrice":0,"yearlyPrice":0,"currency":"VND","isActive":true}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL).WithToken("tok-123")
	plans, err := client.ListPlans(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
	if len(plans) != 1 || plans[0].Tier != TierFree {
		t.Fatalf("unexpected plans: %+v", plans)
	}
}

func TestAPIErrorMessageFromBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"tier not purchasable from current tier"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.CreateSubscription(context.Background(), CreateSubscriptionInput{
		UserID:       7,
		Tier:         TierPremium,
		BillingCycle: CycleMonthly,
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "tier not purchasable from current tier", apiErr.Message)
}

func TestAPIErrorFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`oops`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.ListPlans(context.Background())
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Message != "failed to load plans" {
		t.Fatalf("message = %q, want per-operation fallback", apiErr.Message)
	}
}

func TestGetUserSubscriptionNotFoundMeansNoSubscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"no subscription"}`))
	}))
	defer srv.Close()

	sub, err := NewClient(srv.URL).GetUserSubscription(context.Background(), 42)
	if err != nil {
		t.Fatalf("404 must map to no subscription, got error: %v", err)
	}
	if sub != nil {
		t.Fatalf("expected nil subscription, got %+v", sub)
	}
}

func TestGetPaymentInfoNotFoundIsDistinguishable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetPaymentInfo(context.Background(), 42)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsNotFound(err) {
		t.Fatalf("expected a distinguishable not-found error, got %v", err)
	}
}

func TestUnauthorizedHookFiresOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()

	fired := 0
	client := NewClient(srv.URL).WithToken("stale").WithUnauthorizedHook(func() {
		fired++
	})

	_, err := client.ListPlans(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if fired != 1 {
		t.Fatalf("unauthorized hook fired %d times, want 1", fired)
	}

	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
}

func TestCreateSubscriptionRequiresUserID(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateSubscription(context.Background(), CreateSubscriptionInput{
		Tier:         TierBasic,
		BillingCycle: CycleMonthly,
	})
	if err == nil {
		t.Fatalf("expected error for missing user id")
	}
	if calls != 0 {
		t.Fatalf("no request must be issued for invalid input, got %d calls", calls)
	}
}

func TestCreatePaymentLink(t *testing.T) {
	var gotBody CreatePaymentLinkInput
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/payments/payos/create-payment-link" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"checkoutUrl":"https://pay.example/c/2","paymentLinkId":"pl_2","qrCode":"data:qr","orderCode":9002}`))
	}))
	defer srv.Close()

	cd, err := NewClient(srv.URL).CreatePaymentLink(context.Background(), CreatePaymentLinkInput{
		UserID:      7,
		ProductName: "DreamBrush Basic",
		Description: "Monthly subscription",
		Price:       2000000,
		BuyerEmail:  "mai@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody.UserID != 7 || gotBody.Price != 2000000 || gotBody.ProductName != "DreamBrush Basic" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
	assert.Equal(t, "https://pay.example/c/2", cd.CheckoutURL)
	assert.Equal(t, "pl_2", cd.PaymentLinkID)
	assert.Equal(t, int64(9002), cd.OrderCode)
}

func TestCreateUpgradePaymentLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/payments/payos/create-upgrade-payment" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"checkoutUrl":"https://pay.example/c/1","paymentLinkId":"pl_1","orderCode":9001}`))
	}))
	defer srv.Close()

	cd, err := NewClient(srv.URL).CreateUpgradePaymentLink(context.Background(), CreateUpgradePaymentInput{
		UserID:        7,
		CurrentTier:   TierFree,
		NewTier:       TierPremium,
		UpgradeAmount: 5000000,
		ReturnURL:     "https://portal.example/upgrade/success",
		CancelURL:     "https://portal.example/payment/cancel",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, "https://pay.example/c/1", cd.CheckoutURL)
	assert.Equal(t, "pl_1", cd.PaymentLinkID)
	assert.Equal(t, int64(9001), cd.OrderCode)
}
