package billing

import (
	"encoding/json"
	"testing"
)

func TestFlexIntUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{in: `5000000`, want: 5000000},
		{in: `"5000000"`, want: 5000000},
		{in: `"2000000.00"`, want: 2000000},
		{in: `0`, want: 0},
		{in: `""`, want: 0},
		{in: `null`, want: 0},
	}

	for _, tt := range tests {
		var f FlexInt
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if f.Int64() != tt.want {
			t.Fatalf("FlexInt(%s) = %d, want %d", tt.in, f.Int64(), tt.want)
		}
	}

	var f FlexInt
	if err := json.Unmarshal([]byte(`"not a number"`), &f); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}

func TestQuotaUnmarshal(t *testing.T) {
	tests := []struct {
		in        string
		limit     int64
		unlimited bool
	}{
		{in: `50`, limit: 50},
		{in: `0`, limit: 0},
		{in: `"100"`, limit: 100},
		{in: `-1`, unlimited: true},
		{in: `null`, unlimited: true},
		{in: `"unlimited"`, unlimited: true},
	}

	for _, tt := range tests {
		var q Quota
		if err := json.Unmarshal([]byte(tt.in), &q); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if q.Unlimited != tt.unlimited || (!q.Unlimited && q.Limit != tt.limit) {
			t.Fatalf("Quota(%s) = %+v, want limit=%d unlimited=%v", tt.in, q, tt.limit, tt.unlimited)
		}
	}
}

func TestQuotaDistinguishesZeroFromUnlimited(t *testing.T) {
	zero := LimitedQuota(0)
	if zero.Unlimited {
		t.Fatalf("a zero quota must not be unlimited")
	}
	if UnlimitedQuota().String() != "unlimited" {
		t.Fatalf("unexpected unlimited rendering: %s", UnlimitedQuota().String())
	}
	if zero.String() != "0" {
		t.Fatalf("unexpected zero rendering: %s", zero.String())
	}
}

func TestPaymentStatusNormalization(t *testing.T) {
	var p PaymentInfo
	raw := []byte(`{"orderCode": 42, "amount": "150000", "status": "paid"}`)
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != PaymentStatusPaid {
		t.Fatalf("status = %q, want %q", p.Status, PaymentStatusPaid)
	}
	if p.Amount.Int64() != 150000 {
		t.Fatalf("amount = %d, want 150000", p.Amount.Int64())
	}
	if !p.Terminal() {
		t.Fatalf("a PAID payment is terminal")
	}

	pending := PaymentInfo{Status: PaymentStatusPending}
	if pending.Terminal() {
		t.Fatalf("a PENDING payment is not terminal")
	}
}
