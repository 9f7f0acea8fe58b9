package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dreambrush/portal/internal/pkg/billing"
	"github.com/dreambrush/portal/internal/pkg/paymentresult"
	"github.com/dreambrush/portal/internal/pkg/session"
	"github.com/dreambrush/portal/internal/pkg/usercontext"
)

// The payment provider redirects the browser to these pages with
// ?orderCode=<number> appended. Each page reads only that parameter.

func resolveResult(c *fiber.Ctx, policy paymentresult.Policy) paymentresult.Outcome {
	client := requestClient(c)
	deps := paymentresult.Deps{
		Payments:      client,
		Subscriptions: client,
		UserID:        usercontext.GetUserID(c),
		RefreshTier: func(tier billing.Tier) {
			// After a paid checkout the whole session principal is stale,
			// not just the tier. Re-fetch the account when the backend is
			// reachable; otherwise patch the tier from the subscription.
			if u, err := client.Me(c.Context()); err == nil {
				_ = session.SignIn(c, u, session.Token(c))
				return
			}
			_ = session.UpdateTier(c, tier)
		},
	}
	return paymentresult.Resolve(c.Context(), deps, c.Query("orderCode"), policy)
}

func renderResult(c *fiber.Ctx, policy paymentresult.Policy, outcome paymentresult.Outcome) error {
	data := fiber.Map{
		"Page":    policy.Name,
		"Kind":    outcome.Kind.String(),
		"Title":   outcome.Title,
		"Message": outcome.Message,
	}
	if outcome.Payment != nil {
		data["Amount"] = outcome.Payment.Amount.Int64()
		data["Currency"] = outcome.Payment.Currency
		data["OrderCode"] = outcome.Payment.OrderCode
		data["Status"] = string(outcome.Payment.Status)
		data["TransactionTime"] = formatTimePtr(outcome.Payment.TransactionTime)
	}
	return c.Render("payment_result", data)
}

// HandlePaymentSuccess resolves /payment/success.
func HandlePaymentSuccess(c *fiber.Ctx) error {
	return renderResult(c, paymentresult.PolicyPaymentSuccess, resolveResult(c, paymentresult.PolicyPaymentSuccess))
}

// HandlePaymentFailed resolves /payment/failed. A missing payment record is
// acceptable here: a failed checkout may never have been registered.
func HandlePaymentFailed(c *fiber.Ctx) error {
	return renderResult(c, paymentresult.PolicyPaymentFailed, resolveResult(c, paymentresult.PolicyPaymentFailed))
}

// HandlePaymentCancel resolves /payment/cancel with the same missing-record
// tolerance as the failed page.
func HandlePaymentCancel(c *fiber.Ctx) error {
	return renderResult(c, paymentresult.PolicyPaymentCancelled, resolveResult(c, paymentresult.PolicyPaymentCancelled))
}

// HandleUpgradeSuccess resolves /upgrade/success and refreshes the session
// tier so the rest of the portal observes the upgrade.
func HandleUpgradeSuccess(c *fiber.Ctx) error {
	return renderResult(c, paymentresult.PolicyUpgradeSuccess, resolveResult(c, paymentresult.PolicyUpgradeSuccess))
}
