package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dreambrush/portal/internal/pkg/billing"
	"github.com/dreambrush/portal/internal/pkg/entitlements"
	"github.com/dreambrush/portal/internal/pkg/usercontext"
)

// HandleGetAccount returns the session copy of the signed-in account plus
// its generation entitlements and, when present, the backend subscription.
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	client := requestClient(c)

	var plans []billing.Plan
	if p, err := client.ListPlans(c.Context()); err == nil {
		plans = p
	}
	daily, monthly := entitlements.GenerationQuotas(plans, userCtx.Tier)

	response := fiber.Map{
		"id":       userCtx.UserID,
		"username": userCtx.Username,
		"email":    userCtx.Email,
		"tier":     userCtx.Tier,
		"entitlements": fiber.Map{
			"daily_generations":   daily.String(),
			"monthly_generations": monthly.String(),
			"priority_queue":      entitlements.AllowsPriorityQueue(userCtx.Tier),
			"history_export":      entitlements.AllowsHistoryExport(userCtx.Tier),
			"can_upgrade":         entitlements.CanUpgrade(userCtx.Tier),
		},
	}

	sub, err := client.GetUserSubscription(c.Context(), userCtx.UserID)
	if err != nil {
		return jsonError(c, apiErrorStatus(err), "subscription_unavailable", err.Error())
	}
	if sub != nil {
		response["subscription"] = fiber.Map{
			"id":                sub.ID,
			"tier":              sub.Tier,
			"status":            sub.Status,
			"billing_cycle":     sub.BillingCycle,
			"price":             sub.Price.Int64(),
			"currency":          sub.Currency,
			"auto_renew":        sub.AutoRenew,
			"start_date":        formatTimePtr(sub.StartDate),
			"next_billing_date": formatTimePtr(sub.NextBillingDate),
		}
	}

	return c.JSON(response)
}
