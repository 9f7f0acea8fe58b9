package controllers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dreambrush/portal/internal/pkg/billing"
	"github.com/dreambrush/portal/internal/pkg/cache"
	"github.com/dreambrush/portal/internal/pkg/usercontext"
)

const (
	planCatalogCacheKey = "plans:catalog"
	planCatalogCacheTTL = 5 * time.Minute
)

// loadPlanCatalog returns the active plan catalog, preferring the short
// redis cache. The billing client itself never caches; this layer does.
func loadPlanCatalog(ctx context.Context, client *billing.Client) ([]billing.Plan, error) {
	if raw, err := cache.Get(planCatalogCacheKey); err == nil && raw != "" {
		var plans []billing.Plan
		if err := json.Unmarshal([]byte(raw), &plans); err == nil {
			return plans, nil
		}
	}

	plans, err := client.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(plans); err == nil {
		_ = cache.Set(planCatalogCacheKey, string(raw), planCatalogCacheTTL)
	}
	return plans, nil
}

// HandlePricingPage renders the plan catalog with the viewer's upgrade
// options marked.
func HandlePricingPage(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	plans, err := loadPlanCatalog(c.Context(), requestClient(c))
	if err != nil {
		return c.Status(apiErrorStatus(err)).Render("pricing", fiber.Map{
			"Error": err.Error(),
		})
	}

	return c.Render("pricing", fiber.Map{
		"Plans":       plans,
		"CurrentTier": userCtx.Tier,
		"Targets":     billing.UpgradeTargets(plans, userCtx.Tier),
		"LoggedIn":    userCtx.IsLoggedIn,
	})
}

// HandleListPlans returns the catalog as JSON for the chat UI.
func HandleListPlans(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	plans, err := loadPlanCatalog(c.Context(), requestClient(c))
	if err != nil {
		return jsonError(c, apiErrorStatus(err), "plans_unavailable", err.Error())
	}

	targets := billing.UpgradeTargets(plans, userCtx.Tier)
	targetTiers := make([]billing.Tier, 0, len(targets))
	for _, t := range targets {
		targetTiers = append(targetTiers, t.Tier)
	}

	return c.JSON(fiber.Map{
		"plans":           plans,
		"current_tier":    userCtx.Tier,
		"upgrade_targets": targetTiers,
	})
}
