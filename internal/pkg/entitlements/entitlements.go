package entitlements

import (
	"github.com/dreambrush/portal/internal/pkg/billing"
)

// Fallback generation allowances per tier, used when the plan catalog is
// unreachable. The catalog values win whenever a plan is available.
func defaultQuotas(tier billing.Tier) (daily, monthly billing.Quota) {
	switch tier {
	case billing.TierPremium:
		return billing.UnlimitedQuota(), billing.UnlimitedQuota()
	case billing.TierBasic:
		return billing.LimitedQuota(50), billing.LimitedQuota(1000)
	default:
		return billing.LimitedQuota(5), billing.LimitedQuota(100)
	}
}

// GenerationQuotas returns the daily and monthly image-generation allowances
// for a tier, preferring the catalog entry when present.
func GenerationQuotas(plans []billing.Plan, tier billing.Tier) (daily, monthly billing.Quota) {
	if p := billing.FindPlanByTier(plans, tier); p != nil {
		return p.DailyQuota, p.MonthlyQuota
	}
	return defaultQuotas(tier)
}

// CanUpgrade reports whether any paid tier sits strictly above the current one.
func CanUpgrade(tier billing.Tier) bool {
	return billing.TierPremium.Above(tier)
}

// AllowsPriorityQueue reports whether generation requests for a tier skip the
// shared queue.
func AllowsPriorityQueue(tier billing.Tier) bool {
	return tier == billing.TierPremium
}

// AllowsHistoryExport reports whether the tier may export chat/image history.
func AllowsHistoryExport(tier billing.Tier) bool {
	return tier.Rank() >= billing.TierBasic.Rank()
}
