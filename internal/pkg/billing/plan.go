package billing

import "sort"

// PriceFor returns the plan's price for the given billing cycle.
func PriceFor(p Plan, cycle Cycle) int64 {
	if cycle == CycleYearly {
		return p.YearlyPrice.Int64()
	}
	return p.MonthlyPrice.Int64()
}

// FindPlanByTier returns the catalog entry for a tier, or nil.
func FindPlanByTier(plans []Plan, tier Tier) *Plan {
	for i := range plans {
		if plans[i].Tier == tier {
			return &plans[i]
		}
	}
	return nil
}

// UpgradeDelta computes the amount to charge when moving from the current
// tier to the target tier on the given cycle, floored at zero.
func UpgradeDelta(plans []Plan, current, target Tier, cycle Cycle) int64 {
	var currentPrice, targetPrice int64
	if p := FindPlanByTier(plans, current); p != nil {
		currentPrice = PriceFor(*p, cycle)
	}
	if p := FindPlanByTier(plans, target); p != nil {
		targetPrice = PriceFor(*p, cycle)
	}
	delta := targetPrice - currentPrice
	if delta < 0 {
		return 0
	}
	return delta
}

// UpgradeTargets returns the active plans whose tier is strictly above the
// current tier, ordered by ascending tier rank. The current tier and lower
// tiers are never offered.
func UpgradeTargets(plans []Plan, current Tier) []Plan {
	var targets []Plan
	for _, p := range plans {
		if p.IsActive && p.Tier.Above(current) {
			targets = append(targets, p)
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].Tier.Rank() < targets[j].Tier.Rank()
	})
	return targets
}
