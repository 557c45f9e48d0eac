package mockapi

import (
	"math"
	"sort"

	"anycomp/internal/domain"
)

// Price derives the platform fee and final price of basePrice from the fee
// tiers. A tier covers [minValue, maxValue); the highest tier also covers
// its maxValue and anything above it. Below every tier no fee applies.
func Price(tiers []domain.PlatformFee, basePrice float64) (fee, final float64) {
	if len(tiers) == 0 || basePrice <= 0 {
		return 0, roundCents(basePrice)
	}

	sorted := append([]domain.PlatformFee(nil), tiers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinValue < sorted[j].MinValue })

	var tier *domain.PlatformFee
	for i := range sorted {
		t := &sorted[i]
		last := i == len(sorted)-1
		if basePrice >= t.MinValue && (basePrice < t.MaxValue || last) {
			tier = t
			break
		}
	}
	if tier == nil {
		return 0, roundCents(basePrice)
	}

	fee = roundCents(basePrice * tier.PlatformFeePercentage / 100)
	return fee, roundCents(basePrice + fee)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// DefaultTiers are the tiers installed by the seed command.
func DefaultTiers() []domain.PlatformFee {
	return []domain.PlatformFee{
		{TierName: domain.TierBasic, MinValue: 0, MaxValue: 500, PlatformFeePercentage: 20},
		{TierName: domain.TierStandard, MinValue: 500, MaxValue: 2000, PlatformFeePercentage: 15},
		{TierName: domain.TierPremium, MinValue: 2000, MaxValue: 10000, PlatformFeePercentage: 10},
		{TierName: domain.TierEnterprise, MinValue: 10000, MaxValue: 1000000, PlatformFeePercentage: 5},
	}
}

func overlaps(tiers []domain.PlatformFee, f domain.PlatformFee) bool {
	for _, t := range tiers {
		if (f.ID != "" && t.ID == f.ID) || t.TierName == f.TierName {
			continue
		}
		if f.MinValue < t.MaxValue && t.MinValue < f.MaxValue {
			return true
		}
	}
	return false
}
