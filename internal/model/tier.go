package model

import "strings"

type Tier string

const (
	TierStandard   Tier = "standard"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

func (t Tier) String() string { return string(t) }

// ParseTier normalizes input.
// Returns (value, true) if valid; otherwise ("", false).
func ParseTier(s string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierStandard:
		return TierStandard, true
	case TierPremium:
		return TierPremium, true
	case TierEnterprise:
		return TierEnterprise, true
	default:
		return "", false
	}
}

func (t Tier) Valid() bool {
	return t == TierStandard || t == TierPremium || t == TierEnterprise
}
