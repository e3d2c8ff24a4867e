package enums

import "fmt"

// SellerTier classifies sellers for commission overrides and routing.
type SellerTier string

const (
	SellerTierNew      SellerTier = "new"
	SellerTierStandard SellerTier = "standard"
	SellerTierPremium  SellerTier = "premium"
)

var validSellerTiers = []SellerTier{
	SellerTierNew,
	SellerTierStandard,
	SellerTierPremium,
}

// String implements fmt.Stringer.
func (s SellerTier) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SellerTier.
func (s SellerTier) IsValid() bool {
	for _, candidate := range validSellerTiers {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSellerTier converts raw input into a SellerTier.
func ParseSellerTier(value string) (SellerTier, error) {
	for _, candidate := range validSellerTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller tier %q", value)
}
