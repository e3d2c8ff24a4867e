package enums

import "fmt"

// ProductUnit is the measurement basis a catalog product is sold in.
type ProductUnit string

const (
	ProductUnitWeight ProductUnit = "weight"
	ProductUnitVolume ProductUnit = "volume"
	ProductUnitPiece  ProductUnit = "piece"
	ProductUnitPack   ProductUnit = "pack"
)

var validProductUnits = []ProductUnit{
	ProductUnitWeight,
	ProductUnitVolume,
	ProductUnitPiece,
	ProductUnitPack,
}

// String implements fmt.Stringer.
func (p ProductUnit) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductUnit.
func (p ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	for _, candidate := range validProductUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}

// PaymentMethod is how the buyer pays for an order.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	return p == PaymentMethodCOD || p == PaymentMethodOnline
}
