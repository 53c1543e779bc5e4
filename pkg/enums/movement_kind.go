package enums

import "fmt"

// MovementKind classifies an entry in the stock movement log.
type MovementKind string

const (
	MovementKindSale      MovementKind = "SALE"
	MovementKindReturn    MovementKind = "RETURN"
	MovementKindRestock   MovementKind = "RESTOCK"
	MovementKindManualIn  MovementKind = "MANUAL_IN"
	MovementKindManualOut MovementKind = "MANUAL_OUT"
)

var validMovementKinds = []MovementKind{
	MovementKindSale,
	MovementKindReturn,
	MovementKindRestock,
	MovementKindManualIn,
	MovementKindManualOut,
}

// String implements fmt.Stringer.
func (k MovementKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known MovementKind.
func (k MovementKind) IsValid() bool {
	for _, candidate := range validMovementKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsInbound reports whether the kind increases stock on hand.
func (k MovementKind) IsInbound() bool {
	switch k {
	case MovementKindReturn, MovementKindRestock, MovementKindManualIn:
		return true
	}
	return false
}

// ParseMovementKind converts raw input into a MovementKind.
func ParseMovementKind(value string) (MovementKind, error) {
	for _, candidate := range validMovementKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement kind %q", value)
}
