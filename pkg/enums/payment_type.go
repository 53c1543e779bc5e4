package enums

import "fmt"

// PaymentType is a recorded label only; no payment is ever executed.
type PaymentType string

const (
	PaymentTypeCashOnDelivery PaymentType = "CASH_ON_DELIVERY"
	PaymentTypeCardOnDelivery PaymentType = "CARD_ON_DELIVERY"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeCashOnDelivery,
	PaymentTypeCardOnDelivery,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
