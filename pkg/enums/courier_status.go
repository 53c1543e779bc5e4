package enums

import "fmt"

// CourierStatus captures a courier's availability for new dispatches.
type CourierStatus string

const (
	CourierStatusAvailable CourierStatus = "AVAILABLE"
	CourierStatusBusy      CourierStatus = "BUSY"
	CourierStatusOffline   CourierStatus = "OFFLINE"
)

var validCourierStatuses = []CourierStatus{
	CourierStatusAvailable,
	CourierStatusBusy,
	CourierStatusOffline,
}

// String implements fmt.Stringer.
func (s CourierStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CourierStatus.
func (s CourierStatus) IsValid() bool {
	for _, candidate := range validCourierStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Assignable reports whether new orders may be dispatched to the courier.
func (s CourierStatus) Assignable() bool {
	return s == CourierStatusAvailable || s == CourierStatusBusy
}

// ParseCourierStatus converts raw input into a CourierStatus.
func ParseCourierStatus(value string) (CourierStatus, error) {
	for _, candidate := range validCourierStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid courier status %q", value)
}
