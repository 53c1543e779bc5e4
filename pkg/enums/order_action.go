package enums

import "fmt"

// OrderAction names a guarded state machine transition on an order.
type OrderAction string

const (
	OrderActionApprove       OrderAction = "approve"
	OrderActionPrepare       OrderAction = "prepare"
	OrderActionAssignCourier OrderAction = "assign_courier"
	OrderActionClaim         OrderAction = "claim"
	OrderActionDeliver       OrderAction = "deliver"
	OrderActionClose         OrderAction = "close"
	OrderActionCancel        OrderAction = "cancel"
	OrderActionReject        OrderAction = "reject"
)

var validOrderActions = []OrderAction{
	OrderActionApprove,
	OrderActionPrepare,
	OrderActionAssignCourier,
	OrderActionClaim,
	OrderActionDeliver,
	OrderActionClose,
	OrderActionCancel,
	OrderActionReject,
}

// String implements fmt.Stringer.
func (a OrderAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known OrderAction.
func (a OrderAction) IsValid() bool {
	for _, candidate := range validOrderActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOrderAction converts raw input into an OrderAction.
func ParseOrderAction(value string) (OrderAction, error) {
	for _, candidate := range validOrderActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order action %q", value)
}
