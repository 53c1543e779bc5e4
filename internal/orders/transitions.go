package orders

import (
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
)

// transition is one row of the guarded state machine table.
type transition struct {
	actor enums.ActorRole
	from  []enums.OrderStatus
	to    enums.OrderStatus
}

// transitions holds the full guard table. claim and deliver are listed for
// guard reporting but execute as conditional updates, not read-then-write.
var transitions = map[enums.OrderAction]transition{
	enums.OrderActionApprove: {
		actor: enums.ActorRoleAdmin,
		from:  []enums.OrderStatus{enums.OrderStatusCreated},
		to:    enums.OrderStatusApproved,
	},
	enums.OrderActionPrepare: {
		actor: enums.ActorRoleAdmin,
		from:  []enums.OrderStatus{enums.OrderStatusApproved},
		to:    enums.OrderStatusPreparing,
	},
	enums.OrderActionAssignCourier: {
		actor: enums.ActorRoleAdmin,
		from: []enums.OrderStatus{
			enums.OrderStatusApproved,
			enums.OrderStatusPreparing,
			enums.OrderStatusCourierAssigned,
		},
		to: enums.OrderStatusCourierAssigned,
	},
	enums.OrderActionClaim: {
		actor: enums.ActorRoleCourier,
		from: []enums.OrderStatus{
			enums.OrderStatusCourierAssigned,
			enums.OrderStatusPreparing,
		},
		to: enums.OrderStatusInTransit,
	},
	enums.OrderActionDeliver: {
		actor: enums.ActorRoleCourier,
		from:  []enums.OrderStatus{enums.OrderStatusInTransit},
		to:    enums.OrderStatusDelivered,
	},
	enums.OrderActionClose: {
		actor: enums.ActorRoleAdmin,
		from:  []enums.OrderStatus{enums.OrderStatusInTransit},
		to:    enums.OrderStatusDelivered,
	},
	enums.OrderActionCancel: {
		actor: enums.ActorRoleAdmin,
		from: []enums.OrderStatus{
			enums.OrderStatusCreated,
			enums.OrderStatusApproved,
			enums.OrderStatusPreparing,
			enums.OrderStatusCourierAssigned,
		},
		to: enums.OrderStatusCancelled,
	},
	enums.OrderActionReject: {
		actor: enums.ActorRoleAdmin,
		from:  []enums.OrderStatus{enums.OrderStatusCreated},
		to:    enums.OrderStatusRejected,
	},
}

func (t transition) allowsFrom(status enums.OrderStatus) bool {
	for _, candidate := range t.from {
		if candidate == status {
			return true
		}
	}
	return false
}

// releasesStock reports whether the action returns reserved quantities to the
// ledger.
func releasesStock(action enums.OrderAction) bool {
	return action == enums.OrderActionCancel || action == enums.OrderActionReject
}
