package app

import (
	"fmt"

	"yugwa-orders/internal/core"
)

// action names a staff operation that not every role may perform.
type action string

const (
	actionDeliver           action = "mark an order delivered"
	actionEditDeliveredDate action = "edit a delivered date"
	actionPurge             action = "permanently delete an order"
	actionEditPricing       action = "edit the pricing table"
)

// adminOnly lists the actions managers may not perform.
var adminOnly = map[action]bool{
	actionDeliver:           true,
	actionEditDeliveredDate: true,
	actionPurge:             true,
	actionEditPricing:       true,
}

// authorize rejects unknown roles outright and managers for admin-only actions.
// Refusals are core.ErrPreconditionFailed so transports report them like any
// other state-based rejection.
func authorize(actor Actor, a action) error {
	switch actor.Role {
	case core.RoleAdmin:
		return nil
	case core.RoleManager:
		if adminOnly[a] {
			return fmt.Errorf("%w: role %s may not %s", core.ErrPreconditionFailed, actor.Role, a)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown role %q", core.ErrPreconditionFailed, actor.Role)
}

// requireStaff checks the actor holds any staff role.
func requireStaff(actor Actor) error {
	return authorize(actor, "")
}
