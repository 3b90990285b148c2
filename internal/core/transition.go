package core

import (
	"fmt"
	"time"
)

// transitionEffect lists the fields a status transition resets or stamps.
type transitionEffect struct {
	clearSellerShipped bool // SellerShipped and SellerShippedDate
	clearScheduledDate bool
	clearDeliveredDate bool
	stampDeliveredDate bool
}

// transitionPolicy maps each target status to its side effects. Every status is
// reachable from every other one; staff use backward moves to correct mistakes.
var transitionPolicy = map[OrderStatus]transitionEffect{
	OrderStatusPending: {
		clearSellerShipped: true,
		clearScheduledDate: true,
		clearDeliveredDate: true,
	},
	OrderStatusScheduled: {
		clearSellerShipped: true,
		clearDeliveredDate: true,
	},
	OrderStatusDelivered: {
		stampDeliveredDate: true,
	},
}

// ApplyStatusTransition moves o to target and applies the policy for target.
// deliveredAt, when set, is used as the delivered date; otherwise an existing
// delivered date is kept and a missing one is stamped with now.
func ApplyStatusTransition(o *Order, target OrderStatus, deliveredAt *time.Time, now time.Time) error {
	effect, ok := transitionPolicy[target]
	if !ok {
		return validationErrorf("unknown order status %q", target)
	}

	o.Status = target
	if effect.clearSellerShipped {
		o.SellerShipped = false
		o.SellerShippedDate = nil
	}
	if effect.clearScheduledDate {
		o.ScheduledDate = nil
	}
	if effect.clearDeliveredDate {
		o.DeliveredDate = nil
	}
	if effect.stampDeliveredDate {
		switch {
		case deliveredAt != nil:
			o.DeliveredDate = timePtr(*deliveredAt)
		case o.DeliveredDate == nil:
			o.DeliveredDate = timePtr(now)
		}
	}
	return nil
}

// ApplySellerShipped sets the carrier hand-off flag. Shipping forces the order to
// delivered with the delivered date equal to the hand-off date; unshipping only
// clears the flag and leaves the status alone.
func ApplySellerShipped(o *Order, shipped bool, date *time.Time, now time.Time) {
	if !shipped {
		o.SellerShipped = false
		o.SellerShippedDate = nil
		return
	}

	at := now
	if date != nil {
		at = *date
	}
	o.SellerShipped = true
	o.SellerShippedDate = timePtr(at)
	o.Status = OrderStatusDelivered
	o.DeliveredDate = timePtr(at)
}

// ApplyScheduledDate sets or clears the scheduled date. Delivered orders are closed to rescheduling.
func ApplyScheduledDate(o *Order, date *time.Time) error {
	if o.Status == OrderStatusDelivered {
		return fmt.Errorf("%w: order %d is already delivered", ErrPreconditionFailed, o.ID)
	}
	if date == nil {
		o.ScheduledDate = nil
		return nil
	}
	o.ScheduledDate = timePtr(*date)
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
