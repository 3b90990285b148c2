package repl

import (
	"fmt"
	"io"
	"strings"
	"time"

	"yugwa-orders/internal/core"
)

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `Lists
  /orders [status]        /trash        /customers [--deleted]
  /summary [from] [to]    /pricing      /recompute-customers
Orders
  /order <ref>                        show one order
  /new-order                          interactive order entry
  /schedule <ref> <date|clear>        set or clear the scheduled date
  /status <ref> <status> [date]       pending, scheduled or delivered
  /ship <ref> [date]  /unship <ref>   seller hand-off to the carrier
  /pay <ref> <status> [amount] [discount|shortfall] [reason...]
  /delete <ref>  /restore <id>  /purge <id>
  /exit`)
}

func printOrderLine(w io.Writer, o *core.Order, msg string) {
	fmt.Fprintf(w, "Order %s: %s\n", o.OrderNumber, msg)
}

func optionalDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format(dateLayout)
}

func printOrderDetail(w io.Writer, o *core.Order, loc *time.Location) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "  ORDER %s  (id %d)\n", o.OrderNumber, o.ID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "  Customer   : %s  %s\n", o.CustomerName, o.CustomerPhone)
	fmt.Fprintf(w, "  Address    : %s %s (%s)\n", o.Address, o.AddressDetail, o.Zipcode)
	if o.Memo != "" {
		fmt.Fprintf(w, "  Memo       : %s\n", o.Memo)
	}
	fmt.Fprintf(w, "  Quantities : small %d, large %d, wrapping %d\n",
		o.SmallBoxQuantity, o.LargeBoxQuantity, o.WrappingQuantity)
	for code, qty := range o.ExtraQuantities {
		fmt.Fprintf(w, "               %s %d\n", code, qty)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "  Total      : %s (shipping %s)\n", core.FormatWon(o.TotalAmount), core.FormatWon(o.ShippingFee))
	fmt.Fprintf(w, "  Cost       : %s   Net profit: %s\n", core.FormatWon(o.TotalCost), core.FormatWon(o.NetProfit))
	fmt.Fprintf(w, "  Status     : %s   scheduled %s   delivered %s\n",
		o.Status, optionalDate(o.ScheduledDate, loc), optionalDate(o.DeliveredDate, loc))
	if o.SellerShipped {
		fmt.Fprintf(w, "  Shipped    : %s\n", optionalDate(o.SellerShippedDate, loc))
	}
	fmt.Fprintf(w, "  Payment    : %s", o.PaymentStatus)
	if o.ActualPaidAmount != nil {
		fmt.Fprintf(w, "   paid %s", core.FormatWon(*o.ActualPaidAmount))
	}
	if o.DiscountAmount != nil {
		fmt.Fprintf(w, "   discount %s", core.FormatWon(*o.DiscountAmount))
	}
	fmt.Fprintln(w)
	if o.DiscountReason != nil && *o.DiscountReason != "" {
		fmt.Fprintf(w, "  Note       : %s\n", *o.DiscountReason)
	}
	if o.IsDeleted {
		fmt.Fprintln(w, "  (in trash)")
	}
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

func printPaymentResult(w io.Writer, res *core.PaymentResult) {
	r := res.Reconciliation
	fmt.Fprintf(w, "Order %s payment: %s (%s)\n", res.Order.OrderNumber, r.Status, r.Outcome)
	if r.Overridden() {
		fmt.Fprintf(w, "  requested %s, stored %s\n", r.RequestedStatus, r.Status)
	}
	if !r.Difference.IsZero() {
		fmt.Fprintf(w, "  difference %s\n", core.FormatWon(r.Difference))
	}
	if r.DiscountReason != nil && *r.DiscountReason != "" {
		fmt.Fprintf(w, "  note: %s\n", *r.DiscountReason)
	}
}
