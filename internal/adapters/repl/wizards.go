package repl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"yugwa-orders/internal/app"
	"yugwa-orders/internal/core"
)

// newOrder runs an interactive order entry session, shows the quote and
// creates the order on confirmation.
func (c *Console) newOrder(ctx context.Context) error {
	fmt.Fprintln(c.out, "New order. Leave a quantity blank for 0, type 'cancel' at any prompt to abort.")

	var req app.PlaceOrderRequest
	fields := []struct {
		label string
		dst   *string
	}{
		{"Customer name: ", &req.CustomerName},
		{"Phone: ", &req.CustomerPhone},
		{"Address: ", &req.Address},
		{"Address detail: ", &req.AddressDetail},
		{"Zipcode: ", &req.Zipcode},
	}
	for _, f := range fields {
		v := c.prompt(f.label)
		if strings.EqualFold(v, "cancel") {
			fmt.Fprintln(c.out, "Order entry cancelled.")
			return nil
		}
		*f.dst = v
	}

	quantities := []struct {
		label string
		dst   *int
	}{
		{"Small boxes: ", &req.SmallBoxQuantity},
		{"Large boxes: ", &req.LargeBoxQuantity},
		{"Wrapping: ", &req.WrappingQuantity},
	}
	for _, q := range quantities {
		for {
			v := c.prompt(q.label)
			if strings.EqualFold(v, "cancel") {
				fmt.Fprintln(c.out, "Order entry cancelled.")
				return nil
			}
			if v == "" {
				break
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				fmt.Fprintln(c.out, "  Enter a whole number, 0 or more.")
				continue
			}
			*q.dst = n
			break
		}
	}

	memo := c.prompt("Memo (optional): ")
	if strings.EqualFold(memo, "cancel") {
		fmt.Fprintln(c.out, "Order entry cancelled.")
		return nil
	}
	req.Memo = memo

	table, err := c.svc.GetPricing(ctx)
	if err != nil {
		return err
	}
	quote, err := core.QuoteTotal(core.Quantities{
		SmallBox: req.SmallBoxQuantity,
		LargeBox: req.LargeBoxQuantity,
		Wrapping: req.WrappingQuantity,
	}, table)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nSubtotal %s + shipping %s = %s\n",
		core.FormatWon(quote.Subtotal), core.FormatWon(quote.ShippingFee), core.FormatWon(quote.Total))

	if !c.confirm("Create this order? (y/n): ") {
		fmt.Fprintln(c.out, "Order entry cancelled.")
		return nil
	}

	result, err := c.svc.PlaceOrder(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nOrder created: %s\n", result.Order.OrderNumber)
	printOrderDetail(c.out, result.Order, c.loc)
	return nil
}
