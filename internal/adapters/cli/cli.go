package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"yugwa-orders/internal/app"
	"yugwa-orders/internal/core"
)

const dateLayout = "2006-01-02"

// Usage lists the one-shot commands.
const Usage = `Usage: app <command> [args]

  orders [status]            list live orders, optionally by fulfillment status
  order <id|number>          show one order as JSON
  trash                      list trashed orders
  customers [--deleted]      list customers with their statistics
  summary [from] [to]        order summary; dates are YYYY-MM-DD, to is inclusive
  pricing                    show the pricing table
  recompute-customers        rebuild every customer's statistics from orders`

// Runner executes one-shot CLI commands against the ApplicationService.
type Runner struct {
	svc app.ApplicationService
	out io.Writer
	loc *time.Location
}

// NewRunner creates a Runner writing to out. loc interprets date arguments; nil means UTC.
func NewRunner(svc app.ApplicationService, out io.Writer, loc *time.Location) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{svc: svc, out: out, loc: loc}
}

// Run executes a one-shot CLI command.
// args is os.Args[1:]; the first element is the subcommand name.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\n%s", Usage)
	}

	switch args[0] {
	case "orders", "ls":
		var filter core.OrderFilter
		if len(args) > 1 {
			s := core.OrderStatus(args[1])
			if !s.Valid() {
				return fmt.Errorf("unknown status %q: want pending, scheduled or delivered", args[1])
			}
			filter.Status = &s
		}
		result, err := r.svc.ListOrders(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list orders: %w", err)
		}
		return r.printOrders(result)

	case "order", "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: app order <id|number>")
		}
		result, err := r.svc.GetOrder(ctx, args[1])
		if err != nil {
			return fmt.Errorf("failed to get order %s: %w", args[1], err)
		}
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Order)

	case "trash":
		result, err := r.svc.ListTrash(ctx)
		if err != nil {
			return fmt.Errorf("failed to list trash: %w", err)
		}
		return r.printOrders(result)

	case "customers":
		deleted := len(args) > 1 && args[1] == "--deleted"
		result, err := r.svc.ListCustomers(ctx, deleted)
		if err != nil {
			return fmt.Errorf("failed to list customers: %w", err)
		}
		return r.printCustomers(result)

	case "summary", "report":
		period, err := r.parsePeriod(args[1:])
		if err != nil {
			return err
		}
		sum, err := r.svc.GetSummary(ctx, period)
		if err != nil {
			return fmt.Errorf("failed to build summary: %w", err)
		}
		return r.printSummary(sum)

	case "pricing":
		table, err := r.svc.GetPricing(ctx)
		if err != nil {
			return fmt.Errorf("failed to load pricing: %w", err)
		}
		return r.printPricing(table)

	case "recompute-customers":
		n, err := r.svc.RecomputeCustomers(ctx)
		if err != nil {
			return fmt.Errorf("recompute failed: %w", err)
		}
		fmt.Fprintf(r.out, "Recomputed statistics for %d customers.\n", n)
		return nil

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], Usage)
	}
}

func (r *Runner) parsePeriod(args []string) (core.ReportPeriod, error) {
	var p core.ReportPeriod
	if len(args) > 0 {
		t, err := time.ParseInLocation(dateLayout, args[0], r.loc)
		if err != nil {
			return p, fmt.Errorf("invalid from date %q: want YYYY-MM-DD", args[0])
		}
		p.From = &t
	}
	if len(args) > 1 {
		t, err := time.ParseInLocation(dateLayout, args[1], r.loc)
		if err != nil {
			return p, fmt.Errorf("invalid to date %q: want YYYY-MM-DD", args[1])
		}
		end := t.AddDate(0, 0, 1)
		p.To = &end
	}
	return p, nil
}

// ── Display ───────────────────────────────────────────────────────────────────

func (r *Runner) printOrders(result *app.OrderListResult) error {
	if len(result.Orders) == 0 {
		fmt.Fprintln(r.out, "No orders found.")
		return nil
	}
	table := tablewriter.NewWriter(r.out)
	table.Header("Number", "Customer", "Phone", "Qty S/L/W", "Total", "Status", "Payment", "Created")
	for _, o := range result.Orders {
		row := []string{
			o.OrderNumber,
			o.CustomerName,
			o.CustomerPhone,
			fmt.Sprintf("%d/%d/%d", o.SmallBoxQuantity, o.LargeBoxQuantity, o.WrappingQuantity),
			core.FormatWon(o.TotalAmount),
			string(o.Status),
			string(o.PaymentStatus),
			o.CreatedAt.In(r.loc).Format(dateLayout),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%d orders\n", result.Count)
	return nil
}

func (r *Runner) printCustomers(result *app.CustomerListResult) error {
	if len(result.Customers) == 0 {
		fmt.Fprintln(r.out, "No customers found.")
		return nil
	}
	table := tablewriter.NewWriter(r.out)
	table.Header("Name", "Phone", "Orders", "Total Spent", "Last Order")
	for _, c := range result.Customers {
		last := "-"
		if c.LastOrderDate != nil {
			last = c.LastOrderDate.In(r.loc).Format(dateLayout)
		}
		row := []string{c.Name, c.Phone, strconv.Itoa(c.OrderCount), core.FormatWon(c.TotalSpent), last}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func (r *Runner) printSummary(sum *core.OrderSummary) error {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, strings.Repeat("=", 48))
	fmt.Fprintf(r.out, "  ORDER SUMMARY  %s\n", periodLabel(sum, r.loc))
	fmt.Fprintln(r.out, strings.Repeat("=", 48))
	fmt.Fprintf(r.out, "  %-14s %d\n", "Orders", sum.OrderCount)
	fmt.Fprintf(r.out, "  %-14s %s\n", "Billed", core.FormatWon(sum.Billed))
	fmt.Fprintf(r.out, "  %-14s %s\n", "Received", core.FormatWon(sum.Revenue))
	fmt.Fprintf(r.out, "  %-14s %s\n", "Outstanding", core.FormatWon(sum.Outstanding))
	fmt.Fprintf(r.out, "  %-14s %s\n", "Discounts", core.FormatWon(sum.Discounts))
	fmt.Fprintf(r.out, "  %-14s %s\n", "Cost", core.FormatWon(sum.TotalCost))
	fmt.Fprintf(r.out, "  %-14s %s\n", "Shipping", core.FormatWon(sum.ShippingFee))
	fmt.Fprintf(r.out, "  %-14s %s\n", "Net profit", core.FormatWon(sum.NetProfit))

	if len(sum.Months) == 0 {
		return nil
	}
	table := tablewriter.NewWriter(r.out)
	table.Header("Month", "Orders", "Received", "Cost", "Shipping", "Net Profit")
	for _, m := range sum.Months {
		row := []string{
			m.Month,
			strconv.Itoa(m.OrderCount),
			core.FormatWon(m.Revenue),
			core.FormatWon(m.TotalCost),
			core.FormatWon(m.ShippingFee),
			core.FormatWon(m.NetProfit),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func (r *Runner) printPricing(p *core.PricingTable) error {
	table := tablewriter.NewWriter(r.out)
	table.Header("Code", "Name", "Price", "Cost", "Ships", "Active")
	for _, e := range p.SortedEntries() {
		row := []string{
			e.Code,
			e.Name,
			core.FormatWon(e.UnitPrice),
			core.FormatWon(e.UnitCost),
			yesNo(e.CountsForShipping),
			yesNo(e.IsActive),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Shipping: %s, free from %d boxes\n", core.FormatWon(p.Shipping.FlatFee), p.Shipping.FreeThreshold)
	return nil
}

func periodLabel(sum *core.OrderSummary, loc *time.Location) string {
	if sum.From == nil && sum.To == nil {
		return "(all time)"
	}
	from, to := "…", "…"
	if sum.From != nil {
		from = sum.From.In(loc).Format(dateLayout)
	}
	if sum.To != nil {
		to = sum.To.In(loc).AddDate(0, 0, -1).Format(dateLayout)
	}
	return from + " ~ " + to
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
