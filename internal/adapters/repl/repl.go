package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"yugwa-orders/internal/adapters/cli"
	"yugwa-orders/internal/app"
	"yugwa-orders/internal/core"
)

const dateLayout = "2006-01-02"

var errExit = errors.New("exit")

// Console is the interactive staff console. Commands run as app.SystemActor.
type Console struct {
	svc    app.ApplicationService
	reader *bufio.Reader
	out    io.Writer
	loc    *time.Location
	lists  *cli.Runner
	actor  app.Actor
}

// New creates a Console reading commands from in and writing to out.
// loc interprets dates; nil means UTC.
func New(svc app.ApplicationService, in io.Reader, out io.Writer, loc *time.Location) *Console {
	if loc == nil {
		loc = time.UTC
	}
	return &Console{
		svc:    svc,
		reader: bufio.NewReader(in),
		out:    out,
		loc:    loc,
		lists:  cli.NewRunner(svc, out, loc),
		actor:  app.SystemActor,
	}
}

// Run starts the read-dispatch loop. It returns when input ends or on /exit.
func (c *Console) Run(ctx context.Context) {
	fmt.Fprintln(c.out, "Order Console")
	fmt.Fprintf(c.out, "Time zone: %s. Use /help for commands.\n", c.loc)
	fmt.Fprintln(c.out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(c.out, "\n> ")
		input, err := c.reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			if !strings.HasPrefix(input, "/") {
				fmt.Fprintln(c.out, "Commands start with '/'. Type /help.")
			} else if derr := c.dispatch(ctx, input); derr != nil {
				if errors.Is(derr, errExit) {
					return
				}
				fmt.Fprintf(c.out, "[console] Error: %v\n", derr)
			}
		}
		if err != nil {
			return
		}
	}
}

func (c *Console) dispatch(ctx context.Context, input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "orders", "trash", "customers", "summary", "pricing", "recompute-customers":
		return c.lists.Run(ctx, append([]string{cmd}, args...))

	case "order", "show":
		if len(args) < 1 {
			fmt.Fprintln(c.out, "Usage: /order <id|number>")
			return nil
		}
		result, err := c.svc.GetOrder(ctx, args[0])
		if err != nil {
			return err
		}
		printOrderDetail(c.out, result.Order, c.loc)

	case "new-order", "new":
		return c.newOrder(ctx)

	case "schedule":
		if len(args) < 2 {
			fmt.Fprintln(c.out, "Usage: /schedule <order-ref> <YYYY-MM-DD|clear>")
			return nil
		}
		id, err := c.resolveID(ctx, args[0])
		if err != nil {
			return err
		}
		var date *time.Time
		if args[1] != "clear" {
			d, err := c.parseDate(args[1])
			if err != nil {
				return err
			}
			date = &d
		}
		result, err := c.svc.SetScheduledDate(ctx, c.actor, id, date)
		if err != nil {
			return err
		}
		printOrderLine(c.out, result.Order, "schedule updated")

	case "status":
		if len(args) < 2 {
			fmt.Fprintln(c.out, "Usage: /status <order-ref> <pending|scheduled|delivered> [YYYY-MM-DD]")
			return nil
		}
		id, err := c.resolveID(ctx, args[0])
		if err != nil {
			return err
		}
		req := app.ChangeStatusRequest{OrderID: id, Status: core.OrderStatus(strings.ToLower(args[1]))}
		if len(args) > 2 {
			d, err := c.parseDate(args[2])
			if err != nil {
				return err
			}
			req.DeliveredDate = &d
		}
		result, err := c.svc.ChangeStatus(ctx, c.actor, req)
		if err != nil {
			return err
		}
		printOrderLine(c.out, result.Order, "status "+string(result.Order.Status))

	case "ship", "unship":
		if len(args) < 1 {
			fmt.Fprintf(c.out, "Usage: /%s <order-ref> [YYYY-MM-DD]\n", cmd)
			return nil
		}
		id, err := c.resolveID(ctx, args[0])
		if err != nil {
			return err
		}
		req := app.SellerShippedRequest{OrderID: id, Shipped: cmd == "ship"}
		if len(args) > 1 && req.Shipped {
			d, err := c.parseDate(args[1])
			if err != nil {
				return err
			}
			req.Date = &d
		}
		result, err := c.svc.SetSellerShipped(ctx, c.actor, req)
		if err != nil {
			return err
		}
		printOrderLine(c.out, result.Order, "seller shipped: "+strconv.FormatBool(result.Order.SellerShipped))

	case "pay", "payment":
		return c.payment(ctx, args)

	case "delete", "restore", "purge":
		if len(args) < 1 {
			fmt.Fprintf(c.out, "Usage: /%s <order-ref>\n", cmd)
			return nil
		}
		id, err := c.resolveID(ctx, args[0])
		if err != nil {
			return err
		}
		switch cmd {
		case "delete":
			result, err := c.svc.TrashOrder(ctx, c.actor, id)
			if err != nil {
				return err
			}
			printOrderLine(c.out, result.Order, "moved to trash")
		case "restore":
			result, err := c.svc.RestoreOrder(ctx, c.actor, id)
			if err != nil {
				return err
			}
			printOrderLine(c.out, result.Order, "restored")
		case "purge":
			if !c.confirm(fmt.Sprintf("Permanently delete order %d? (y/n): ", id)) {
				fmt.Fprintln(c.out, "Cancelled.")
				return nil
			}
			if err := c.svc.PurgeOrder(ctx, c.actor, id); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Order %d permanently deleted.\n", id)
		}

	case "help", "h":
		printHelp(c.out)

	case "exit", "quit", "q":
		return errExit

	default:
		fmt.Fprintf(c.out, "Unknown command: /%s. Type /help.\n", cmd)
	}
	return nil
}

// payment handles /pay <order-ref> <status> [amount] [discount|shortfall] [reason...].
func (c *Console) payment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: /pay <order-ref> <pending|partial|confirmed|refunded> [amount] [discount|shortfall] [reason...]")
		return nil
	}
	id, err := c.resolveID(ctx, args[0])
	if err != nil {
		return err
	}
	req := app.UpdatePaymentRequest{OrderID: id, Status: core.PaymentStatus(strings.ToLower(args[1]))}
	rest := args[2:]
	if len(rest) > 0 {
		amount, err := decimal.NewFromString(strings.ReplaceAll(rest[0], ",", ""))
		if err != nil {
			return fmt.Errorf("invalid amount %q", rest[0])
		}
		req.ActualPaidAmount = &amount
		rest = rest[1:]
	}
	if len(rest) > 0 {
		if intent := core.DiscountIntent(strings.ToLower(rest[0])); intent != core.DiscountIntentAuto && intent.Valid() {
			req.Intent = intent
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		reason := strings.Join(rest, " ")
		req.DiscountReason = &reason
	}

	result, err := c.svc.UpdatePayment(ctx, c.actor, req)
	if err != nil {
		return err
	}
	printPaymentResult(c.out, result)
	return nil
}

// resolveID accepts a numeric ID as-is so trashed orders can be addressed,
// otherwise looks up the order number.
func (c *Console) resolveID(ctx context.Context, ref string) (int, error) {
	if id, err := strconv.Atoi(ref); err == nil && id > 0 {
		return id, nil
	}
	result, err := c.svc.GetOrder(ctx, ref)
	if err != nil {
		return 0, err
	}
	return result.Order.ID, nil
}

func (c *Console) parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func (c *Console) prompt(label string) string {
	fmt.Fprint(c.out, label)
	line, _ := c.reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func (c *Console) confirm(label string) bool {
	choice := strings.ToLower(c.prompt(label))
	return choice == "y" || choice == "yes"
}
