package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DiscountIntent tells the reconciler how to read a shortfall.
type DiscountIntent string

const (
	// DiscountIntentAuto treats a shortfall as a discount when the reason mentions 할인.
	DiscountIntentAuto DiscountIntent = ""
	// DiscountIntentDiscount always treats a shortfall as an agreed discount.
	DiscountIntentDiscount DiscountIntent = "discount"
	// DiscountIntentShortfall always treats a shortfall as an under-payment.
	DiscountIntentShortfall DiscountIntent = "shortfall"
)

// Valid reports whether i is a known intent.
func (i DiscountIntent) Valid() bool {
	switch i {
	case DiscountIntentAuto, DiscountIntentDiscount, DiscountIntentShortfall:
		return true
	}
	return false
}

const discountMarker = "할인"

// ReconcileOutcome names how a payment update was classified.
type ReconcileOutcome string

const (
	// OutcomeExact: paid equals the total.
	OutcomeExact ReconcileOutcome = "exact"
	// OutcomeDiscount: paid below total, difference recorded as a discount.
	OutcomeDiscount ReconcileOutcome = "discount"
	// OutcomePartial: paid below total, stored as partial even if confirmed was requested.
	OutcomePartial ReconcileOutcome = "partial"
	// OutcomeOverpaid: paid above total.
	OutcomeOverpaid ReconcileOutcome = "overpaid"
	// OutcomeUnreconciled: status change without an amount comparison.
	OutcomeUnreconciled ReconcileOutcome = "unreconciled"
)

// Reconciliation is the result of classifying a payment update against an order total.
type Reconciliation struct {
	Outcome          ReconcileOutcome `json:"outcome"`
	RequestedStatus  PaymentStatus    `json:"requested_status"`
	Status           PaymentStatus    `json:"status"` // the status that is stored
	ActualPaidAmount *decimal.Decimal `json:"actual_paid_amount,omitempty"`
	DiscountAmount   *decimal.Decimal `json:"discount_amount,omitempty"`
	DiscountReason   *string          `json:"discount_reason,omitempty"`
	Difference       decimal.Decimal  `json:"difference"` // total − paid
}

// Overridden reports whether the stored status differs from the requested one.
func (r Reconciliation) Overridden() bool {
	return r.Status != r.RequestedStatus
}

// PaymentResult pairs the stored order with how its payment was classified.
type PaymentResult struct {
	Order          *Order         `json:"order"`
	Reconciliation Reconciliation `json:"reconciliation"`
}

var wonPrinter = message.NewPrinter(language.Korean)

// FormatWon renders an amount as "5,000원".
func FormatWon(d decimal.Decimal) string {
	return wonPrinter.Sprintf("%d원", d.Round(0).IntPart())
}

func shortfallReason(diff decimal.Decimal) string {
	return "부분입금: " + FormatWon(diff) + " 미입금"
}

func excessReason(diff decimal.Decimal) string {
	return "과입금: " + FormatWon(diff) + " 초과"
}

// withSynthesizedReason keeps the caller's note in front of the generated text.
func withSynthesizedReason(caller *string, synth string) *string {
	if caller == nil || strings.TrimSpace(*caller) == "" {
		return &synth
	}
	s := strings.TrimSpace(*caller) + " (" + synth + ")"
	return &s
}

func isDiscount(intent DiscountIntent, reason *string) bool {
	switch intent {
	case DiscountIntentDiscount:
		return true
	case DiscountIntentShortfall:
		return false
	}
	return reason != nil && strings.Contains(*reason, discountMarker)
}

// Reconcile classifies update against total. It does not touch any order.
func Reconcile(total decimal.Decimal, update PaymentUpdate) (Reconciliation, error) {
	if !update.Status.Valid() {
		return Reconciliation{}, validationErrorf("unknown payment status %q", update.Status)
	}
	if !update.Intent.Valid() {
		return Reconciliation{}, validationErrorf("unknown discount intent %q", update.Intent)
	}
	if update.ActualPaidAmount != nil {
		if err := validateAmount("paid amount", *update.ActualPaidAmount); err != nil {
			return Reconciliation{}, err
		}
	}

	r := Reconciliation{
		Outcome:         OutcomeUnreconciled,
		RequestedStatus: update.Status,
		Status:          update.Status,
	}
	zero := decimal.Zero

	switch update.Status {
	case PaymentStatusPending:
		// back to unpaid: nothing recorded
		return r, nil

	case PaymentStatusConfirmed:
		paid := total
		if update.ActualPaidAmount != nil {
			paid = *update.ActualPaidAmount
		}
		diff := total.Sub(paid)
		r.ActualPaidAmount = &paid
		r.Difference = diff

		switch {
		case diff.IsZero():
			r.Outcome = OutcomeExact
			r.DiscountAmount = &zero
		case diff.IsPositive() && isDiscount(update.Intent, update.DiscountReason):
			r.Outcome = OutcomeDiscount
			r.DiscountAmount = &diff
			r.DiscountReason = update.DiscountReason
		case diff.IsPositive():
			r.Outcome = OutcomePartial
			r.Status = PaymentStatusPartial
			r.DiscountAmount = &zero
			r.DiscountReason = withSynthesizedReason(update.DiscountReason, shortfallReason(diff))
		default:
			r.Outcome = OutcomeOverpaid
			r.DiscountAmount = &zero
			r.DiscountReason = withSynthesizedReason(update.DiscountReason, excessReason(diff.Neg()))
		}
		return r, nil

	case PaymentStatusPartial:
		r.DiscountAmount = &zero
		r.DiscountReason = update.DiscountReason
		if update.ActualPaidAmount == nil {
			return r, nil
		}
		paid := *update.ActualPaidAmount
		diff := total.Sub(paid)
		r.ActualPaidAmount = &paid
		r.Difference = diff
		if diff.IsPositive() {
			r.Outcome = OutcomePartial
			r.DiscountReason = withSynthesizedReason(update.DiscountReason, shortfallReason(diff))
		}
		return r, nil

	default: // refunded
		r.ActualPaidAmount = update.ActualPaidAmount
		r.DiscountReason = update.DiscountReason
		return r, nil
	}
}

// ApplyReconciliation writes r onto o. PaymentConfirmedAt is stamped on confirmed,
// cleared on pending and left alone otherwise.
func ApplyReconciliation(o *Order, r Reconciliation, now time.Time) {
	o.PaymentStatus = r.Status
	switch r.Status {
	case PaymentStatusPending:
		o.ActualPaidAmount = nil
		o.DiscountAmount = nil
		o.DiscountReason = nil
		o.PaymentConfirmedAt = nil
		return
	case PaymentStatusConfirmed:
		o.PaymentConfirmedAt = timePtr(now)
	}

	if r.ActualPaidAmount != nil {
		o.ActualPaidAmount = r.ActualPaidAmount
	}
	if r.DiscountAmount != nil {
		o.DiscountAmount = r.DiscountAmount
	}
	o.DiscountReason = r.DiscountReason
}
