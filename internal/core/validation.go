package core

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Column limits: quantities are INT, money is NUMERIC(12, 0).
const maxQuantity = math.MaxInt32

var maxAmount = decimal.New(1, 12).Sub(decimal.NewFromInt(1))

// validateAmount accepts whole won from zero up to what a money column holds.
func validateAmount(name string, d decimal.Decimal) error {
	if d.IsNegative() {
		return validationErrorf("%s %s must not be negative", name, d)
	}
	if !d.Equal(d.Truncate(0)) {
		return validationErrorf("%s %s must be a whole number of won", name, d)
	}
	if d.GreaterThan(maxAmount) {
		return validationErrorf("%s %s exceeds %s", name, d, maxAmount)
	}
	return nil
}

// Korean landline and mobile numbers: leading 0, 9 to 11 digits in total.
var phonePattern = regexp.MustCompile(`^0\d{8,10}$`)

// NormalizePhone strips separators from a phone number and validates the result.
// "010-1234-5678", "010 1234 5678" and "01012345678" all normalize to "01012345678".
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '.' || r == '(' || r == ')':
			// separators
		default:
			return "", validationErrorf("phone number %q contains invalid character %q", raw, r)
		}
	}
	phone := b.String()
	if phone == "" {
		return "", validationErrorf("phone number is required")
	}
	if !phonePattern.MatchString(phone) {
		return "", validationErrorf("phone number %q is malformed", raw)
	}
	return phone, nil
}

// normalizeOrderInput trims free-text fields, normalizes the phone number and
// checks quantities against the pricing table. It returns a cleaned copy.
func normalizeOrderInput(in OrderInput, table *PricingTable) (OrderInput, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Address = strings.TrimSpace(in.Address)
	in.AddressDetail = strings.TrimSpace(in.AddressDetail)
	in.Zipcode = strings.TrimSpace(in.Zipcode)
	in.Memo = strings.TrimSpace(in.Memo)

	if in.CustomerName == "" {
		return in, validationErrorf("customer name is required")
	}
	if in.Address == "" {
		return in, validationErrorf("address is required")
	}

	phone, err := NormalizePhone(in.CustomerPhone)
	if err != nil {
		return in, err
	}
	in.CustomerPhone = phone

	q, err := validateQuantities(in.Quantities, table)
	if err != nil {
		return in, err
	}
	in.Quantities = q
	return in, nil
}

// validateQuantities rejects negative counts, empty orders and extra products the
// pricing table does not sell. Zero extra lines are dropped from the returned copy.
func validateQuantities(q Quantities, table *PricingTable) (Quantities, error) {
	if q.SmallBox < 0 || q.LargeBox < 0 || q.Wrapping < 0 {
		return q, validationErrorf("quantities must not be negative")
	}
	if q.SmallBox > maxQuantity || q.LargeBox > maxQuantity || q.Wrapping > maxQuantity {
		return q, validationErrorf("quantities must not exceed %d", maxQuantity)
	}

	extras := make(map[string]int, len(q.Extras))
	for code, qty := range q.Extras {
		code = strings.TrimSpace(code)
		if qty < 0 {
			return q, validationErrorf("quantity for %q must not be negative", code)
		}
		if qty == 0 {
			continue
		}
		if isBuiltinProduct(code) {
			return q, validationErrorf("%q must be ordered through its own quantity field", code)
		}
		entry, ok := table.Entries[code]
		if !ok || !entry.IsActive {
			return q, validationErrorf("product %q is not on sale", code)
		}
		if qty > maxQuantity || extras[code] > maxQuantity-qty {
			return q, validationErrorf("quantity for %q must not exceed %d", code, maxQuantity)
		}
		extras[code] += qty
	}
	q.Extras = extras

	total := int64(q.SmallBox) + int64(q.LargeBox) + int64(q.Wrapping)
	for _, qty := range extras {
		total += int64(qty)
	}
	if total > maxQuantity {
		return q, validationErrorf("order of %d items exceeds %d", total, maxQuantity)
	}
	if total == 0 {
		return q, validationErrorf("order must contain at least one item")
	}
	return q, nil
}
