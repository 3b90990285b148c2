package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const orderNumberDateLayout = "060102"

// FormatOrderNumber renders the YYMMDD-N order number for date and sequence n.
func FormatOrderNumber(date time.Time, n int) string {
	return fmt.Sprintf("%s-%d", date.Format(orderNumberDateLayout), n)
}

// orderNumberPrefix is the date part of an order number, including the trailing dash.
func orderNumberPrefix(date time.Time) string {
	return date.Format(orderNumberDateLayout) + "-"
}

// nextOrderNumberSequence returns the smallest positive N whose number is absent from existing.
// Entries that do not share prefix or carry a non-numeric suffix are ignored.
func nextOrderNumberSequence(prefix string, existing []string) int {
	used := make(map[int]struct{}, len(existing))
	for _, num := range existing {
		suffix, ok := strings.CutPrefix(num, prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n <= 0 {
			continue
		}
		used[n] = struct{}{}
	}
	for n := 1; ; n++ {
		if _, taken := used[n]; !taken {
			return n
		}
	}
}

// nextOrderNumber reads the numbers already issued for date, including trashed
// orders, and returns the first free candidate. The caller must still insert
// under the unique constraint and retry on conflict.
func nextOrderNumber(ctx context.Context, q pgxRowsQuerier, date time.Time) (string, error) {
	prefix := orderNumberPrefix(date)
	rows, err := q.Query(ctx, "SELECT order_number FROM orders WHERE order_number LIKE $1", prefix+"%")
	if err != nil {
		return "", fmt.Errorf("failed to read order numbers for %s: %w", prefix, err)
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var num string
		if err := rows.Scan(&num); err != nil {
			return "", fmt.Errorf("failed to scan order number: %w", err)
		}
		existing = append(existing, num)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read order numbers: %w", err)
	}
	return FormatOrderNumber(date, nextOrderNumberSequence(prefix, existing)), nil
}
