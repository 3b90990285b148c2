package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Built-in product lines. Extra catalog products use their own codes.
const (
	ProductSmallBox = "small_box"
	ProductLargeBox = "large_box"
	ProductWrapping = "wrapping"
)

func isBuiltinProduct(code string) bool {
	return code == ProductSmallBox || code == ProductLargeBox || code == ProductWrapping
}

// PriceEntry is one row of the pricing table.
// CountsForShipping marks lines whose units count toward the free-shipping threshold.
type PriceEntry struct {
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	CountsForShipping bool            `json:"counts_for_shipping"`
	IsActive          bool            `json:"is_active"`
}

// ShippingRule charges FlatFee unless the shipping-counted units reach FreeThreshold.
type ShippingRule struct {
	FlatFee       decimal.Decimal `json:"flat_fee"`
	FreeThreshold int             `json:"free_threshold"`
}

// PricingTable is a snapshot of prices, costs and the shipping rule.
// Inactive entries stay in the table so historical orders keep a unit cost.
type PricingTable struct {
	Entries  map[string]PriceEntry `json:"entries"`
	Shipping ShippingRule          `json:"shipping"`
}

// Entry returns the pricing row for code.
func (t *PricingTable) Entry(code string) (PriceEntry, error) {
	e, ok := t.Entries[code]
	if !ok {
		return PriceEntry{}, validationErrorf("product %q has no price", code)
	}
	return e, nil
}

// SortedEntries returns the entries ordered by code.
func (t *PricingTable) SortedEntries() []PriceEntry {
	out := make([]PriceEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ShippingFee applies the shipping rule to q.
func (t *PricingTable) ShippingFee(q Quantities) (decimal.Decimal, error) {
	var units int64
	for code, qty := range q.Lines() {
		e, err := t.Entry(code)
		if err != nil {
			return decimal.Zero, err
		}
		if e.CountsForShipping {
			units += int64(qty)
		}
	}
	if units >= int64(t.Shipping.FreeThreshold) {
		return decimal.Zero, nil
	}
	return t.Shipping.FlatFee, nil
}

// PricingService reads and maintains the pricing table.
type PricingService interface {
	GetPricingTable(ctx context.Context) (*PricingTable, error)
	// GetPricingTableTx reads the table inside an existing transaction.
	GetPricingTableTx(ctx context.Context, tx pgx.Tx) (*PricingTable, error)
	UpsertPrice(ctx context.Context, entry PriceEntry) (*PriceEntry, error)
	UpdateShippingRule(ctx context.Context, rule ShippingRule) error
}

type pricingService struct {
	pool *pgxpool.Pool
}

// NewPricingService constructs a PricingService backed by PostgreSQL.
func NewPricingService(pool *pgxpool.Pool) PricingService {
	return &pricingService{pool: pool}
}

// pgxReader is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxReader interface {
	pgxQuerier
	pgxRowsQuerier
}

func (s *pricingService) GetPricingTable(ctx context.Context) (*PricingTable, error) {
	return loadPricingTable(ctx, s.pool)
}

func (s *pricingService) GetPricingTableTx(ctx context.Context, tx pgx.Tx) (*PricingTable, error) {
	return loadPricingTable(ctx, tx)
}

func (s *pricingService) UpsertPrice(ctx context.Context, entry PriceEntry) (*PriceEntry, error) {
	if entry.Code == "" {
		return nil, validationErrorf("product code is required")
	}
	if err := validateAmount("unit price of "+entry.Code, entry.UnitPrice); err != nil {
		return nil, err
	}
	if err := validateAmount("unit cost of "+entry.Code, entry.UnitCost); err != nil {
		return nil, err
	}

	var e PriceEntry
	err := s.pool.QueryRow(ctx, `
		INSERT INTO product_prices (code, name, unit_price, unit_cost, counts_for_shipping, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
		    unit_price = EXCLUDED.unit_price,
		    unit_cost = EXCLUDED.unit_cost,
		    counts_for_shipping = EXCLUDED.counts_for_shipping,
		    is_active = EXCLUDED.is_active
		RETURNING code, name, unit_price, unit_cost, counts_for_shipping, is_active
	`, entry.Code, entry.Name, entry.UnitPrice, entry.UnitCost, entry.CountsForShipping, entry.IsActive).Scan(
		&e.Code, &e.Name, &e.UnitPrice, &e.UnitCost, &e.CountsForShipping, &e.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert price %s: %w", entry.Code, err)
	}
	return &e, nil
}

func (s *pricingService) UpdateShippingRule(ctx context.Context, rule ShippingRule) error {
	if err := validateAmount("shipping fee", rule.FlatFee); err != nil {
		return err
	}
	if rule.FreeThreshold < 0 || rule.FreeThreshold > maxQuantity {
		return validationErrorf("free shipping threshold %d is out of range", rule.FreeThreshold)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO shipping_settings (id, flat_fee, free_threshold)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET flat_fee = EXCLUDED.flat_fee, free_threshold = EXCLUDED.free_threshold
	`, rule.FlatFee, rule.FreeThreshold)
	if err != nil {
		return fmt.Errorf("failed to update shipping rule: %w", err)
	}
	return nil
}

func loadPricingTable(ctx context.Context, q pgxReader) (*PricingTable, error) {
	rows, err := q.Query(ctx, `
		SELECT code, name, unit_price, unit_cost, counts_for_shipping, is_active
		FROM product_prices
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product prices: %w", err)
	}
	defer rows.Close()

	table := &PricingTable{Entries: make(map[string]PriceEntry)}
	for rows.Next() {
		var e PriceEntry
		if err := rows.Scan(&e.Code, &e.Name, &e.UnitPrice, &e.UnitCost, &e.CountsForShipping, &e.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan product price: %w", err)
		}
		table.Entries[e.Code] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product prices: %w", err)
	}

	err = q.QueryRow(ctx, "SELECT flat_fee, free_threshold FROM shipping_settings WHERE id = 1").
		Scan(&table.Shipping.FlatFee, &table.Shipping.FreeThreshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("shipping settings missing: run migrations or cmd/restore-seed")
		}
		return nil, fmt.Errorf("failed to read shipping settings: %w", err)
	}

	for _, code := range []string{ProductSmallBox, ProductLargeBox, ProductWrapping} {
		if _, ok := table.Entries[code]; !ok {
			return nil, fmt.Errorf("pricing table has no %s row: run migrations or cmd/restore-seed", code)
		}
	}
	return table, nil
}
