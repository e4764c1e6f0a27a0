package orders

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
)

// reserveItems: lock stok per product (FOR UPDATE) -> cek ketersediaan ->
// kurangi -> snapshot harga. Jalan di dalam tx milik caller, jadi lock
// tertahan sampai order-nya ikut commit (atau rollback semua).
//
// Produk di-lock urut ascending id supaya dua order yang menyentuh set
// produk yang sama tidak saling deadlock.
func reserveItems(ctx context.Context, tx pgx.Tx, items []ItemInput) ([]OrderItem, error) {
	locked := make([]ItemInput, len(items))
	copy(locked, items)
	sort.Slice(locked, func(i, j int) bool { return locked[i].ProductID < locked[j].ProductID })

	prices := make(map[string]int, len(locked))
	for _, it := range locked {
		var stock, price int
		err := tx.QueryRow(ctx, `
			SELECT stock, price_cents FROM products
			WHERE id = $1 AND active
			FOR UPDATE`, it.ProductID).Scan(&stock, &price)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ProductNotFoundError{ProductID: it.ProductID}
		}
		if err != nil {
			return nil, mapLockErr(err)
		}
		if stock < it.Qty {
			// item pertama (urutan lock) yang kurang -> batal semua
			return nil, &InsufficientStockError{
				ProductID: it.ProductID,
				Requested: it.Qty,
				Available: stock,
			}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id = $1`, it.ProductID, it.Qty); err != nil {
			return nil, err
		}
		prices[it.ProductID] = price
	}

	// line item dikembalikan sesuai urutan request, bukan urutan lock
	lines := make([]OrderItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, OrderItem{
			ProductID:  it.ProductID,
			Qty:        it.Qty,
			PriceCents: prices[it.ProductID],
		})
	}
	return lines, nil
}
