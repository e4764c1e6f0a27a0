package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func insertOrder(ctx context.Context, tx pgx.Tx, o *Order) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, cart_id, status, total_cents, shipping_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, o.ID, o.UserID, o.CartID, string(o.Status), o.TotalCents, o.ShippingAddress, o.CreatedAt)
	if err != nil {
		return err
	}
	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, price_cents)
			VALUES ($1, $2, $3, $4)`,
			o.ID, it.ProductID, it.Qty, it.PriceCents,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, orderID string) (Order, error) {
	var o Order
	var status string
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, cart_id, status, total_cents, shipping_address, created_at
		FROM orders WHERE id = $1`, orderID).
		Scan(&o.ID, &o.UserID, &o.CartID, &status, &o.TotalCents, &o.ShippingAddress, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)

	rows, err := r.DB.Query(ctx, `
		SELECT product_id, qty, price_cents FROM order_items
		WHERE order_id = $1 ORDER BY product_id`, orderID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Qty, &it.PriceCents); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// Transition: baca status lama di bawah lock, validasi tabel transisi,
// baru update. Dua transisi konkuren utk order yg sama jadi serial di sini.
func (r *Repo) Transition(ctx context.Context, orderID string, next Status) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	// status tak dikenal jatuh ke jalur yang sama: error menyebut
	// status sekarang dan status yang diminta
	if !ValidStatus(next) || !CanTransition(Status(cur), next) {
		return Order{}, &InvalidTransitionError{From: Status(cur), To: next}
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, orderID, string(next)); err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return r.Get(ctx, orderID)
}

// Delete hanya boleh saat PENDING atau CANCELLED. Tidak ada restock di sini:
// cancel tidak mengembalikan stok (restock = aksi administratif terpisah).
func (r *Repo) Delete(ctx context.Context, orderID string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if !Status(cur).Deletable() {
		return &NotDeletableError{Status: Status(cur)}
	}
	// order_items ikut terhapus via ON DELETE CASCADE
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Restock: jalur administratif, bukan bagian dari cancel.
func (r *Repo) Restock(ctx context.Context, productID string, qty int) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return &ProductNotFoundError{ProductID: productID}
	}
	return nil
}

func (r *Repo) GetProduct(ctx context.Context, productID string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, sku, name, stock, price_cents, active, created_at, updated_at
		FROM products WHERE id = $1`, productID).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Stock, &p.PriceCents, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, &ProductNotFoundError{ProductID: productID}
	}
	return p, err
}
