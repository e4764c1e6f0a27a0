package billing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// SQLSTATE 23505 = unique_violation (order_id sudah punya invoice).
const pgUniqueViolation = "23505"

// Insert memetakan pelanggaran unique constraint ke DuplicateInvoiceError:
// constraint DB adalah garis pertahanan terakhir kalau dua issue balapan
// lolos dari cek keberadaan.
func (r *Repo) Insert(ctx context.Context, inv Invoice) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO invoices(id, order_id, user_id, total_cents, status, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, inv.ID, inv.OrderID, inv.UserID, inv.TotalCents, string(inv.Status), inv.DueDate, inv.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &DuplicateInvoiceError{OrderID: inv.OrderID}
	}
	return err
}

func (r *Repo) Get(ctx context.Context, invoiceID string) (Invoice, error) {
	return r.one(ctx, `WHERE id = $1`, invoiceID)
}

func (r *Repo) GetByOrder(ctx context.Context, orderID string) (Invoice, error) {
	return r.one(ctx, `WHERE order_id = $1`, orderID)
}

func (r *Repo) one(ctx context.Context, where, arg string) (Invoice, error) {
	var inv Invoice
	var status string
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_id, user_id, total_cents, status, due_date, created_at
		FROM invoices `+where, arg).
		Scan(&inv.ID, &inv.OrderID, &inv.UserID, &inv.TotalCents, &status, &inv.DueDate, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrInvoiceNotFound
	}
	if err != nil {
		return Invoice{}, err
	}
	inv.Status = Status(status)
	return inv, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Invoice, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, user_id, total_cents, status, due_date, created_at
		FROM invoices WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		var status string
		if err := rows.Scan(&inv.ID, &inv.OrderID, &inv.UserID, &inv.TotalCents, &status, &inv.DueDate, &inv.CreatedAt); err != nil {
			return nil, err
		}
		inv.Status = Status(status)
		out = append(out, inv)
	}
	return out, rows.Err()
}

// SetStatus: perubahan status invoice sengaja permisif (tidak ada graf
// transisi), cukup divalidasi terhadap enum tertutupnya.
func (r *Repo) SetStatus(ctx context.Context, invoiceID string, s Status) (Invoice, error) {
	if !ValidStatus(s) {
		return Invoice{}, ErrInvalidStatus
	}
	ct, err := r.DB.Exec(ctx, `UPDATE invoices SET status=$2 WHERE id=$1`, invoiceID, string(s))
	if err != nil {
		return Invoice{}, err
	}
	if ct.RowsAffected() == 0 {
		return Invoice{}, ErrInvoiceNotFound
	}
	return r.Get(ctx, invoiceID)
}

// SetDueDate memvalidasi ulang terhadap created_at yang tersimpan.
func (r *Repo) SetDueDate(ctx context.Context, invoiceID string, due time.Time) (Invoice, error) {
	inv, err := r.Get(ctx, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	if due.Before(inv.CreatedAt) {
		return Invoice{}, ErrInvalidDueDate
	}
	if _, err := r.DB.Exec(ctx, `UPDATE invoices SET due_date=$2 WHERE id=$1`, invoiceID, due); err != nil {
		return Invoice{}, err
	}
	inv.DueDate = due
	return inv, nil
}
