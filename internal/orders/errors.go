package orders

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order has no items")
	ErrInvalidItem   = errors.New("invalid order item")

	// ErrLockTimeout: transaksi tidak kebagian row lock dalam batas waktu.
	// Retryable — beda dari kehabisan stok.
	ErrLockTimeout = errors.New("timed out waiting for stock lock")
)

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

type DuplicateProductError struct {
	ProductID string
}

func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("duplicate product in request: %s", e.ProductID)
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

type NotDeletableError struct {
	Status Status
}

func (e *NotDeletableError) Error() string {
	return fmt.Sprintf("order not deletable in status %s", e.Status)
}

// SQLSTATE 55P03 = lock_not_available (lock_timeout kelewat).
const pgLockNotAvailable = "55P03"

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func mapLockErr(err error) error {
	if pgErrCode(err) == pgLockNotAvailable {
		return ErrLockTimeout
	}
	return err
}
