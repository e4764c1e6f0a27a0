package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-commerce-checkout/internal/orders"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusRefunded Status = "REFUNDED"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPaid, StatusRefunded:
		return true
	}
	return false
}

// Default jatuh tempo 30 hari setelah invoice dibuat.
const DefaultDueIn = 30 * 24 * time.Hour

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvalidDueDate  = errors.New("due date precedes creation time")
	ErrInvalidStatus   = errors.New("unknown invoice status")
)

type DuplicateInvoiceError struct {
	OrderID string
}

func (e *DuplicateInvoiceError) Error() string {
	return fmt.Sprintf("invoice already exists for order %s", e.OrderID)
}

// Invoice 1:1 dengan order. TotalCents dicopy dari order saat issue dan
// tidak dihitung ulang sesudahnya.
type Invoice struct {
	ID         string
	OrderID    string
	UserID     string
	TotalCents int
	Status     Status
	DueDate    time.Time
	CreatedAt  time.Time
}

// IsOverdue dihitung tiap kali dibaca, tidak pernah disimpan sebagai status.
// Jadi true murni karena waktu berjalan, tanpa perlu write.
func (inv Invoice) IsOverdue(now time.Time) bool {
	return now.After(inv.DueDate) && inv.Status != StatusPaid
}

// NewInvoice membangun invoice dari order. due == nil -> default +30 hari.
func NewInvoice(o orders.Order, due *time.Time, now time.Time) (Invoice, error) {
	d := now.Add(DefaultDueIn)
	if due != nil {
		d = *due
	}
	if d.Before(now) {
		return Invoice{}, ErrInvalidDueDate
	}
	return Invoice{
		ID:         uuid.NewString(),
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalCents: o.TotalCents,
		Status:     StatusPending,
		DueDate:    d,
		CreatedAt:  now,
	}, nil
}
